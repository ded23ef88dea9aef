package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/adrianhensler/botterverse/internal/models"
)

// ErrNotFound is returned when a referenced author or post does not exist.
var ErrNotFound = errors.New("not found")

// Store is the timeline persistence collaborator the director runs against.
type Store interface {
	AddAuthor(ctx context.Context, author models.Author) error
	GetAuthor(ctx context.Context, id uuid.UUID) (models.Author, error)
	ListAuthors(ctx context.Context) ([]models.Author, error)

	CreatePost(ctx context.Context, payload models.PostCreate) (models.Post, error)
	RecentPosts(ctx context.Context, limit int) ([]models.Post, error)
	HasPost(ctx context.Context, id uuid.UUID) (bool, error)
	// LatestPostTimes reports, per author, the created_at of their newest
	// post. Used to rebuild cadence state after a restart.
	LatestPostTimes(ctx context.Context) (map[uuid.UUID]time.Time, error)

	CreateDM(ctx context.Context, payload models.DMCreate) (models.DMMessage, error)
	ListDMThread(ctx context.Context, userA, userB uuid.UUID, limit int) ([]models.DMMessage, error)
	// LatestDMPerThread returns the newest message of every DM thread.
	LatestDMPerThread(ctx context.Context) ([]models.DMMessage, error)

	ToggleLike(ctx context.Context, postID, authorID uuid.UUID) (int, error)
	// RecordLike adds a like if absent; it never removes one. Returns the
	// resulting like count and whether the like was new.
	RecordLike(ctx context.Context, postID, authorID uuid.UUID) (int, bool, error)

	AddAuditEntry(ctx context.Context, entry models.AuditEntry) error
	ListAuditEntries(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// threadKey canonicalizes a DM pair so both directions land in one thread.
func threadKey(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}
