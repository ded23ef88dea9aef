package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adrianhensler/botterverse/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore persists the timeline in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddAuthor(ctx context.Context, author models.Author) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authors (id, handle, display_name, type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, type = EXCLUDED.type
	`, author.ID, author.Handle, author.DisplayName, author.Type)
	if err != nil {
		return fmt.Errorf("insert author: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAuthor(ctx context.Context, id uuid.UUID) (models.Author, error) {
	var author models.Author
	err := s.db.QueryRowContext(ctx, `
		SELECT id, handle, display_name, type FROM authors WHERE id = $1
	`, id).Scan(&author.ID, &author.Handle, &author.DisplayName, &author.Type)
	if err == sql.ErrNoRows {
		return models.Author{}, ErrNotFound
	}
	if err != nil {
		return models.Author{}, fmt.Errorf("select author: %w", err)
	}
	return author, nil
}

func (s *PostgresStore) ListAuthors(ctx context.Context) ([]models.Author, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, handle, display_name, type FROM authors ORDER BY registered_at
	`)
	if err != nil {
		return nil, fmt.Errorf("select authors: %w", err)
	}
	defer rows.Close()

	var out []models.Author
	for rows.Next() {
		var author models.Author
		if err := rows.Scan(&author.ID, &author.Handle, &author.DisplayName, &author.Type); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		out = append(out, author)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreatePost(ctx context.Context, payload models.PostCreate) (models.Post, error) {
	post := models.Post{
		ID:        uuid.New(),
		AuthorID:  payload.AuthorID,
		Content:   payload.Content,
		ReplyTo:   payload.ReplyTo,
		QuoteOf:   payload.QuoteOf,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, content, reply_to, quote_of, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, post.ID, post.AuthorID, post.Content, post.ReplyTo, post.QuoteOf, post.CreatedAt)
	if err != nil {
		return models.Post{}, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

func (s *PostgresStore) RecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, content, reply_to, quote_of, created_at
		FROM posts ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	defer rows.Close()

	var out []models.Post
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Content, &post.ReplyTo, &post.QuoteOf, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, post)
	}
	return out, rows.Err()
}

func (s *PostgresStore) HasPost(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("post exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) LatestPostTimes(ctx context.Context) (map[uuid.UUID]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT author_id, MAX(created_at) FROM posts GROUP BY author_id
	`)
	if err != nil {
		return nil, fmt.Errorf("select latest post times: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]time.Time)
	for rows.Next() {
		var authorID uuid.UUID
		var latest time.Time
		if err := rows.Scan(&authorID, &latest); err != nil {
			return nil, fmt.Errorf("scan latest post time: %w", err)
		}
		out[authorID] = latest
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateDM(ctx context.Context, payload models.DMCreate) (models.DMMessage, error) {
	msg := models.DMMessage{
		ID:          uuid.New(),
		SenderID:    payload.SenderID,
		RecipientID: payload.RecipientID,
		Content:     payload.Content,
		CreatedAt:   time.Now().UTC(),
	}
	a, b := threadKey(payload.SenderID, payload.RecipientID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dm_messages (id, sender_id, recipient_id, thread_a, thread_b, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.SenderID, msg.RecipientID, a, b, msg.Content, msg.CreatedAt)
	if err != nil {
		return models.DMMessage{}, fmt.Errorf("insert dm: %w", err)
	}
	return msg, nil
}

func (s *PostgresStore) ListDMThread(ctx context.Context, userA, userB uuid.UUID, limit int) ([]models.DMMessage, error) {
	a, b := threadKey(userA, userB)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, recipient_id, content, created_at FROM (
			SELECT id, sender_id, recipient_id, content, created_at
			FROM dm_messages
			WHERE thread_a = $1 AND thread_b = $2
			ORDER BY created_at DESC LIMIT $3
		) recent ORDER BY created_at
	`, a, b, limit)
	if err != nil {
		return nil, fmt.Errorf("select dm thread: %w", err)
	}
	defer rows.Close()
	return scanDMs(rows)
}

func (s *PostgresStore) LatestDMPerThread(ctx context.Context) ([]models.DMMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (thread_a, thread_b) id, sender_id, recipient_id, content, created_at
		FROM dm_messages
		ORDER BY thread_a, thread_b, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("select latest dms: %w", err)
	}
	defer rows.Close()
	return scanDMs(rows)
}

func scanDMs(rows *sql.Rows) ([]models.DMMessage, error) {
	var out []models.DMMessage
	for rows.Next() {
		var msg models.DMMessage
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dm: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ToggleLike(ctx context.Context, postID, authorID uuid.UUID) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin toggle like: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM likes WHERE post_id = $1 AND author_id = $2
	`, postID, authorID)
	if err != nil {
		return 0, fmt.Errorf("delete like: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted == 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO likes (post_id, author_id) VALUES ($1, $2)
		`, postID, authorID); err != nil {
			return 0, fmt.Errorf("insert like: %w", err)
		}
	}

	var count int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM likes WHERE post_id = $1
	`, postID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit toggle like: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) RecordLike(ctx context.Context, postID, authorID uuid.UUID) (int, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO likes (post_id, author_id) VALUES ($1, $2)
		ON CONFLICT (post_id, author_id) DO NOTHING
	`, postID, authorID)
	if err != nil {
		return 0, false, fmt.Errorf("insert like: %w", err)
	}
	inserted, _ := res.RowsAffected()

	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM likes WHERE post_id = $1
	`, postID).Scan(&count); err != nil {
		return 0, false, fmt.Errorf("count likes: %w", err)
	}
	return count, inserted > 0, nil
}

func (s *PostgresStore) AddAuditEntry(ctx context.Context, entry models.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (persona_id, prompt, model_name, output, fallback_used, post_id, dm_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.PersonaID, entry.Prompt, entry.ModelName, entry.Output, entry.FallbackUsed, entry.PostID, entry.DMID, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAuditEntries(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT persona_id, prompt, model_name, output, fallback_used, post_id, dm_id, created_at FROM (
			SELECT persona_id, prompt, model_name, output, fallback_used, post_id, dm_id, created_at
			FROM audit_entries ORDER BY created_at DESC LIMIT $1
		) recent ORDER BY created_at
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		if err := rows.Scan(&entry.PersonaID, &entry.Prompt, &entry.ModelName, &entry.Output, &entry.FallbackUsed, &entry.PostID, &entry.DMID, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
