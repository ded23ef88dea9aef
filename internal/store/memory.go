package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adrianhensler/botterverse/internal/models"
)

type dmThreadKey struct {
	a, b uuid.UUID
}

// MemoryStore is an in-process Store. It backs the dev mode (no DATABASE_URL)
// and the test suites.
type MemoryStore struct {
	mu      sync.RWMutex
	authors map[uuid.UUID]models.Author
	order   []uuid.UUID
	posts   map[uuid.UUID]models.Post
	dms     map[dmThreadKey][]models.DMMessage
	likes   map[uuid.UUID]map[uuid.UUID]struct{}
	audit   []models.AuditEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		authors: make(map[uuid.UUID]models.Author),
		posts:   make(map[uuid.UUID]models.Post),
		dms:     make(map[dmThreadKey][]models.DMMessage),
		likes:   make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (s *MemoryStore) AddAuthor(_ context.Context, author models.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.authors[author.ID]; !exists {
		s.order = append(s.order, author.ID)
	}
	s.authors[author.ID] = author
	return nil
}

func (s *MemoryStore) GetAuthor(_ context.Context, id uuid.UUID) (models.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	author, ok := s.authors[id]
	if !ok {
		return models.Author{}, ErrNotFound
	}
	return author, nil
}

func (s *MemoryStore) ListAuthors(_ context.Context) ([]models.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Author, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.authors[id])
	}
	return out, nil
}

func (s *MemoryStore) CreatePost(_ context.Context, payload models.PostCreate) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authors[payload.AuthorID]; !ok {
		return models.Post{}, ErrNotFound
	}
	post := models.Post{
		ID:        uuid.New(),
		AuthorID:  payload.AuthorID,
		Content:   payload.Content,
		ReplyTo:   payload.ReplyTo,
		QuoteOf:   payload.QuoteOf,
		CreatedAt: time.Now().UTC(),
	}
	s.posts[post.ID] = post
	return post, nil
}

func (s *MemoryStore) RecentPosts(_ context.Context, limit int) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		out = append(out, post)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) HasPost(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.posts[id]
	return ok, nil
}

func (s *MemoryStore) LatestPostTimes(_ context.Context) (map[uuid.UUID]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]time.Time)
	for _, post := range s.posts {
		if existing, ok := out[post.AuthorID]; !ok || post.CreatedAt.After(existing) {
			out[post.AuthorID] = post.CreatedAt
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateDM(_ context.Context, payload models.DMCreate) (models.DMMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authors[payload.SenderID]; !ok {
		return models.DMMessage{}, ErrNotFound
	}
	if _, ok := s.authors[payload.RecipientID]; !ok {
		return models.DMMessage{}, ErrNotFound
	}
	msg := models.DMMessage{
		ID:          uuid.New(),
		SenderID:    payload.SenderID,
		RecipientID: payload.RecipientID,
		Content:     payload.Content,
		CreatedAt:   time.Now().UTC(),
	}
	a, b := threadKey(payload.SenderID, payload.RecipientID)
	key := dmThreadKey{a, b}
	s.dms[key] = append(s.dms[key], msg)
	return msg, nil
}

func (s *MemoryStore) ListDMThread(_ context.Context, userA, userB uuid.UUID, limit int) ([]models.DMMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, b := threadKey(userA, userB)
	thread := s.dms[dmThreadKey{a, b}]
	if limit > 0 && len(thread) > limit {
		thread = thread[len(thread)-limit:]
	}
	out := make([]models.DMMessage, len(thread))
	copy(out, thread)
	return out, nil
}

func (s *MemoryStore) LatestDMPerThread(_ context.Context) ([]models.DMMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DMMessage, 0, len(s.dms))
	for _, thread := range s.dms {
		if len(thread) > 0 {
			out = append(out, thread[len(thread)-1])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ToggleLike(_ context.Context, postID, authorID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return 0, ErrNotFound
	}
	likes := s.likes[postID]
	if likes == nil {
		likes = make(map[uuid.UUID]struct{})
		s.likes[postID] = likes
	}
	if _, liked := likes[authorID]; liked {
		delete(likes, authorID)
	} else {
		likes[authorID] = struct{}{}
	}
	return len(likes), nil
}

func (s *MemoryStore) RecordLike(_ context.Context, postID, authorID uuid.UUID) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return 0, false, ErrNotFound
	}
	likes := s.likes[postID]
	if likes == nil {
		likes = make(map[uuid.UUID]struct{})
		s.likes[postID] = likes
	}
	if _, liked := likes[authorID]; liked {
		return len(likes), false, nil
	}
	likes[authorID] = struct{}{}
	return len(likes), true, nil
}

func (s *MemoryStore) AddAuditEntry(_ context.Context, entry models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
	return nil
}

func (s *MemoryStore) ListAuditEntries(_ context.Context, limit int) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.audit
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]models.AuditEntry, len(entries))
	copy(out, entries)
	return out, nil
}
