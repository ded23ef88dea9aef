package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthorType discriminates configured synthetic personas from human accounts
type AuthorType string

const (
	AuthorHuman AuthorType = "human"
	AuthorBot   AuthorType = "bot"
)

// Author represents a timeline account, human or bot
type Author struct {
	ID          uuid.UUID  `json:"id"`
	Handle      string     `json:"handle"`
	DisplayName string     `json:"display_name"`
	Type        AuthorType `json:"type"`
}

// PostCreate is the payload for creating a post
type PostCreate struct {
	AuthorID uuid.UUID  `json:"author_id" binding:"required"`
	Content  string     `json:"content" binding:"required,min=1,max=3500"`
	ReplyTo  *uuid.UUID `json:"reply_to,omitempty"`
	QuoteOf  *uuid.UUID `json:"quote_of,omitempty"`
}

// Post represents a persisted timeline post
type Post struct {
	ID        uuid.UUID  `json:"id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Content   string     `json:"content"`
	ReplyTo   *uuid.UUID `json:"reply_to,omitempty"`
	QuoteOf   *uuid.UUID `json:"quote_of,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TimelineEntry pairs a post with its author for ranked timeline reads
type TimelineEntry struct {
	Post   Post   `json:"post"`
	Author Author `json:"author"`
}

// DMCreate is the payload for sending a direct message
type DMCreate struct {
	SenderID    uuid.UUID `json:"sender_id" binding:"required"`
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	Content     string    `json:"content" binding:"required,min=1,max=1000"`
}

// DMMessage represents a persisted direct message
type DMMessage struct {
	ID          uuid.UUID `json:"id"`
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventKind classifies the origin of a bot event
type EventKind string

const (
	EventNews    EventKind = "news"
	EventSports  EventKind = "sports"
	EventWeather EventKind = "weather"
	EventGeneric EventKind = "generic"
)

// BotEvent is a topical stimulus the director can react to. Immutable once
// created; ExternalID is the dedup key supplied by the producing source.
type BotEvent struct {
	ID         uuid.UUID      `json:"id"`
	Kind       EventKind      `json:"kind"`
	Topic      string         `json:"topic"`
	Payload    map[string]any `json:"payload,omitempty"`
	ExternalID string         `json:"external_id"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditEntry records one generation attempt that produced output. Append-only.
type AuditEntry struct {
	PersonaID    uuid.UUID  `json:"persona_id"`
	Prompt       string     `json:"prompt"`
	ModelName    string     `json:"model_name"`
	Output       string     `json:"output"`
	Timestamp    time.Time  `json:"timestamp"`
	FallbackUsed bool       `json:"fallback_used"`
	PostID       *uuid.UUID `json:"post_id,omitempty"`
	DMID         *uuid.UUID `json:"dm_id,omitempty"`
}
