// Package ingest polls external feeds and turns them into bot events. Each
// source yields events with stable external IDs; the director's dedup window
// makes repeated polls of the same stories harmless.
package ingest

import (
	"context"

	"github.com/adrianhensler/botterverse/internal/models"
)

// Source is one external feed.
type Source interface {
	Name() string
	Poll(ctx context.Context) ([]models.BotEvent, error)
}
