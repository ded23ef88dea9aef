package ingest

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/adrianhensler/botterverse/internal/models"
	"github.com/adrianhensler/botterverse/pkg/logging"
)

// PollAll polls every source concurrently and merges the results. A failing
// source is logged and skipped so one dead feed never starves the others.
func PollAll(ctx context.Context, sources []Source, logger logging.Logger) []models.BotEvent {
	var mu sync.Mutex
	var events []models.BotEvent

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			evs, err := src.Poll(gctx)
			if err != nil {
				logger.WithError(err).WithField("source", src.Name()).Warn("Ingest poll failed")
				return nil
			}
			mu.Lock()
			events = append(events, evs...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return events
}
