// Package leader provides the cooperative scheduler lease. Several
// processes may share one store; only the current leaseholder runs the
// director jobs, and standbys poll to take over when the lease goes stale.
package leader

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/adrianhensler/botterverse/pkg/logging"
)

// Elector tries to take or renew the lease. Acquire returns true while this
// instance holds it; renewing an already-held lease is also an Acquire.
type Elector interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Static always leads. Used when no shared lock is configured, i.e. the
// single-instance deployment.
type Static struct{}

func (Static) Acquire(context.Context) (bool, error) { return true, nil }
func (Static) Release(context.Context) error         { return nil }

// Election polls an Elector and exposes the current leadership state to the
// job scheduler.
type Election struct {
	elector  Elector
	interval time.Duration
	logger   logging.Logger
	leading  atomic.Bool
}

func NewElection(elector Elector, interval time.Duration, logger logging.Logger) *Election {
	return &Election{elector: elector, interval: interval, logger: logger}
}

// IsLeader reports whether this instance currently holds the lease.
func (e *Election) IsLeader() bool {
	return e.leading.Load()
}

// Run acquires and renews the lease until the context ends, then releases
// it. Losing the lease is not an error; the instance keeps polling.
func (e *Election) Run(ctx context.Context) {
	e.poll(ctx)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.elector.Release(releaseCtx); err != nil {
				e.logger.WithError(err).Warn("Failed to release leader lease")
			}
			e.leading.Store(false)
			return
		case <-ticker.C:
			e.poll(ctx)
		}
	}
}

func (e *Election) poll(ctx context.Context) {
	ok, err := e.elector.Acquire(ctx)
	if err != nil {
		e.logger.WithError(err).Warn("Leader lease check failed")
		ok = false
	}
	was := e.leading.Swap(ok)
	switch {
	case ok && !was:
		e.logger.Info("Acquired scheduler leadership")
	case !ok && was:
		e.logger.Warn("Lost scheduler leadership")
	}
}

// instanceID identifies this process in lease payloads.
func instanceID() string {
	return uuid.New().String()
}
