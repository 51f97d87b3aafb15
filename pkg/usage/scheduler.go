package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner runs retention pruning on a cron schedule.
//
// Common expressions:
//   - "0 3 * * *"   - daily at 3 AM
//   - "0 */6 * * *" - every 6 hours
type Pruner struct {
	store     *Store
	schedule  string
	retention time.Duration

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewPruner creates a pruner over the store.
func NewPruner(store *Store, schedule string, retention time.Duration) *Pruner {
	return &Pruner{
		store:     store,
		schedule:  schedule,
		retention: retention,
		cron:      cron.New(),
		logger:    slog.Default().With("component", "usage.pruner"),
	}
}

// Start begins scheduled pruning. An empty schedule disables the pruner
// without error.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("pruner already running")
	}
	if p.schedule == "" {
		p.logger.Info("prune schedule not configured, skipping pruner")
		return nil
	}

	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.schedule, err)
	}

	_, err := p.cron.AddFunc(p.schedule, func() {
		if _, err := p.store.Prune(ctx, p.retention); err != nil {
			p.logger.Error("scheduled prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule prune: %w", err)
	}

	p.cron.Start()
	p.running = true
	p.logger.Info("usage pruner started", "schedule", p.schedule, "retention", p.retention)
	return nil
}

// Stop halts scheduling and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("usage pruner stopped")
}
