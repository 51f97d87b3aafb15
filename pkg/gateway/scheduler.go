package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"taskpilot/gateway/pkg/providers"
)

// TaskSource supplies the tasks the periodic summary should cover.
type TaskSource func(ctx context.Context, day time.Time) ([]Task, error)

// SummarySink receives each generated summary.
type SummarySink func(ctx context.Context, day time.Time, summary string)

// SummaryScheduler runs the daily-summary workflow on a cron schedule, e.g.
// "0 7 * * *" for every morning at seven.
type SummaryScheduler struct {
	gateway  *Gateway
	settings providers.Settings
	source   TaskSource
	sink     SummarySink
	schedule string

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewSummaryScheduler creates a scheduler over the given gateway. The
// settings are captured once; callers that reconfigure providers should stop
// and recreate the scheduler.
func NewSummaryScheduler(g *Gateway, settings providers.Settings, schedule string, source TaskSource, sink SummarySink) *SummaryScheduler {
	return &SummaryScheduler{
		gateway:  g,
		settings: settings,
		source:   source,
		sink:     sink,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "gateway.scheduler"),
	}
}

// Start begins scheduled summary generation. An empty schedule disables the
// scheduler without error.
func (s *SummaryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("summary scheduler already running")
	}
	if s.schedule == "" {
		s.logger.Info("summary schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule summary: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("summary scheduler started", "schedule", s.schedule)
	return nil
}

// Stop halts scheduling and waits for a running summary to finish.
func (s *SummaryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("summary scheduler stopped")
}

// run generates one summary and hands it to the sink.
func (s *SummaryScheduler) run(ctx context.Context) {
	day := time.Now()

	tasks, err := s.source(ctx, day)
	if err != nil {
		s.logger.Error("failed to load tasks for summary", "error", err)
		return
	}

	summary, err := s.gateway.DailySummary(ctx, s.settings, day, tasks)
	if err != nil {
		s.logger.Error("scheduled summary failed", "error", err)
		return
	}

	s.sink(ctx, day, summary)
	s.logger.Debug("scheduled summary delivered", "tasks", len(tasks))
}
