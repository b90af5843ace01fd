package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"eventcertificates/internal/domain"
)

// IssuanceScheduler periodically issues certificates for attendees that have none yet.
type IssuanceScheduler struct {
	cron      *cron.Cron
	issuance  domain.IssuanceService
	batchSize int
	logger    *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewIssuanceScheduler returns a scheduler running a pending-issuance batch on schedule,
// a standard five field cron expression or a descriptor such as "@every 5m".
// A batch still running when the next one is due causes that run to be skipped.
func NewIssuanceScheduler(issuance domain.IssuanceService, schedule string, batchSize int, logger *slog.Logger) (*IssuanceScheduler, error) {
	cl := cronLogger{logger: logger}
	s := &IssuanceScheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		issuance:  issuance,
		batchSize: batchSize,
		logger:    logger,
		ctx:       context.Background(),
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(s.jobContext()) }); err != nil {
		return nil, fmt.Errorf("invalid issuance schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running batches. Jobs observe ctx and the scheduler's own cancellation.
func (s *IssuanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("issuance scheduler already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.cron.Start()
	s.logger.Info("issuance scheduler started", "batch_size", s.batchSize)
	return nil
}

// Stop cancels the running batch, if any, and waits for it to return.
func (s *IssuanceScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("issuance scheduler stopped")
}

func (s *IssuanceScheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// RunOnce issues one batch of pending certificates across all definitions.
// Attendees whose last attempt failed are left for an explicit retry.
func (s *IssuanceScheduler) RunOnce(ctx context.Context) domain.IssueSummary {
	summary, err := s.issuance.IssuePending(ctx, domain.PendingFilter{Limit: s.batchSize})
	if err != nil {
		s.logger.ErrorContext(ctx, "pending issuance batch failed", "err", err,
			"issued", summary.Issued, "failed", summary.Failed)
		return summary
	}
	if summary.Issued > 0 || summary.Failed > 0 {
		s.logger.InfoContext(ctx, "pending issuance batch finished", "issued", summary.Issued, "failed", summary.Failed)
	}
	return summary
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
