package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SweepResult summarises one overdue sweep
type SweepResult struct {
	AgreementsScanned   int
	InstallmentsOverdue int
}

// OverdueSweeper flags installments and on-account sales whose due date has passed
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context, asOf time.Time) (SweepResult, error)
}

// OverdueSweepConfig holds configuration for the overdue sweep scheduler
type OverdueSweepConfig struct {
	Enabled  bool
	Interval time.Duration
	// Timeout bounds a single run
	Timeout time.Duration
	// RunOnStart sweeps once immediately instead of waiting for the first tick
	RunOnStart bool
}

// DefaultOverdueSweepConfig returns default configuration
func DefaultOverdueSweepConfig() OverdueSweepConfig {
	return OverdueSweepConfig{
		Enabled:    true,
		Interval:   time.Hour,
		Timeout:    5 * time.Minute,
		RunOnStart: true,
	}
}

// Validate checks the configuration
func (c OverdueSweepConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// OverdueSweepScheduler runs the overdue sweep on a fixed interval
type OverdueSweepScheduler struct {
	sweeper OverdueSweeper
	logger  *zap.Logger
	config  OverdueSweepConfig
	now     func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
	lastErr   error
}

// NewOverdueSweepScheduler creates a new scheduler
func NewOverdueSweepScheduler(sweeper OverdueSweeper, logger *zap.Logger, config OverdueSweepConfig) *OverdueSweepScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueSweepScheduler{
		sweeper: sweeper,
		logger:  logger,
		config:  config,
		now:     time.Now,
	}
}

// Start starts the sweep loop. A disabled scheduler logs and returns.
func (s *OverdueSweepScheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Overdue sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Overdue sweep scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("run_on_start", s.config.RunOnStart))
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep, bounded by ctx
func (s *OverdueSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Overdue sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *OverdueSweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// LastRun returns when the last sweep finished and its error
func (s *OverdueSweepScheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *OverdueSweepScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		_, _ = s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep with the configured timeout
func (s *OverdueSweepScheduler) RunOnce(ctx context.Context) (SweepResult, error) {
	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = DefaultOverdueSweepConfig().Timeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := s.now()
	result, err := s.sweeper.SweepOverdue(runCtx, start)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrSweepTimeout, err)
	}

	s.mu.Lock()
	s.lastRun = s.now()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Overdue sweep failed", zap.Error(err))
		return result, err
	}
	s.logger.Info("Overdue sweep completed",
		zap.Int("agreements_scanned", result.AgreementsScanned),
		zap.Int("installments_overdue", result.InstallmentsOverdue),
		zap.Duration("duration", s.now().Sub(start)))
	return result, nil
}
