// Package scheduler runs background pricing jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"go.uber.org/zap"
)

// GovernanceChecker evaluates tiers for a dynamic pricing freeze
type GovernanceChecker interface {
	RunGovernanceCheck(now time.Time) []pricing.TierType
	IsDynamicPricingFrozen(tier pricing.PricingTier) bool
}

// FreezeStateRecorder receives the freeze state of every tier after a check
type FreezeStateRecorder interface {
	RecordFreezeState(ctx context.Context, states map[string]bool)
}

// GovernanceSchedulerConfig holds governance scheduler configuration
type GovernanceSchedulerConfig struct {
	// Interval between governance checks
	Interval time.Duration
	// RunOnStart runs a check immediately instead of waiting one interval
	RunOnStart bool
}

// DefaultGovernanceSchedulerConfig returns the default configuration
func DefaultGovernanceSchedulerConfig() GovernanceSchedulerConfig {
	return GovernanceSchedulerConfig{
		Interval:   5 * time.Minute,
		RunOnStart: true,
	}
}

// Validate validates the configuration
func (c GovernanceSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// GovernanceScheduler periodically freezes dynamic pricing for tiers whose
// margin breaches crossed the threshold and publishes the resulting state.
type GovernanceScheduler struct {
	config   GovernanceSchedulerConfig
	checker  GovernanceChecker
	recorder FreezeStateRecorder
	logger   *zap.Logger
	now      func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
}

// NewGovernanceScheduler creates a new governance scheduler.
// recorder may be nil when metrics are disabled.
func NewGovernanceScheduler(
	config GovernanceSchedulerConfig,
	checker GovernanceChecker,
	recorder FreezeStateRecorder,
	logger *zap.Logger,
) (*GovernanceScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GovernanceScheduler{
		config:   config,
		checker:  checker,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start starts the periodic check loop
func (s *GovernanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Governance scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	return nil
}

// Stop stops the loop, waiting for an in-flight check until ctx expires
func (s *GovernanceScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Governance scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Governance scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *GovernanceScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// LastRun returns when the most recent check finished
func (s *GovernanceScheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *GovernanceScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single governance check and returns the tiers frozen afterwards
func (s *GovernanceScheduler) RunOnce(ctx context.Context) []pricing.TierType {
	now := s.now()
	frozen := s.checker.RunGovernanceCheck(now)
	if len(frozen) > 0 {
		tiers := make([]string, len(frozen))
		for i, t := range frozen {
			tiers[i] = string(t)
		}
		s.logger.Warn("Dynamic pricing frozen", zap.Strings("tiers", tiers))
	}

	states := make(map[string]bool, len(pricing.AllTierTypes()))
	for _, t := range pricing.AllTierTypes() {
		states[string(t)] = s.checker.IsDynamicPricingFrozen(pricing.MustPricingTier(t))
	}
	if s.recorder != nil {
		s.recorder.RecordFreezeState(ctx, states)
	}

	s.mu.Lock()
	s.lastRun = now
	s.mu.Unlock()

	s.logger.Debug("Governance check completed", zap.Int("frozen", len(frozen)))
	return frozen
}
