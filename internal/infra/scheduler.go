package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"ardentia/internal/domain"
)

// Advancer is the slice of the price feed the scheduler drives.
type Advancer interface {
	Advance(ctx context.Context) error
}

// Scheduler drives the synthetic market. The cron fires once a second and
// each firing consults the trading settings row, so an admin edit to the
// price update interval takes effect on the next tick without restarting
// anything.
type Scheduler struct {
	cron     *cron.Cron
	feed     Advancer
	settings domain.SettingsRepository
	fallback int
	log      zerolog.Logger

	mu      sync.Mutex
	lastRun time.Time
}

// NewScheduler creates a new Scheduler. fallbackSeconds is used when the
// settings row cannot be read or carries a nonsense interval.
func NewScheduler(feed Advancer, settings domain.SettingsRepository, fallbackSeconds int, log zerolog.Logger) *Scheduler {
	if fallbackSeconds < 1 {
		fallbackSeconds = 10
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		feed:     feed,
		settings: settings,
		fallback: fallbackSeconds,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the tick schedule
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("@every 1s", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.tick(ctx, time.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule price feed: %w", err)
	}

	s.cron.Start()
	s.log.Info().Int("fallback_interval_seconds", s.fallback).Msg("price feed scheduler started")

	return nil
}

// tick fires a simulation pass when the configured interval has elapsed
// since the previous one.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	interval := s.interval(ctx)

	s.mu.Lock()
	if now.Sub(s.lastRun) < interval {
		s.mu.Unlock()
		return
	}
	s.lastRun = now
	s.mu.Unlock()

	if err := s.feed.Advance(ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled tick failed")
	}
}

// interval reads the current tick interval from the settings row.
func (s *Scheduler) interval(ctx context.Context) time.Duration {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load trading settings, using fallback interval")
		return time.Duration(s.fallback) * time.Second
	}
	if settings.PriceUpdateInterval < 1 {
		return time.Duration(s.fallback) * time.Second
	}
	return time.Duration(settings.PriceUpdateInterval) * time.Second
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("price feed scheduler stopped")
}

// RunNow triggers a simulation pass outside the schedule.
func (s *Scheduler) RunNow() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	return s.feed.Advance(ctx)
}
