// Package retention periodically sweeps the conversation store, removing
// conversations whose most recent message predates a configured age.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ragagent/ragagent/internal/observability"
	"github.com/ragagent/ragagent/internal/storage"
)

// cronParser accepts standard 5-field expressions plus an optional leading
// seconds field, matching what operators commonly paste from other cron
// tooling.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config controls the sweep's cadence and cutoff.
type Config struct {
	// MaxAge is the minimum idle duration before a conversation is swept.
	MaxAge time.Duration
	// Schedule is a standard cron expression evaluated in UTC.
	Schedule string
}

// Sweeper runs Config.Schedule against a storage.MessageStore, deleting
// conversations whose last activity is older than Config.MaxAge. One sweep
// runs at a time; a sweep still in flight when the next tick fires is
// skipped rather than queued, since the next scheduled tick will catch up.
type Sweeper struct {
	store  storage.MessageStore
	config Config
	logger *observability.Logger

	cron    *cron.Cron
	running chan struct{}
	now     func() time.Time
}

// New validates cfg and constructs a Sweeper. The cron schedule is parsed
// eagerly so a typo surfaces at wiring time, not at the first missed tick.
func New(store storage.MessageStore, cfg Config, logger *observability.Logger) (*Sweeper, error) {
	if store == nil {
		return nil, fmt.Errorf("retention: store is required")
	}
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("retention: maxAge must be > 0")
	}
	if _, err := cronParser.Parse(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("retention: invalid cron schedule %q: %w", cfg.Schedule, err)
	}

	return &Sweeper{
		store:   store,
		config:  cfg,
		logger:  logger,
		running: make(chan struct{}, 1),
		now:     time.Now,
	}, nil
}

// Start schedules the sweep and returns immediately; the cron runner owns
// its own goroutine. Calling Start twice is a no-op.
func (s *Sweeper) Start() error {
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(s.config.Schedule, s.sweepOnce); err != nil {
		return fmt.Errorf("retention: schedule sweep: %w", err)
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop cancels future ticks and waits for any sweep in progress to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweepOnce() {
	select {
	case s.running <- struct{}{}:
	default:
		if s.logger != nil {
			s.logger.Warn(context.Background(), "retention sweep skipped: previous sweep still running")
		}
		return
	}
	defer func() { <-s.running }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.config.MaxAge)
	removed, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		if s.logger != nil {
			s.logger.Error(ctx, "retention sweep failed", "error", err)
		}
		return
	}
	if s.logger != nil && removed > 0 {
		s.logger.Info(ctx, "retention sweep removed stale rows", "rows_removed", removed, "cutoff", cutoff)
	}
}
