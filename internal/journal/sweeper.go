package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// PatternSweeper periodically scans recently active users for wound seeds
// and logs what it finds.
type PatternSweeper struct {
	service   *Service
	interval  time.Duration
	lookback  time.Duration
	logger    *slog.Logger
	scheduler *gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	now       func() time.Time
}

// NewPatternSweeper creates a sweeper that runs every interval over users
// active within lookback.
func NewPatternSweeper(service *Service, interval, lookback time.Duration, logger *slog.Logger) *PatternSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PatternSweeper{
		service:   service,
		interval:  interval,
		lookback:  lookback,
		logger:    logger,
		scheduler: gocron.NewScheduler(time.UTC),
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}
}

// Start schedules the sweep and returns immediately. The first run happens
// after one interval.
func (p *PatternSweeper) Start() error {
	_, err := p.scheduler.Every(p.interval).Tag("wound-seed-sweep").SingletonMode().WaitForSchedule().Do(func() {
		if _, err := p.RunOnce(p.ctx); err != nil {
			p.logger.Error("pattern sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling pattern sweep: %w", err)
	}
	p.scheduler.StartAsync()
	p.logger.Info("pattern sweeper started", "interval", p.interval, "lookback", p.lookback)
	return nil
}

// Stop cancels any running sweep and stops the scheduler.
func (p *PatternSweeper) Stop() {
	p.cancel()
	p.scheduler.Stop()
}

// RunOnce sweeps every recently active user and returns the wound seeds
// found per user. Users without seeds are omitted.
func (p *PatternSweeper) RunOnce(ctx context.Context) (map[string][]WoundSeed, error) {
	since := p.now().Add(-p.lookback)
	users, err := p.service.ActiveUsers(ctx, since)
	if err != nil {
		return nil, err
	}

	found := map[string][]WoundSeed{}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		seeds, err := p.service.Patterns(ctx, u)
		if err != nil {
			p.logger.Warn("pattern scan failed", "user_id", u, "error", err)
			continue
		}
		if len(seeds) == 0 {
			continue
		}
		found[u] = seeds
		for _, s := range seeds {
			p.logger.Info("wound seed detected",
				"user_id", u,
				"emotion", s.Emotion,
				"occurrences", s.Occurrences,
				"first_seen", s.FirstSeen,
				"last_seen", s.LastSeen,
			)
		}
	}
	p.logger.Debug("pattern sweep complete", "users", len(users), "flagged", len(found))
	return found, nil
}
