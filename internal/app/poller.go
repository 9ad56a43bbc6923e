package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/relay/internal/botapi"
	"github.com/five82/relay/internal/clock"
	"github.com/five82/relay/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// StatusFetcher is the part of the bot API the poller needs.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, botID string) (*botapi.BotStatus, error)
}

var _ StatusFetcher = (*botapi.Client)(nil)

// Poller refreshes a state.Store with the status of one bot.
type Poller struct {
	Store    *state.Store
	Fetcher  StatusFetcher
	BotID    string
	Interval time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Start launches a background goroutine that refreshes the store until ctx
// is cancelled. It returns immediately. Consecutive failures back off
// exponentially up to maxBackoff.
func (p *Poller) Start(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.Real()
	}
	go func() {
		for {
			p.refresh(ctx)
			wait := calculateBackoff(p.Store.Snapshot().ConsecutiveFailures, interval)
			select {
			case <-ctx.Done():
				return
			case <-clk.After(wait):
			}
		}
	}()
}

func (p *Poller) refresh(ctx context.Context) {
	status, err := p.Fetcher.FetchStatus(ctx, p.BotID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.Store.Update(nil, err)
		p.logger().Warn("status poll failed", "bot", p.BotID, "error", err)
		return
	}
	p.Store.Update(status, nil)
}

func (p *Poller) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
