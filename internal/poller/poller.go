// Package poller runs a function on a fixed interval.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slok/deployboard/internal/log"
)

// TickFunc is executed on every poll tick.
type TickFunc func(ctx context.Context) error

// Config is the poller configuration.
type Config struct {
	// Interval is the time between ticks.
	Interval time.Duration
	Tick     TickFunc
	Logger   log.Logger
}

func (c *Config) defaults() error {
	if c.Tick == nil {
		return fmt.Errorf("tick function is required")
	}

	if c.Interval < 0 {
		return fmt.Errorf("interval can't be negative")
	}

	if c.Interval == 0 {
		c.Interval = 2 * time.Second
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "poller.Poller"})

	return nil
}

// Poller calls the tick function on a fixed interval. Ticks are serialized and
// at most one loop runs at the same time. Failed ticks are retried on the next
// tick.
type Poller struct {
	interval time.Duration
	tick     TickFunc
	logger   log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a new poller.
func New(cfg Config) (*Poller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Poller{
		interval: cfg.Interval,
		tick:     cfg.Tick,
		logger:   cfg.Logger,
	}, nil
}

// Start starts polling in background, a running loop is stopped first.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stop()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.loop(ctx)
	}()
	p.logger.Debugf("Polling started every %s", p.interval)
}

// Stop stops the polling loop and waits until it finishes.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stop()
}

func (p *Poller) stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
	p.wg.Wait()
	p.logger.Debugf("Polling stopped")
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.Start(ctx)
	<-ctx.Done()
	p.Stop()
	return nil
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.tick(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warningf("Poll tick failed: %s", err)
			}
		}
	}
}
