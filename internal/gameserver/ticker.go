package gameserver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/observability"
)

// Ticker runs registered jobs once per interval on a single goroutine.
//
// Invariant: each job is invoked at most once per tick.
type Ticker struct {
	interval time.Duration
	mu       sync.Mutex
	jobs     map[string]func(context.Context)
	logger   *zap.Logger
}

// NewTicker returns a ticker firing every interval.
//
// Precondition: interval must be > 0.
func NewTicker(interval time.Duration, logger *zap.Logger) *Ticker {
	if interval <= 0 {
		panic("gameserver.NewTicker: interval must be > 0")
	}
	return &Ticker{
		interval: interval,
		jobs:     make(map[string]func(context.Context)),
		logger:   observability.Component(logger, "ticker"),
	}
}

// Register adds job under name, replacing any job already registered there.
func (t *Ticker) Register(name string, job func(context.Context)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[name] = job
}

// Unregister removes the job registered under name.
func (t *Ticker) Unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, name)
}

// Run fires the registered jobs every interval until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fire(ctx)
		}
	}
}

// Start runs the ticker on its own goroutine until ctx is cancelled.
func (t *Ticker) Start(ctx context.Context) {
	go t.Run(ctx)
}

func (t *Ticker) fire(ctx context.Context) {
	t.mu.Lock()
	jobs := make(map[string]func(context.Context), len(t.jobs))
	for k, v := range t.jobs {
		jobs[k] = v
	}
	t.mu.Unlock()
	for name, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		job(ctx)
		t.logger.Debug("tick job ran", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	}
}

// Saver persists state on demand.
type Saver interface {
	Save(ctx context.Context) error
}

// AutosaveJob returns a tick job that saves s, bounding each save by timeout
// when timeout > 0. A failed save is logged and retried on the next tick.
func AutosaveJob(s Saver, timeout time.Duration, logger *zap.Logger) func(context.Context) {
	logger = observability.Component(logger, "autosave")
	return func(ctx context.Context) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := s.Save(ctx); err != nil {
			logger.Warn("autosave failed", zap.Error(err))
		}
	}
}
