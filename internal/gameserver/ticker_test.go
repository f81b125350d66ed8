package gameserver_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/choiceman/internal/gameserver"
)

func TestTicker_StartsAndStops(t *testing.T) {
	tk := gameserver.NewTicker(50*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	tk.Start(ctx)
	time.Sleep(120 * time.Millisecond)
	cancel()
}

func TestTicker_JobInvoked(t *testing.T) {
	tk := gameserver.NewTicker(20*time.Millisecond, zap.NewNop())
	called := make(chan struct{}, 1)
	tk.Register("job", func(context.Context) {
		select {
		case called <- struct{}{}:
		default:
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	tk.Start(ctx)
	select {
	case <-called:
	case <-ctx.Done():
		t.Fatal("tick job not invoked within timeout")
	}
}

func TestTicker_UnregisterStopsJob(t *testing.T) {
	tk := gameserver.NewTicker(20*time.Millisecond, zap.NewNop())
	var count atomic.Int64
	tk.Register("j", func(context.Context) { count.Add(1) })
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	tk.Start(ctx)
	time.Sleep(60 * time.Millisecond)
	tk.Unregister("j")
	after := count.Load()
	time.Sleep(60 * time.Millisecond)
	assert.LessOrEqual(t, count.Load(), after+1)
}

func TestNewTicker_PanicsOnZeroInterval(t *testing.T) {
	assert.Panics(t, func() { gameserver.NewTicker(0, nil) })
}

type countingSaver struct {
	calls atomic.Int64
	err   error
}

func (s *countingSaver) Save(ctx context.Context) error {
	s.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	return s.err
}

func TestAutosaveJob(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := &countingSaver{}
	job := gameserver.AutosaveJob(s, time.Second, zap.New(core))
	job(context.Background())
	assert.Equal(t, int64(1), s.calls.Load())
	assert.Equal(t, 0, logs.Len())

	s.err = errors.New("disk full")
	job(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("autosave failed").Len())
}
