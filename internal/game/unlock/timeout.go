package unlock

import (
	"context"
	"time"
)

type timeoutPersister struct {
	next    Persister
	timeout time.Duration
}

// WithTimeout bounds every Load and Save of p by d. A non-positive d returns
// p unchanged.
func WithTimeout(p Persister, d time.Duration) Persister {
	if d <= 0 {
		return p
	}
	return &timeoutPersister{next: p, timeout: d}
}

func (t *timeoutPersister) Load(ctx context.Context) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Load(ctx)
}

func (t *timeoutPersister) Save(ctx context.Context, s State) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Save(ctx, s)
}
