package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when the predicate never succeeded within the
// allowed attempts.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Predicate reports whether the awaited condition holds. A non-nil error is
// treated as "not yet" and retried.
type Predicate func(ctx context.Context) (bool, error)

// Do polls fn up to attempts times, sleeping interval between attempts.
// It returns nil as soon as fn reports success, ctx.Err() when the context is
// cancelled while waiting, and ErrExhausted otherwise. The last error
// observed from fn, if any, is joined with ErrExhausted.
func Do(ctx context.Context, attempts int, interval time.Duration, fn Predicate) error {
	var last error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		ok, err := fn(ctx)
		if err != nil {
			last = err
			continue
		}
		if ok {
			return nil
		}
	}
	if last != nil {
		return errors.Join(ErrExhausted, last)
	}
	return ErrExhausted
}
