package services

import (
	"context"

	"github.com/lunaro-social/backend/internal/repositories"
)

// CounterGuard applies signed deltas to denormalized counters so they never
// go negative and so a duplicate or racing decrement degrades to a no-op
// instead of corrupting the count.
//
// With floorGuard set, a decrement only lands when the stored value is
// still above zero; the condition is evaluated at the storage layer, inside
// whatever transaction the passed Store is bound to. A failed guard is
// silent: the counter already agrees with "nothing left to decrement".
type CounterGuard struct{}

// Adjust applies delta to the counter identified by (counter, id).
func (CounterGuard) Adjust(ctx context.Context, store repositories.Store, counter repositories.Counter, id uint, delta int, floorGuard bool) error {
	if err := store.Counters().Adjust(ctx, counter, id, delta, floorGuard); err != nil {
		return StorageError(err)
	}
	return nil
}

// Value reads the counter's current stored value through the same Store,
// so a read issued after Adjust inside a transaction sees the adjusted
// value.
func (CounterGuard) Value(ctx context.Context, store repositories.Store, counter repositories.Counter, id uint) (int64, error) {
	value, err := store.Counters().Value(ctx, counter, id)
	if err != nil {
		return 0, StorageError(err)
	}
	return value, nil
}
