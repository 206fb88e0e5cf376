// Package sequence mints the human-readable public order codes. A code is
// the order date as YYMMDD followed by a zero-padded 3-digit sequence,
// e.g. 250123001 for the first order on January 23, 2025.
package sequence

import (
	"errors"
	"fmt"
	"time"
)

// DefaultAttempts bounds the optimistic retry loop.
const DefaultAttempts = 3

// ErrCodeTaken must be returned by Store.Claim when the proposed code
// violates the uniqueness constraint. Any other error aborts allocation.
var ErrCodeTaken = errors.New("public code already taken")

// ExhaustedError reports that no unique code was found within the retry
// budget. The caller may retry the whole placement.
type ExhaustedError struct {
	Prefix   string
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("could not allocate a unique order code for %s after %d attempts", e.Prefix, e.Attempts)
}

// Store is the durable counter backing allocation. The uniqueness
// constraint behind Claim is the only synchronization primitive: multiple
// process instances may allocate concurrently and no in-process lock is
// held.
type Store interface {
	// CountWithPrefix returns how many codes already share the date prefix.
	CountWithPrefix(prefix string) (int, error)
	// Claim atomically inserts the code, returning ErrCodeTaken if it
	// already exists.
	Claim(publicID string) error
}

// Allocator generates collision-free, date-scoped public order codes.
//
// The scheme is optimistic: concurrent allocators may race past the count
// read and propose the same sequence, relying on the store's uniqueness
// constraint as the final arbiter. Sequences are therefore unique but not
// guaranteed monotonic under contention, which is acceptable for a
// single-counter deployment.
type Allocator struct {
	store    Store
	attempts int
}

// NewAllocator returns an allocator with the default retry budget.
func NewAllocator(store Store) *Allocator {
	return &Allocator{store: store, attempts: DefaultAttempts}
}

// Allocate mints a code for the given day. It reads the current count of
// codes sharing the day's prefix, proposes count+1+attempt, and asks the
// store to claim it; on a uniqueness violation it retries with the next
// attempt offset, failing with ExhaustedError once the budget is spent.
func (a *Allocator) Allocate(now time.Time) (string, error) {
	prefix := DatePrefix(now)

	for attempt := 0; attempt < a.attempts; attempt++ {
		count, err := a.store.CountWithPrefix(prefix)
		if err != nil {
			return "", fmt.Errorf("failed to count existing codes: %w", err)
		}

		code := fmt.Sprintf("%s%03d", prefix, count+1+attempt)
		err = a.store.Claim(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return "", fmt.Errorf("failed to claim code %s: %w", code, err)
		}
	}

	return "", &ExhaustedError{Prefix: prefix, Attempts: a.attempts}
}

// DatePrefix returns the YYMMDD prefix for the given day.
func DatePrefix(now time.Time) string {
	return now.Format("060102")
}
