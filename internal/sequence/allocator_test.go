package sequence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore enforces uniqueness the way the database constraint does, with
// an optional delay between the count read and the claim to widen the race
// window.
type fakeStore struct {
	mu     sync.Mutex
	codes  map[string]bool
	claims int
}

func newFakeStore() *fakeStore {
	return &fakeStore{codes: make(map[string]bool)}
}

func (s *fakeStore) CountWithPrefix(prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for code := range s.codes {
		if len(code) >= len(prefix) && code[:len(prefix)] == prefix {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) Claim(publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims++
	if s.codes[publicID] {
		return ErrCodeTaken
	}
	s.codes[publicID] = true
	return nil
}

// alwaysTaken simulates a store where every proposed code collides.
type alwaysTaken struct{}

func (alwaysTaken) CountWithPrefix(prefix string) (int, error) { return 7, nil }
func (alwaysTaken) Claim(publicID string) error                { return ErrCodeTaken }

func TestAllocateFormat(t *testing.T) {
	store := newFakeStore()
	allocator := NewAllocator(store)
	day := time.Date(2025, 1, 23, 10, 0, 0, 0, time.UTC)

	code, err := allocator.Allocate(day)
	require.NoError(t, err)
	assert.Equal(t, "250123001", code)

	code, err = allocator.Allocate(day)
	require.NoError(t, err)
	assert.Equal(t, "250123002", code)
}

func TestAllocateSeparateDays(t *testing.T) {
	store := newFakeStore()
	allocator := NewAllocator(store)

	first, err := allocator.Allocate(time.Date(2025, 1, 23, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := allocator.Allocate(time.Date(2025, 1, 24, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "250123001", first)
	assert.Equal(t, "250124001", second)
}

// TestAllocateConcurrentNoDuplicates races many allocators on the same day
// and checks that the issued code set has no duplicates. The fake store's
// uniqueness check is the only synchronization, as in production.
func TestAllocateConcurrentNoDuplicates(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2025, 1, 23, 10, 0, 0, 0, time.UTC)

	const writers = 40
	var wg sync.WaitGroup
	results := make(chan string, writers)
	failures := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allocator := NewAllocator(store)
			code, err := allocator.Allocate(day)
			if err != nil {
				failures <- err
				return
			}
			results <- code
		}()
	}
	wg.Wait()
	close(results)
	close(failures)

	seen := make(map[string]bool)
	for code := range results {
		assert.False(t, seen[code], "duplicate code issued: %s", code)
		seen[code] = true
	}

	// Some writers may legitimately exhaust their retry budget under this
	// much contention; every failure must be the typed exhaustion error.
	for err := range failures {
		var exhausted *ExhaustedError
		assert.ErrorAs(t, err, &exhausted)
	}

	assert.Equal(t, len(seen), len(store.codes))
}

func TestAllocateExhaustion(t *testing.T) {
	allocator := NewAllocator(alwaysTaken{})

	code, err := allocator.Allocate(time.Date(2025, 1, 23, 10, 0, 0, 0, time.UTC))

	assert.Empty(t, code)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, DefaultAttempts, exhausted.Attempts)
	assert.Equal(t, "250123", exhausted.Prefix)
}

// staleCountStore hands the allocator a stale count on its first read,
// mimicking a concurrent writer that filled the proposed slot between the
// count and the claim.
type staleCountStore struct {
	*fakeStore
	firstRead bool
}

func (s *staleCountStore) CountWithPrefix(prefix string) (int, error) {
	if !s.firstRead {
		s.firstRead = true
		return 0, nil
	}
	return s.fakeStore.CountWithPrefix(prefix)
}

func TestAllocateRetriesAreInvisibleOnSuccess(t *testing.T) {
	inner := newFakeStore()
	require.NoError(t, inner.Claim("250123001"))
	require.NoError(t, inner.Claim("250123002"))
	store := &staleCountStore{fakeStore: inner}

	allocator := NewAllocator(store)
	code, err := allocator.Allocate(time.Date(2025, 1, 23, 10, 0, 0, 0, time.UTC))

	// First proposal (stale count 0 -> 001) collides; the retry re-reads
	// the count and succeeds. The caller only sees the final code.
	require.NoError(t, err)
	assert.Equal(t, "250123004", code)
	assert.Equal(t, 4, inner.claims)
}
