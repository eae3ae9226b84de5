package registry

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndList(t *testing.T) {
	reg := New(nil)

	require.NoError(t, reg.Register("A"))
	require.NoError(t, reg.Register("B"))

	assert.ElementsMatch(t, []string{"A", "B"}, reg.List())
	assert.Equal(t, 2, reg.Len())
}

func TestRegisterRecordsCreationTime(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	reg := New(clock)

	require.NoError(t, reg.Register("A"))
	clock.Advance(time.Minute)
	require.NoError(t, reg.Register("B"))

	a, ok := reg.Get("A")
	require.True(t, ok)
	assert.Equal(t, start, a.CreatedAt)

	b, ok := reg.Get("B")
	require.True(t, ok)
	assert.Equal(t, start.Add(time.Minute), b.CreatedAt)
}

func TestRegisterDuplicateKeepsExistingEntry(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	reg := New(clock)

	require.NoError(t, reg.Register("A"))
	clock.Advance(time.Hour)

	err := reg.Register("A")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateConnection)

	conn, ok := reg.Get("A")
	require.True(t, ok)
	assert.Equal(t, start, conn.CreatedAt)
	assert.Equal(t, []string{"A"}, reg.List())
}

func TestRegisterEmptyID(t *testing.T) {
	reg := New(nil)

	assert.ErrorIs(t, reg.Register(""), ErrEmptyID)
	assert.Equal(t, 0, reg.Len())
}

func TestUnregister(t *testing.T) {
	reg := New(nil)
	require.NoError(t, reg.Register("A"))

	assert.True(t, reg.Unregister("A"))
	assert.False(t, reg.Unregister("A"), "second unregister should be a no-op")
	assert.False(t, reg.Unregister("missing"))
	assert.Empty(t, reg.List())

	_, ok := reg.Get("A")
	assert.False(t, ok)
}

func TestReconnectUsesFreshEntry(t *testing.T) {
	reg := New(nil)
	require.NoError(t, reg.Register("A"))
	reg.Unregister("A")

	assert.NoError(t, reg.Register("A"))
	assert.Equal(t, 1, reg.Len())
}

func TestListIsSnapshot(t *testing.T) {
	reg := New(nil)
	require.NoError(t, reg.Register("A"))
	require.NoError(t, reg.Register("B"))

	snapshot := reg.List()
	reg.Unregister("A")
	require.NoError(t, reg.Register("C"))

	assert.ElementsMatch(t, []string{"A", "B"}, snapshot)
	assert.ElementsMatch(t, []string{"B", "C"}, reg.List())
}

// TestListMatchesConnectDisconnectSequences replays random event sequences
// against a plain set and compares the final state.
func TestListMatchesConnectDisconnectSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		reg := New(nil)
		model := make(map[string]struct{})

		for step := 0; step < 50; step++ {
			id := fmt.Sprintf("c%d", rng.Intn(10))
			if rng.Intn(2) == 0 {
				err := reg.Register(id)
				if _, exists := model[id]; exists {
					require.ErrorIs(t, err, ErrDuplicateConnection)
				} else {
					require.NoError(t, err)
					model[id] = struct{}{}
				}
			} else {
				_, exists := model[id]
				require.Equal(t, exists, reg.Unregister(id))
				delete(model, id)
			}
		}

		expected := make([]string, 0, len(model))
		for id := range model {
			expected = append(expected, id)
		}
		got := reg.List()
		sort.Strings(expected)
		sort.Strings(got)
		require.Equal(t, expected, got, "round %d", round)
	}
}

func TestConcurrentRegistryOperations(t *testing.T) {
	reg := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("client-%d", n)
			for j := 0; j < 100; j++ {
				_ = reg.Register(id)
				_ = reg.List()
				reg.Unregister(id)
			}
			_ = reg.Register(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, reg.Len())
}
