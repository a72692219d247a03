package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGet(t *testing.T) {
	t.Parallel()

	table := NewTable[string, int]()
	assert.True(t, table.Set("a", 1))
	assert.False(t, table.Set("a", 2), "second Set for the same key is an update")

	v, ok := table.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = table.Get("missing")
	assert.False(t, ok)
	assert.True(t, table.Has("a"))
	assert.False(t, table.Has("missing"))

	stats := table.Stats()
	assert.Equal(t, 1, stats.Size)
}

func TestTableInsertionOrder(t *testing.T) {
	t.Parallel()

	table := NewTable[string, int]()
	for i, k := range []string{"c", "a", "b"} {
		table.Set(k, i)
	}
	table.Set("a", 10)

	assert.Equal(t, []string{"c", "a", "b"}, table.Keys())

	var visited []string
	table.Range(func(k string, _ int) bool {
		visited = append(visited, k)
		return k != "a"
	})
	assert.Equal(t, []string{"c", "a"}, visited, "Range stops when fn returns false")
}

func TestTableRangeAllowsReentry(t *testing.T) {
	t.Parallel()

	table := NewTable[int, int]()
	table.Set(1, 1)
	table.Range(func(k, v int) bool {
		table.Set(k+100, v)
		return true
	})
	assert.Equal(t, 2, table.Len())
}

func TestTableConcurrentAccess(t *testing.T) {
	t.Parallel()

	table := NewTable[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j)
				table.Set(key, i)
				table.Get(key)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, table.Len())
}
