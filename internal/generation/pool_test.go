package generation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	_, err := NewPool(nil)
	assert.ErrorIs(t, err, ErrNoEndpoints)

	_, err = NewPool([]string{" ", ""})
	assert.ErrorIs(t, err, ErrNoEndpoints)

	p, err := NewPool([]string{"http://a:1/", " http://b:2 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, p.Endpoints())
	assert.Equal(t, 2, p.Size())
}

func TestPool_NextWraps(t *testing.T) {
	p, err := NewPool([]string{"a", "b", "c"})
	require.NoError(t, err)

	var got []string
	for i := 0; i < 7; i++ {
		got = append(got, p.Next())
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, got)
}

func TestPool_ConcurrentNextIsFair(t *testing.T) {
	p, err := NewPool([]string{"a", "b", "c"})
	require.NoError(t, err)

	const calls = 300
	var (
		mu     sync.Mutex
		counts = map[string]int{}
		wg     sync.WaitGroup
	)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := p.Next()
			mu.Lock()
			counts[e]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"a": 100, "b": 100, "c": 100}, counts)
}
