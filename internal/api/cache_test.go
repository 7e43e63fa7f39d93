package api

import (
	"sync"
	"testing"
	"time"

	"hotelops/internal/extraction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_DeleteIsFinal(t *testing.T) {
	var counts []int
	var mu sync.Mutex
	store := NewSessionStore(time.Minute, nil, func(n int) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	})

	sess := extraction.NewSession("abc", nil, nil, extraction.Options{})
	store.Put(sess)
	got, ok := store.Get("abc")
	require.True(t, ok)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, store.Count())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				store.Get("abc")
			}
		}()
	}
	assert.True(t, store.Delete("abc"))
	wg.Wait()

	_, ok = store.Get("abc")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Count())
	assert.False(t, store.Delete("abc"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 0}, counts)
}
