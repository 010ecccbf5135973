package auth

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRevocationStoreAddContains(t *testing.T) {
	store := NewRevocationStore()
	expires := time.Now().Add(time.Hour)

	assert.False(t, store.Contains("jti-1"))
	store.Add("jti-1", expires)
	assert.True(t, store.Contains("jti-1"))
	assert.False(t, store.Contains("jti-2"))
}

func TestRevocationStoreIgnoresEmptyID(t *testing.T) {
	store := NewRevocationStore()
	store.Add("", time.Now().Add(time.Hour))
	assert.Equal(t, 0, store.Len())
	assert.False(t, store.Contains(""))
}

func TestRevocationStoreSweep(t *testing.T) {
	store := NewRevocationStore()
	now := time.Now()
	store.Add("live", now.Add(time.Hour))
	store.Add("dead", now.Add(-time.Minute))
	store.Add("boundary", now)

	removed := store.Sweep(now)
	assert.Equal(t, 2, removed)
	assert.True(t, store.Contains("live"))
	assert.False(t, store.Contains("dead"))
	assert.False(t, store.Contains("boundary"))
}

func TestRevocationStoreConcurrentAccess(t *testing.T) {
	store := NewRevocationStore()
	expires := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			store.Add(fmt.Sprintf("jti-%d", n), expires)
		}(i)
		go func(n int) {
			defer wg.Done()
			store.Contains(fmt.Sprintf("jti-%d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}
