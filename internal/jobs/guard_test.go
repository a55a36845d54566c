package jobs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunGuard(t *testing.T) {
	var guard RunGuard

	assert.True(t, guard.TryStart())
	assert.True(t, guard.Running())
	assert.False(t, guard.TryStart())

	guard.Finish()
	assert.False(t, guard.Running())
	assert.False(t, guard.LastRun().IsZero())
	assert.True(t, guard.TryStart())
	guard.Finish()
}

func TestRunGuard_Concurrent(t *testing.T) {
	var guard RunGuard
	var wg sync.WaitGroup
	var mu sync.Mutex
	claimed := 0

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if guard.TryStart() {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claimed)
}
