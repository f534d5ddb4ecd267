package orchestrator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSlotPool_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := newSlotPool(2)
	require.True(t, pool.acquire("a"))
	require.True(t, pool.acquire("b"))
	assert.Equal(t, 2, pool.current())

	acquired := make(chan struct{})
	go func() {
		pool.acquire("c")
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("third acquire should block while pool is full")
	case <-time.After(20 * time.Millisecond):
	}

	pool.release("a")
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("third acquire never unblocked after release")
	}
	pool.release("b")
	pool.release("c")
}

func TestSlotPool_DoubleAcquirePanics(t *testing.T) {
	pool := newSlotPool(2)
	require.True(t, pool.acquire("a"))
	assert.Panics(t, func() { pool.acquire("a") })
	pool.release("a")
}

func TestSlotPool_ReleaseNonOwnerPanics(t *testing.T) {
	pool := newSlotPool(1)
	assert.Panics(t, func() { pool.release("ghost") })
}

func TestSlotPool_CloseAllWakesBlockedWaiters(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := newSlotPool(1)
	require.True(t, pool.acquire("a"))

	var wg sync.WaitGroup
	results := make([]bool, 3)
	for i := 0; i < 3; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = pool.acquire("waiter")
		}()
	}

	time.Sleep(20 * time.Millisecond)
	pool.closeAll()
	wg.Wait()

	for _, ok := range results {
		assert.False(t, ok, "acquire must report false once the pool is closed")
	}
	pool.release("a")
}

func TestSlotPool_UnboundedWhenNonPositive(t *testing.T) {
	pool := newSlotPool(0)
	for i := 0; i < 100; i++ {
		require.True(t, pool.acquire(string(rune('a'+i%26))+string(rune(i)))) // unique-ish names
	}
}
