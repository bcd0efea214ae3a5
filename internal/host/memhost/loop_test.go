package memhost

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_FIFO(t *testing.T) {
	loop := NewLoop()
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		loop.Schedule(func() { order = append(order, i) })
	}

	assert.Equal(t, 3, loop.Len())
	assert.Equal(t, 3, loop.RunPending())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, loop.Len())
}

func TestLoop_TasksScheduledWhileRunning(t *testing.T) {
	loop := NewLoop()
	var order []string
	loop.Schedule(func() {
		order = append(order, "outer")
		loop.Schedule(func() { order = append(order, "inner") })
	})
	loop.Schedule(func() { order = append(order, "second") })

	assert.Equal(t, 3, loop.RunPending())
	assert.Equal(t, []string{"outer", "second", "inner"}, order)
}

func TestLoop_Cancel(t *testing.T) {
	loop := NewLoop()
	ran := false
	task := loop.Schedule(func() { ran = true })
	task.Cancel()

	assert.Equal(t, 0, loop.RunPending())
	assert.False(t, ran)
	assert.False(t, loop.Step())
}

func TestLoop_RunPendingIsBounded(t *testing.T) {
	loop := NewLoop()
	var spin func()
	spin = func() { loop.Schedule(spin) }
	loop.Schedule(spin)

	assert.Equal(t, DefaultMaxTasks, loop.RunPending())
	assert.Equal(t, 1, loop.Len())
}

func TestLoop_RunStopsOnContextCancel(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := loop.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	}()

	loop.Schedule(func() {
		mu.Lock()
		ran++
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ran == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()

	// Closed loops drop new tasks
	loop.Schedule(func() { t.Error("must not run") })
	assert.Equal(t, 0, loop.RunPending())
}

func TestLoop_RunReturnsWhenClosedAndDrained(t *testing.T) {
	loop := NewLoop()
	ran := false
	loop.Schedule(func() { ran = true })
	loop.Close()

	require.NoError(t, loop.Run(context.Background()))
	assert.True(t, ran)
}
