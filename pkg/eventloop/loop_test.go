package eventloop

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoopRunsPostedTasksInOrder(t *testing.T) {
	l := New()
	go l.Run()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()
	l.Stop()

	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestLoopStopDrainsPendingTasks(t *testing.T) {
	l := New()

	var ran int32
	l.Post(func() { atomic.AddInt32(&ran, 1) })
	l.Post(func() { atomic.AddInt32(&ran, 1) })
	l.Stop()

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop drained the queue")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&ran))
}

func TestLoopDropsTasksPostedAfterStop(t *testing.T) {
	l := New()
	l.Stop()

	ran := false
	l.Post(func() { ran = true })
	l.Run()

	assert.False(t, ran)
}
