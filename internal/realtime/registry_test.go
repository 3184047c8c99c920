package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ev(n int) Event {
	return Event{Type: "test", Data: n, Timestamp: time.Now()}
}

func recv(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case e := <-sub.Events():
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestSubscribe_InitialEventFirst(t *testing.T) {
	r := NewRegistry(4, zap.NewNop())
	sub, err := r.Subscribe(ev(0))
	require.NoError(t, err)
	defer sub.Close()

	r.Broadcast(ev(1))

	assert.Equal(t, 0, recv(t, sub).Data)
	assert.Equal(t, 1, recv(t, sub).Data)
}

func TestBroadcast_FanOut(t *testing.T) {
	r := NewRegistry(4, zap.NewNop())
	subs := make([]*Subscription, 3)
	for i := range subs {
		s, err := r.Subscribe()
		require.NoError(t, err)
		subs[i] = s
	}
	require.Equal(t, 3, r.Len())

	assert.Equal(t, 3, r.Broadcast(ev(7)))
	for _, s := range subs {
		assert.Equal(t, 7, recv(t, s).Data)
	}
}

func TestBroadcast_DropsOldestWhenFull(t *testing.T) {
	r := NewRegistry(2, zap.NewNop())
	sub, err := r.Subscribe()
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		r.Broadcast(ev(i))
	}

	assert.Equal(t, uint64(3), sub.Dropped())
	assert.Equal(t, 4, recv(t, sub).Data)
	assert.Equal(t, 5, recv(t, sub).Data)
}

func TestBroadcast_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	r := NewRegistry(1, zap.NewNop())
	slow, err := r.Subscribe()
	require.NoError(t, err)
	fast, err := r.Subscribe()
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		r.Broadcast(ev(i))
		assert.Equal(t, i, recv(t, fast).Data)
	}
	assert.Equal(t, 99, recv(t, slow).Data)
}

func TestClose_RemovesSubscriber(t *testing.T) {
	r := NewRegistry(4, zap.NewNop())
	a, _ := r.Subscribe()
	b, _ := r.Subscribe()

	a.Close()
	a.Close()

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, r.Broadcast(ev(1)))
	select {
	case <-a.Done():
	default:
		t.Fatal("closed subscription should be done")
	}
	assert.Equal(t, 1, recv(t, b).Data)
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry(4, zap.NewNop())
	sub, _ := r.Subscribe()

	r.Close()

	assert.Equal(t, 0, r.Len())
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
	_, err := r.Subscribe()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, r.Broadcast(ev(1)))
}

func TestBroadcast_ConcurrentSubscribeAndClose(t *testing.T) {
	r := NewRegistry(8, zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s, err := r.Subscribe()
			if err == nil {
				s.Close()
			}
		}()
		go func(n int) {
			defer wg.Done()
			r.Broadcast(ev(n))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
