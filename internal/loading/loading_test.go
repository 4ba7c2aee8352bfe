package loading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLoading_FlagLifecycle(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"failure", errors.New("remote exploded")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController()
			assert.False(t, c.Loading(), "flag must be false before the first fetch")

			var during bool
			err := c.WithLoading(context.Background(), func(ctx context.Context) error {
				during = c.Loading()
				return tt.err
			})

			assert.Equal(t, tt.err, err)
			assert.True(t, during)
			assert.False(t, c.Loading())
		})
	}
}

func TestWithLoading_ClearsOnPanic(t *testing.T) {
	c := NewController()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = c.WithLoading(context.Background(), func(ctx context.Context) error {
			panic("kaboom")
		})
	})
	assert.False(t, c.Loading())
	require.NoError(t, c.Wait(context.Background()))
}

func TestWithLoading_ConcurrentCallsAreNotCoalesced(t *testing.T) {
	c := NewController()
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var calls int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.WithLoading(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				calls++
				mu.Unlock()
				started <- struct{}{}
				<-release
				return nil
			})
		}()
	}

	<-started
	<-started
	assert.True(t, c.Loading())
	close(release)
	wg.Wait()

	assert.Equal(t, 2, calls)
	assert.False(t, c.Loading())
}

func TestWithLoading_StaysTrueUntilLastSettles(t *testing.T) {
	c := NewController()
	first := make(chan struct{})
	second := make(chan struct{})
	running := make(chan struct{}, 2)

	go c.WithLoading(context.Background(), func(ctx context.Context) error {
		running <- struct{}{}
		<-first
		return nil
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.WithLoading(context.Background(), func(ctx context.Context) error {
			running <- struct{}{}
			<-second
			return nil
		})
	}()
	<-running
	<-running

	close(first)
	assert.Eventually(t, func() bool { return c.Loading() }, time.Second, 5*time.Millisecond)
	assert.True(t, c.Loading())

	close(second)
	<-done
	assert.Eventually(t, func() bool { return !c.Loading() }, time.Second, 5*time.Millisecond)
}

func TestWait(t *testing.T) {
	c := NewController()
	require.NoError(t, c.Wait(context.Background()))

	release := make(chan struct{})
	running := make(chan struct{})
	go c.WithLoading(context.Background(), func(ctx context.Context) error {
		close(running)
		<-release
		return nil
	})
	<-running

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)

	close(release)
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	assert.NoError(t, c.Wait(ctx2))
}

func TestOnChange(t *testing.T) {
	c := NewController()
	var mu sync.Mutex
	var flips []bool
	c.OnChange(func(loading bool) {
		mu.Lock()
		flips = append(flips, loading)
		mu.Unlock()
	})

	_ = c.WithLoading(context.Background(), func(ctx context.Context) error { return nil })
	assert.Equal(t, []bool{true, false}, flips)
}

func TestSequencer_DiscardsStale(t *testing.T) {
	var s Sequencer
	older := s.Next()
	newer := s.Next()
	require.Greater(t, newer, older)

	var state string
	assert.True(t, s.Apply(newer, func() { state = "newer" }))
	assert.False(t, s.Apply(older, func() { state = "older" }))
	assert.Equal(t, "newer", state)
	assert.Equal(t, newer, s.Applied())
}

func TestSequencer_InOrder(t *testing.T) {
	var s Sequencer
	var got []uint64
	for i := 0; i < 3; i++ {
		ticket := s.Next()
		assert.True(t, s.Apply(ticket, func() { got = append(got, ticket) }))
	}
	assert.Equal(t, []uint64{1, 2, 3}, got)
}

func TestStart_FlagSetBeforeReturn(t *testing.T) {
	c := NewController()
	release := make(chan struct{})

	done := c.Start(context.Background(), func(ctx context.Context) error {
		<-release
		return errors.New("late failure")
	})
	assert.True(t, c.Loading())

	close(release)
	assert.EqualError(t, <-done, "late failure")
	require.NoError(t, c.Wait(context.Background()))
	assert.False(t, c.Loading())
}
