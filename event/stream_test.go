package event

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBufferedStream_DeliversInOrder(t *testing.T) {
	ss := NewBufferedStream[int, string](
		"test",
		8,
		func(e int) (string, bool) {
			return strconv.Itoa(e), true
		},
	)

	for i := 0; i < 5; i++ {
		require.NoError(t, ss.Notify(i, time.Second))
	}
	ss.Close()

	var received []string
	for msg := range ss.Channel() {
		received = append(received, msg)
	}
	require.Equal(t, []string{"0", "1", "2", "3", "4"}, received)
}

func TestBufferedStream_SelectorDrops(t *testing.T) {
	ss := NewBufferedStream[int, int](
		"test",
		8,
		func(e int) (int, bool) {
			return e, e%2 == 0
		},
	)

	for i := 0; i < 6; i++ {
		require.NoError(t, ss.Notify(i, time.Second))
	}
	ss.Close()

	var received []int
	for msg := range ss.Channel() {
		received = append(received, msg)
	}
	require.Equal(t, []int{0, 2, 4}, received)
}

func TestBufferedStream_FullBufferTimesOutAndCloses(t *testing.T) {
	ss := NewBufferedStream[int, int](
		"test",
		1,
		func(e int) (int, bool) { return e, true },
	)

	require.NoError(t, ss.Notify(1, 50*time.Millisecond))
	require.Error(t, ss.Notify(2, 50*time.Millisecond))

	// The stream closed itself; further notifies fail and the channel
	// drains then closes.
	require.Error(t, ss.Notify(3, 50*time.Millisecond))

	val, ok := <-ss.Channel()
	require.True(t, ok)
	require.Equal(t, 1, val)

	_, ok = <-ss.Channel()
	require.False(t, ok)
}

func TestBufferedStream_CloseIsIdempotent(t *testing.T) {
	ss := NewBufferedStream[int, int](
		"test",
		1,
		func(e int) (int, bool) { return e, true },
	)

	ss.Close()
	ss.Close()

	require.Error(t, ss.Notify(1, time.Millisecond))
}
