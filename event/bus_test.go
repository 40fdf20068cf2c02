package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBus_FanOutInRegistrationOrder(t *testing.T) {
	bus := NewBus[string, int]()

	var order []string
	bus.AddHandler(HandlerFunc[string, int](func(key string, e int) {
		order = append(order, "first")
	}))
	bus.AddHandler(HandlerFunc[string, int](func(key string, e int) {
		order = append(order, "second")
	}))

	require.NoError(t, bus.OnEvent("k", 1))
	require.Equal(t, []string{"first", "second"}, order)

	require.NoError(t, bus.OnEvent("k", 2))
	require.Equal(t, []string{"first", "second", "first", "second"}, order)
}

func TestBus_HandlerReceivesKeyAndEvent(t *testing.T) {
	bus := NewBus[string, int]()

	var gotKey string
	var gotEvent int
	bus.AddHandler(HandlerFunc[string, int](func(key string, e int) {
		gotKey = key
		gotEvent = e
	}))

	require.NoError(t, bus.OnEvent("purchase", 42))
	require.Equal(t, "purchase", gotKey)
	require.Equal(t, 42, gotEvent)
}
