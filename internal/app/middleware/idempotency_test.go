package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentilia/internal/app/commands"
	"rentilia/internal/app/middleware"
	"rentilia/internal/infra/storage/memory"
)

type echoCommand struct {
	Value string
	IdKey string
}

func (c echoCommand) Key() string            { return "test.echo" }
func (c echoCommand) IdempotencyKey() string { return c.IdKey }
func (c echoCommand) ResultPrototype() any   { return &echoResult{} }

type echoResult struct {
	Value string `json:"value"`
	Calls int    `json:"calls"`
}

func newEchoBus(calls *int, fail error) commands.Bus {
	bus := commands.NewInMemoryBus()
	bus.RegisterRaw("test.echo", func(_ context.Context, raw commands.Command) (any, error) {
		*calls++
		if fail != nil {
			return nil, fail
		}
		cmd := raw.(echoCommand)
		return &echoResult{Value: cmd.Value, Calls: *calls}, nil
	})
	return bus
}

func TestIdempotencyReplaysRecordedResult(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(newEchoBus(&calls, nil),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	first, err := bus.Dispatch(context.Background(), echoCommand{Value: "hello", IdKey: "caller:key-1"})
	require.NoError(t, err)

	second, err := bus.Dispatch(context.Background(), echoCommand{Value: "hello", IdKey: "caller:key-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.(*echoResult).Value, second.(*echoResult).Value)
	assert.Equal(t, first.(*echoResult).Calls, second.(*echoResult).Calls)
}

func TestIdempotencyDistinctKeysExecuteSeparately(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(newEchoBus(&calls, nil),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	_, err := bus.Dispatch(context.Background(), echoCommand{Value: "a", IdKey: "caller:key-1"})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), echoCommand{Value: "b", IdKey: "caller:key-2"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestIdempotencyEmptyKeySkipsTheStore(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(newEchoBus(&calls, nil),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	_, err := bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestIdempotencyRecordsFailures(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(newEchoBus(&calls, errors.New("boom")),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	_, err := bus.Dispatch(context.Background(), echoCommand{Value: "x", IdKey: "caller:key-1"})
	require.EqualError(t, err, "boom")

	// The failure is replayed too, so a retry with the same key does not
	// re-execute the handler.
	_, err = bus.Dispatch(context.Background(), echoCommand{Value: "x", IdKey: "caller:key-1"})
	require.EqualError(t, err, "boom")
	assert.Equal(t, 1, calls)
}
