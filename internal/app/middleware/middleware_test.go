package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khidma/internal/app/commands"
	"khidma/internal/app/outbox"
)

type fakeCommand struct {
	key   string
	idKey string
}

type fakeResult struct {
	Value string `json:"value"`
}

func (c fakeCommand) Key() string            { return c.key }
func (c fakeCommand) IdempotencyKey() string { return c.idKey }
func (c fakeCommand) ResultPrototype() any   { return &fakeResult{} }

type fakeStore struct {
	items map[string]IdempotencyRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]IdempotencyRecord)}
}

func (s *fakeStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *fakeStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.items[rec.Key] = rec
	return nil
}

type countingBus struct {
	calls  int
	result any
	err    error
}

func (b *countingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.calls++
	return b.result, b.err
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	store := newFakeStore()
	inner := &countingBus{result: &fakeResult{Value: "first"}}
	bus := ChainCommands(inner, Idempotency(store, nil))
	cmd := fakeCommand{key: "test.cmd", idKey: "idem-1"}

	res, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, "first", res.(*fakeResult).Value)

	inner.result = &fakeResult{Value: "second"}
	res, err = bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "first", res.(*fakeResult).Value)
	assert.Equal(t, 1, inner.calls)
}

func TestIdempotencyCachesFailures(t *testing.T) {
	store := newFakeStore()
	inner := &countingBus{err: errors.New("boom")}
	bus := ChainCommands(inner, Idempotency(store, nil))
	cmd := fakeCommand{key: "test.cmd", idKey: "idem-2"}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "boom")

	inner.err = nil
	inner.result = &fakeResult{Value: "late"}
	_, err = bus.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "boom")
	assert.Equal(t, 1, inner.calls)
}

func TestIdempotencySkipsCommandsWithoutKey(t *testing.T) {
	store := newFakeStore()
	inner := &countingBus{result: &fakeResult{Value: "v"}}
	bus := ChainCommands(inner, Idempotency(store, nil))
	cmd := fakeCommand{key: "test.cmd"}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Empty(t, store.items)
}

type rejectAll struct{ err error }

func (v rejectAll) Validate(ctx context.Context, message any) error { return v.err }

func TestValidationStopsDispatch(t *testing.T) {
	inner := &countingBus{}
	wantErr := errors.New("invalid")
	bus := ChainCommands(inner, Validation(rejectAll{err: wantErr}))

	_, err := bus.Dispatch(context.Background(), fakeCommand{key: "test.cmd"})
	require.ErrorIs(t, err, wantErr)
	assert.Zero(t, inner.calls)
}

type recordingOutbox struct {
	added   int
	flushed int
}

func (o *recordingOutbox) Add(ctx context.Context, record outbox.EventRecord) error {
	o.added++
	return nil
}

func (o *recordingOutbox) Flush(ctx context.Context) error {
	o.flushed++
	return nil
}

func TestOutboxFlushRunsAfterSuccess(t *testing.T) {
	box := &recordingOutbox{}
	inner := &countingBus{result: &fakeResult{Value: "ok"}}
	bus := ChainCommands(inner, OutboxFlush(box))

	_, err := bus.Dispatch(context.Background(), fakeCommand{key: "test.cmd"})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushed)
}

func TestOutboxFlushSkippedOnFailure(t *testing.T) {
	box := &recordingOutbox{}
	inner := &countingBus{err: errors.New("boom")}
	bus := ChainCommands(inner, OutboxFlush(box))

	_, err := bus.Dispatch(context.Background(), fakeCommand{key: "test.cmd"})
	require.Error(t, err)
	assert.Zero(t, box.flushed)
}
