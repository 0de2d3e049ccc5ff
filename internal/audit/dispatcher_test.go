package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	assert.Nil(t, d)

	d.Emit(context.Background(), NewEvent(OpHash, "ok", true))
	d.Close()
	assert.Zero(t, d.Dropped())
}

func TestDispatcherDeliversAndFlushesOnClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), NewEvent(OpVerify, "match", true))
	}
	d.Close()

	assert.Equal(t, int64(50), sink.count.Load())
	assert.Equal(t, uint64(50), d.Delivered())

	d.Emit(context.Background(), NewEvent(OpVerify, "match", true))
	assert.Equal(t, int64(50), sink.count.Load(), "emit after close must be ignored")
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), NewEvent(OpHash, "ok", true))
	}

	assert.Eventually(t, func() bool { return d.Dropped() >= 8 }, time.Second, 5*time.Millisecond)

	close(sink.gate)
	d.Close()
}

func TestDispatcherBlockingRespectsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	// One event parks in the sink, one fills the buffer.
	d.Emit(context.Background(), NewEvent(OpDerive, "ok", true))
	d.Emit(context.Background(), NewEvent(OpDerive, "ok", true))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	d.Emit(ctx, NewEvent(OpDerive, "ok", true))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Zero(t, d.Dropped())

	close(sink.gate)
	d.Close()
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	event := NewEvent(OpVerify, "malformed", false)
	event.ErrorKind = "invalid_encoding"
	event.Params = Params{Ops: 2, MemKiB: 65536, Lanes: 1}
	sink.Emit(context.Background(), event)

	line := buf.Bytes()
	require.True(t, bytes.HasSuffix(line, []byte("\n")))

	var decoded Event
	require.NoError(t, json.Unmarshal(line, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "invalid_encoding", decoded.ErrorKind)
	assert.Equal(t, uint64(65536), decoded.Params.MemKiB)

	_, err := uuid.Parse(decoded.ID)
	assert.NoError(t, err)
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(0)
	sink.Emit(context.Background(), NewEvent(OpHash, "ok", true))

	select {
	case event := <-sink.Events():
		assert.Equal(t, OpHash, event.Operation)
	default:
		t.Fatal("expected buffered event")
	}
}
