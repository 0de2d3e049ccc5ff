package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Operation names.
const (
	OpHash   = "hash"
	OpVerify = "verify"
	OpDerive = "derive"
)

// Params are the cost parameters of the operation. They are never secret.
type Params struct {
	Ops    uint64 `json:"ops,omitempty"`
	MemKiB uint64 `json:"mem_kib,omitempty"`
	Lanes  uint8  `json:"lanes,omitempty"`
	OutLen uint64 `json:"out_len,omitempty"`
}

// Event is one diagnostic record. It carries no password, salt, digest or key.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Operation string            `json:"operation"`
	Outcome   string            `json:"outcome"`
	Success   bool              `json:"success"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Duration  time.Duration     `json:"duration_ns"`
	Params    Params            `json:"params"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent stamps an event with a fresh ID and the current time.
func NewEvent(operation, outcome string, success bool) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Operation: operation,
		Outcome:   outcome,
		Success:   success,
	}
}

// Sink consumes events from the dispatcher's worker goroutine.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a buffered channel, for tests and for
// callers that want to consume events themselves.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a sink whose channel holds up to buffer events
// (at least one).
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, max(buffer, 1))}
}

// Emit waits for the reader or for ctx.
func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events is the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes each event as one JSON line. Encoding errors drop the
// event.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}
