// Package audit provides a minimal, optional, injectable logging sink for
// covenant and identity lifecycle operations. It sits off the cryptographic
// hot path: nothing it does ever changes a build, verify, or evolve result.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes an audit event.
type EventType string

const (
	EventCovenantBuilt         EventType = "COVENANT_BUILT"
	EventCovenantVerified      EventType = "COVENANT_VERIFIED"
	EventCovenantCountersigned EventType = "COVENANT_COUNTERSIGNED"
	EventIdentityCreated       EventType = "IDENTITY_CREATED"
	EventIdentityEvolved       EventType = "IDENTITY_EVOLVED"
	EventIdentityVerified      EventType = "IDENTITY_VERIFIED"
)

// Event is a structured audit record.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Subject   string                 `json:"subject"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Logger records audit events. Record never returns an error to callers on
// the critical path; a Logger that fails to write simply drops the event.
type Logger interface {
	Record(ctx context.Context, eventType EventType, subject string, metadata map[string]interface{})
}

// logger writes structured JSON lines to an io.Writer.
type logger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLogger returns a Logger writing to os.Stdout.
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter returns a Logger writing to w, for injection in tests
// or custom sinks.
func NewLoggerWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &logger{writer: w}
}

func (l *logger) Record(_ context.Context, eventType EventType, subject string, metadata map[string]interface{}) {
	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}

	encoded, err := json.Marshal(event)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(append([]byte("AUDIT: "), append(encoded, '\n')...))
}

// NopLogger discards every event. It is the default when no Logger is
// configured, so callers never need a nil check.
type NopLogger struct{}

func (NopLogger) Record(context.Context, EventType, string, map[string]interface{}) {}
