// Package audit records the outcome of each submission. Records never carry the
// service-account credential, access token or IndexNow key.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Record is the audit entry for one submission.
type Record struct {
	ID          string        `json:"id"`
	Host        string        `json:"host"`
	URLCount    int           `json:"url_count"`
	Success     bool          `json:"success"`
	IndexNowOK  bool          `json:"indexnow_ok"`
	Message     string        `json:"message"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Duration    time.Duration `json:"duration_ns"`
}

// Sink persists records.
type Sink interface {
	Record(ctx context.Context, rec Record) error
}

// NamedSink pairs a sink with a label used in error messages.
type NamedSink struct {
	Name string
	Sink Sink
}

// Multi fans a record out to every sink. All sinks are attempted; failures are joined.
type Multi struct {
	sinks []NamedSink
}

// NewMulti builds a Multi over sinks, skipping nil entries.
func NewMulti(sinks ...NamedSink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s.Sink != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len reports how many sinks are attached.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Record writes rec to every sink.
func (m *Multi) Record(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Sink.Record(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
