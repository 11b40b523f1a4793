// Package pubsub publishes audit records to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub"

	"github.com/JakeFAU/index-submitter/internal/audit"
)

// Sink publishes one message per record.
type Sink struct {
	topic *pubsub.Topic
}

// New creates a Sink for topic.
func New(topic *pubsub.Topic) *Sink {
	return &Sink{topic: topic}
}

// Record marshals rec to JSON and waits for the publish to be acknowledged.
func (s *Sink) Record(ctx context.Context, rec audit.Record) error {
	if s.topic == nil {
		return fmt.Errorf("pubsub topic is not configured")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"submission_id": rec.ID,
			"host":          rec.Host,
			"success":       strconv.FormatBool(rec.Success),
		},
	}
	if _, err := s.topic.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publish record: %w", err)
	}
	return nil
}

// Stop flushes pending publishes.
func (s *Sink) Stop() {
	if s.topic != nil {
		s.topic.Stop()
	}
}
