// Package gcs writes audit records as JSON objects to Google Cloud Storage.
package gcs

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/index-submitter/internal/audit"
)

const contentType = "application/json"

// Config captures the bucket and object prefix.
type Config struct {
	Bucket string
	Prefix string
}

// Sink writes one object per record under prefix/YYYY/MM/DD/<id>.json.
type Sink struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed sink.
func New(client *storage.Client, cfg Config) (*Sink, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Sink{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// ObjectName returns the object path used for rec.
func (s *Sink) ObjectName(rec audit.Record) string {
	day := rec.SubmittedAt.UTC().Format("2006/01/02")
	return path.Join(s.prefix, day, rec.ID+".json")
}

// Record uploads rec as a JSON object.
func (s *Sink) Record(ctx context.Context, rec audit.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	writer := s.client.Bucket(s.bucket).Object(s.ObjectName(rec)).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
