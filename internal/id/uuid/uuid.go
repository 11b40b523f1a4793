// Package uuid mints submission IDs. Every submission gets one before any outbound call.
// The ID is returned to callers as submission_id, tags each log line of the run, names the
// audit object in GCS, and keys the audit row in Postgres and the Pub/Sub attributes.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// SubmissionIDs issues UUIDv7 strings. Version 7 leads with a millisecond timestamp, so
// IDs minted later sort later in audit listings and GCS object names.
type SubmissionIDs struct{}

// New returns a SubmissionIDs.
func New() *SubmissionIDs {
	return &SubmissionIDs{}
}

// NewID returns the next submission ID.
func (SubmissionIDs) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("mint submission id: %w", err)
	}
	return id.String(), nil
}
