package submission

import (
	"context"
	"time"

	"github.com/JakeFAU/index-submitter/internal/audit"
	"github.com/JakeFAU/index-submitter/internal/googleauth"
	"github.com/JakeFAU/index-submitter/internal/indexnow"
)

// TokenProvider exchanges a service-account credential for a bearer token.
type TokenProvider interface {
	AccessToken(ctx context.Context, cred googleauth.Credential, scope string) (string, error)
}

// IndexNowSubmitter posts a payload to IndexNow.
type IndexNowSubmitter interface {
	Submit(ctx context.Context, payload indexnow.Payload) error
}

// BatchPublisher posts URL_UPDATED notifications to the Indexing API.
type BatchPublisher interface {
	Publish(ctx context.Context, token string, urls []string) error
}

// Recorder stores the outcome of a submission.
type Recorder interface {
	Record(ctx context.Context, rec audit.Record) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator creates submission identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
