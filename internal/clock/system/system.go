// Package system supplies the wall clock the submission service reads once per run. That
// reading becomes submitted_at on the audit record and in /v1/submissions history.
package system

import "time"

// Clock stamps submissions in UTC at microsecond precision, the resolution Postgres
// timestamptz stores, so a record read back compares equal to the one written.
type Clock struct{}

// New returns a Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the submission timestamp for the current instant.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
