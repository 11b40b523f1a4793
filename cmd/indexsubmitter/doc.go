// Package main hosts the index submitter entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server serves the HTML form, the JSON submission endpoint, recent submission
//     history, health checks, and Prometheus metrics. Requests are throttled per host before they reach
//     the submission service.
//   - Submission pipeline: internal/submission.Service normalizes root-relative URLs against the host,
//     exchanges the service-account credential for an OAuth2 token, notifies IndexNow, and publishes a
//     multipart batch of URL_UPDATED notifications to the Google Indexing API. IndexNow failures are
//     reported in the message; credential, token and batch failures fail the submission.
//   - Audit trail: every outcome is recorded in an in-memory ring buffer and, when configured, written to
//     GCS, published to Pub/Sub, and inserted into Postgres. Records never carry credentials or keys.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging;
//     Prometheus counters/histograms cover HTTP traffic, submissions, and each upstream call.
//
// Operational notes:
//   - Each upstream call runs under http.timeout_seconds. Tokens are never cached; every submission
//     authenticates afresh.
//   - Cloud Run: the HTTP server listens on the configured port (overridable via PORT) and drains on SIGTERM.
//
// Quick checklist:
//   - Configure env vars: INDEXSUBMITTER_SERVER_PORT or PORT, INDEXSUBMITTER_HTTP_TIMEOUT_SECONDS,
//     INDEXSUBMITTER_GOOGLE_CREDENTIALS_FILE for a server-side credential, INDEXSUBMITTER_AUTH_ENABLED and
//     INDEXSUBMITTER_AUTH_API_KEY to protect /v1, and INDEXSUBMITTER_AUDIT_* for durable audit sinks.
//   - Run locally: go run ./cmd/indexsubmitter -config config.yaml (or rely solely on env overrides).
package main
