// Package api hosts the HTTP server, middleware, and handlers for submitting URLs.
// Notable routes:
//   - GET / and POST /submit for the HTML form.
//   - POST /v1/submissions for JSON clients.
//   - GET /v1/submissions for the most recent submission outcomes.
//   - GET /healthz / readyz for health checks.
//   - GET /metrics for Prometheus scraping.
package api
