package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/index-submitter/internal/audit"
	"github.com/JakeFAU/index-submitter/internal/submission"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	maxRequestBytes     = 1 << 20
)

type submissionRequest struct {
	Host                 string   `json:"host"`
	Key                  string   `json:"key"`
	URLList              []string `json:"urlList"`
	GoogleCredentialJSON string   `json:"googleCredentialJson"`
}

// createSubmission handles POST /v1/submissions. It answers 200 with the result when the
// submission succeeded, 502 when an upstream step failed, 400 for a malformed body and 429
// when the host is throttled.
func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	var body submissionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateSubmission(body.Host, body.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.admit(body.Host) {
		writeError(w, http.StatusTooManyRequests, "too many submissions for host")
		return
	}

	res := s.submitter.Submit(r.Context(), submission.Request{
		Host:                 body.Host,
		IndexNowKey:          body.Key,
		URLList:              body.URLList,
		GoogleCredentialJSON: s.credential(body.GoogleCredentialJSON),
	})
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
		s.logger.Warn("submission failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("submission_id", res.ID),
			zap.String("message", res.Message),
		)
	}
	writeJSON(w, status, res)
}

// listSubmissions handles GET /v1/submissions?limit=. It returns {"submissions": [...]}.
func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records := []audit.Record{}
	if s.history != nil {
		if recent := s.history.Recent(limit); recent != nil {
			records = recent
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": records})
}

func validateSubmission(host, key string) error {
	if strings.TrimSpace(host) == "" {
		return errors.New("host is required")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("key is required")
	}
	return nil
}

func parseLimit(r *http.Request, def, maxLimit int) (int, error) {
	limStr := r.URL.Query().Get("limit")
	if limStr == "" {
		return def, nil
	}
	val, err := strconv.Atoi(limStr)
	if err != nil || val <= 0 {
		return 0, errors.New("invalid limit")
	}
	if val > maxLimit {
		val = maxLimit
	}
	return val, nil
}
