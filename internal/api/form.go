package api

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/index-submitter/internal/submission"
)

//go:embed templates/index.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type formView struct {
	Host          string
	Key           string
	URLs          string
	HasDefaultKey bool
	AuthRequired  bool
	Result        *submission.Result
}

func (s *Server) form(w http.ResponseWriter, _ *http.Request) {
	s.renderForm(w, http.StatusOK, formView{
		HasDefaultKey: s.defaultCredential != "",
		AuthRequired:  s.authRequired,
	})
}

// submitForm handles POST /submit. URLs come one per line; blank lines are ignored.
func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	view := formView{
		Host:          r.PostForm.Get("host"),
		Key:           r.PostForm.Get("key"),
		URLs:          r.PostForm.Get("urls"),
		HasDefaultKey: s.defaultCredential != "",
		AuthRequired:  s.authRequired,
	}
	if err := validateSubmission(view.Host, view.Key); err != nil {
		view.Result = &submission.Result{Message: err.Error()}
		s.renderForm(w, http.StatusBadRequest, view)
		return
	}
	if !s.admit(view.Host) {
		view.Result = &submission.Result{Message: "Too many submissions for this host, try again later"}
		s.renderForm(w, http.StatusTooManyRequests, view)
		return
	}

	res := s.submitter.Submit(r.Context(), submission.Request{
		Host:                 view.Host,
		IndexNowKey:          view.Key,
		URLList:              splitURLList(view.URLs),
		GoogleCredentialJSON: s.credential(r.PostForm.Get("credential")),
	})
	view.Result = &res
	s.renderForm(w, http.StatusOK, view)
}

func (s *Server) renderForm(w http.ResponseWriter, status int, view formView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTemplate.Execute(w, view); err != nil {
		s.logger.Error("render form failed", zap.Error(err))
	}
}

// splitURLList turns textarea input into a URL list: one per line, trimmed, blanks dropped.
func splitURLList(text string) []string {
	lines := strings.Split(text, "\n")
	urls := make([]string, 0, len(lines))
	for _, line := range lines {
		if u := strings.TrimSpace(line); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
