package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/index-submitter/internal/audit"
	"github.com/JakeFAU/index-submitter/internal/googleauth"
	"github.com/JakeFAU/index-submitter/internal/googleindex"
	"github.com/JakeFAU/index-submitter/internal/indexnow"
	"github.com/JakeFAU/index-submitter/internal/metrics"
)

const (
	defaultStepTimeout = 30 * time.Second
	recordTimeout      = 5 * time.Second
	tracerName         = "github.com/JakeFAU/index-submitter/internal/submission"
)

// Config tunes a Service.
type Config struct {
	// Scope is the OAuth2 scope requested for the token. Defaults to the indexing scope.
	Scope string
	// StepTimeout bounds each outbound call. Defaults to 30s.
	StepTimeout time.Duration
	// Tracer defaults to the global provider's tracer.
	Tracer trace.Tracer
}

// Service runs submissions. It holds no per-submission state and is safe for
// concurrent use.
type Service struct {
	tokens   TokenProvider
	indexNow IndexNowSubmitter
	batch    BatchPublisher
	recorder Recorder
	clock    Clock
	ids      IDGenerator
	cfg      Config
	logger   *zap.Logger
}

// NewService wires a Service. recorder, clock and ids may be nil.
func NewService(
	tokens TokenProvider,
	indexNow IndexNowSubmitter,
	batch BatchPublisher,
	recorder Recorder,
	clock Clock,
	ids IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.Scope == "" {
		cfg.Scope = googleauth.IndexingScope
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tokens:   tokens,
		indexNow: indexNow,
		batch:    batch,
		recorder: recorder,
		clock:    clock,
		ids:      ids,
		cfg:      cfg,
		logger:   logger,
	}
}

// outcome carries what the audit trail needs beyond the Result.
type outcome struct {
	result     Result
	indexNowOK bool
}

// Submit runs one submission end to end. It never returns an error and never panics;
// every failure is reported through Result.
func (s *Service) Submit(ctx context.Context, req Request) (res Result) {
	started := s.now()
	id := s.newID()
	logger := s.logger.With(zap.String("submission_id", id), zap.String("host", req.Host))
	ctx, span := s.cfg.Tracer.Start(ctx, "submission.Submit", trace.WithAttributes(
		attribute.String("submission.id", id),
		attribute.String("submission.host", ParseSite(req.Host).Host),
		attribute.Int("submission.url_count", len(req.URLList)),
	))
	var out outcome

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("submission panicked", zap.Any("panic", rec), zap.Stack("stack"))
			out = outcome{result: Result{Success: false, Message: InternalErrorMessage}}
		}
		out.result.ID = id
		res = out.result
		span.SetAttributes(
			attribute.Bool("submission.success", res.Success),
			attribute.Bool("submission.indexnow_ok", out.indexNowOK),
		)
		if !res.Success {
			span.SetStatus(codes.Error, res.Message)
		}
		span.End()
		metrics.ObserveSubmission(res.Success, len(req.URLList))
		s.record(ctx, logger, req, out, started)
	}()

	out = s.run(ctx, logger, req)
	return out.result
}

func (s *Service) run(ctx context.Context, logger *zap.Logger, req Request) outcome {
	site := ParseSite(req.Host)
	urls := NormalizeURLs(site, req.URLList)

	cred, err := googleauth.ParseCredential(req.GoogleCredentialJSON)
	if err != nil {
		logger.Warn("credential rejected", zap.Error(err))
		return outcome{result: Result{Message: credentialErrorPrefix + err.Error()}}
	}

	token, err := s.accessToken(ctx, cred)
	if err != nil {
		logger.Error("failed to obtain google access token", zap.Error(err))
		return outcome{result: Result{Message: tokenErrorPrefix + err.Error()}}
	}
	logger.Info("google access token obtained")

	indexNowMsg, indexNowOK := s.submitIndexNow(ctx, req, site, urls)
	if !indexNowOK {
		logger.Warn("indexnow step failed; continuing with batch", zap.String("message", indexNowMsg))
	}

	batchErr := s.publishBatch(ctx, token, urls)
	if batchErr != nil {
		logger.Error("batch request failed", zap.Error(batchErr))
	}
	return outcome{result: aggregate(indexNowMsg, batchErr), indexNowOK: indexNowOK}
}

func (s *Service) accessToken(ctx context.Context, cred googleauth.Credential) (_ string, err error) {
	stepCtx, cancel := s.step(ctx, "googleauth.AccessToken")
	defer func() { cancel(err) }()
	token, err := s.tokens.AccessToken(stepCtx, cred, s.cfg.Scope)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("%w: empty access token", googleauth.ErrAuthentication)
	}
	return token, nil
}

// submitIndexNow always yields a message; the bool reports success.
func (s *Service) submitIndexNow(ctx context.Context, req Request, site Site, urls []string) (string, bool) {
	stepCtx, cancel := s.step(ctx, "indexnow.Submit")
	err := s.indexNow.Submit(stepCtx, indexnow.Payload{
		Host:        site.Host,
		Key:         req.IndexNowKey,
		KeyLocation: site.KeyLocation(req.IndexNowKey),
		URLList:     urls,
	})
	cancel(err)
	if err == nil {
		return IndexNowSuccessMessage, true
	}
	var apiErr *indexnow.Error
	if errors.As(err, &apiErr) {
		return indexNowErrorPrefix + apiErr.Message, false
	}
	return indexNowErrorPrefix + err.Error(), false
}

func (s *Service) publishBatch(ctx context.Context, token string, urls []string) error {
	stepCtx, cancel := s.step(ctx, "googleindex.Publish")
	err := s.batch.Publish(stepCtx, token, urls)
	cancel(err)
	return err
}

// step starts a child span bounded by the step timeout. The returned func ends both and
// records err on the span.
func (s *Service) step(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := s.cfg.Tracer.Start(ctx, name)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	return ctx, func(err error) {
		cancel()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// aggregate folds the IndexNow message and the batch outcome into one Result. A batch
// failure discards the IndexNow message.
func aggregate(indexNowMsg string, batchErr error) Result {
	if batchErr != nil {
		var be *googleindex.BatchError
		if errors.As(batchErr, &be) {
			return Result{Success: false, Message: batchErrorPrefix + be.Body}
		}
		return Result{Success: false, Message: batchErrorPrefix + batchErr.Error()}
	}
	return Result{Success: true, Message: indexNowMsg + " and " + GoogleSuccessMessage}
}

func (s *Service) record(ctx context.Context, logger *zap.Logger, req Request, out outcome, started time.Time) {
	if s.recorder == nil {
		return
	}
	rec := audit.Record{
		ID:          out.result.ID,
		Host:        ParseSite(req.Host).Host,
		URLCount:    len(req.URLList),
		Success:     out.result.Success,
		IndexNowOK:  out.indexNowOK,
		Message:     out.result.Message,
		SubmittedAt: started,
		Duration:    s.now().Sub(started),
	}
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.recorder.Record(recCtx, rec); err != nil {
		logger.Warn("record submission failed", zap.Error(err))
	}
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}

func (s *Service) newID() string {
	if s.ids == nil {
		return ""
	}
	id, err := s.ids.NewID()
	if err != nil {
		s.logger.Warn("generate submission id failed", zap.Error(err))
		return ""
	}
	return id
}
