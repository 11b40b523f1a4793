package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Init installs global providers, so these tests do not run in parallel.

func TestInit_InstallsProviders(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := Init(context.Background(), Config{
		ServiceName:   "index-submitter-test",
		SampleRatio:   1,
		ExportMetrics: true,
		Registerer:    reg,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Shutdown(context.Background())) })

	require.NotNil(t, p.TracerProvider)
	require.NotNil(t, p.MeterProvider)
	assert.Same(t, p.TracerProvider, otel.GetTracerProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "check")
	assert.True(t, span.SpanContext().IsSampled())
	span.End()
}

func TestInit_WithoutMetrics(t *testing.T) {
	p, err := Init(context.Background(), Config{ServiceName: "svc", SampleRatio: 0})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Shutdown(context.Background())) })

	assert.Nil(t, p.MeterProvider)
	_, span := otel.Tracer("test").Start(context.Background(), "check")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()
}

func TestShutdown_NilProviders(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestTransportAndHandler_PropagateTrace(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	_, err := Init(context.Background(), Config{ServiceName: "svc", SampleRatio: 1})
	require.NoError(t, err)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	traceparent := make(chan string, 1)
	srv := httptest.NewServer(Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent <- r.Header.Get("traceparent")
		w.WriteHeader(http.StatusNoContent)
	}), "upstream"))
	defer srv.Close()

	client := &http.Client{Transport: Transport(nil)}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.NotEmpty(t, <-traceparent)
	assert.GreaterOrEqual(t, len(recorder.Ended()), 2)
}
