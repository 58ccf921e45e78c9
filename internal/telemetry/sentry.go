// Package telemetry provides Sentry-based tracing and error capture.
package telemetry

import (
	"context"
	"time"

	"github.com/cloo-solutions/molpanel/internal/logging"
	"github.com/getsentry/sentry-go"
)

const (
	serviceName = "molpanel"
)

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init initializes Sentry with tracing enabled.
// Returns a shutdown function to flush pending events.
// If DSN is empty, returns a no-op shutdown function.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0 // sample everything unless told otherwise
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
		// Health checks are noise; children inherit the root decision.
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			// Skip health checks and scrapes
			switch ctx.Span.Name {
			case "GET /health", "GET /metrics":
				return 0.0
			}
			// A child span follows its parent's sampling decision
			var emptySpanID sentry.SpanID
			if ctx.Span.ParentSpanID != emptySpanID {
				if ctx.Span.Sampled.Bool() {
					return 1.0
				}
				return 0.0
			}
			return cfg.TracesSampleRate
		}),
	})
	if err != nil {
		logging.Default().Warn("sentry: failed to initialize, continuing without tracing", logging.Err(err))
		return func() {}, nil
	}

	shutdown := func() {
		sentry.Flush(5 * time.Second)
	}

	logging.Default().Info("sentry: tracing initialized",
		logging.String("environment", cfg.Environment),
		logging.Float64("sample_rate", cfg.TracesSampleRate))
	return shutdown, nil
}

// SampleRateFor returns 100% sampling for development and 10% elsewhere.
func SampleRateFor(environment string) float64 {
	if environment == "" || environment == "development" {
		return 1.0
	}
	return 0.1
}

// SpanAttributes contains common attributes for service spans.
type SpanAttributes struct {
	PanelID   string
	Strategy  string
	Category  string
	Operation string
}

// Span wraps sentry.Span to provide a consistent interface.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span as errored and captures the exception.
func (s *Span) SetError(err error) {
	if s.inner != nil {
		s.inner.Status = sentry.SpanStatusInternalError
		if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
			hub.CaptureException(err)
		}
	}
}

// setAttributes copies the non-empty attributes onto span as tags.
func setAttributes(span *sentry.Span, attrs SpanAttributes) {
	if span == nil {
		return
	}

	if attrs.PanelID != "" {
		span.SetTag("panel_id", attrs.PanelID)
	}
	if attrs.Strategy != "" {
		span.SetTag("strategy", attrs.Strategy)
	}
	if attrs.Category != "" {
		span.SetTag("category", attrs.Category)
	}
	// Operation is free-form, so it goes to data rather than an indexed tag
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}
}

// StartSpan creates a child span when ctx already carries one and a new
// transaction otherwise. The returned context derives from ctx, so values
// the caller attached stay visible below the span.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var options []sentry.SpanOption
	// Only a root span names a transaction; sentry.StartSpan picks up the
	// parent from ctx on its own.
	if sentry.SpanFromContext(ctx) == nil {
		options = append(options, sentry.WithTransactionName(name))
	}

	span := sentry.StartSpan(ctx, name, options...)

	setAttributes(span, attrs)

	return span.Context(), &Span{inner: span}
}

// CaptureError captures an error to Sentry with the current context.
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
}

// AddBreadcrumb adds a breadcrumb to the current scope.
func AddBreadcrumb(ctx context.Context, category, message string) {
	breadcrumb := &sentry.Breadcrumb{
		Type:      "default",
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.AddBreadcrumb(breadcrumb, nil)
	} else {
		sentry.AddBreadcrumb(breadcrumb)
	}
}
