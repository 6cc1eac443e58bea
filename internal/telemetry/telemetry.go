// Package telemetry reports render runs to Sentry: one transaction per run,
// one span per pipeline stage, and captured exceptions for hard errors.
// With no DSN configured nothing leaves the process.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config configures the Sentry client.
type Config struct {
	DSN         string  `json:"dsn"`
	Environment string  `json:"environment"`
	Release     string  `json:"release"`
	SampleRate  float64 `json:"sample_rate"`
}

// Init installs the global Sentry client. It reports false, and does
// nothing, when cfg has no DSN.
func Init(cfg Config) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}
	rate := cfg.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    true,
		TracesSampleRate: rate,
	})
	if err != nil {
		return false, fmt.Errorf("sentry init: %w", err)
	}
	return true, nil
}

// Flush waits up to timeout for buffered events to be sent.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// Run is the transaction of one render.
type Run struct {
	ctx context.Context
	tx  *sentry.Span
}

// StartRun opens a transaction for rendering file to format. The returned
// context carries the transaction so stages nest under it.
func StartRun(ctx context.Context, file, format string) (context.Context, *Run) {
	tx := sentry.StartTransaction(ctx, "cleanchart.render")
	tx.SetTag("file", file)
	tx.SetTag("format", format)
	return tx.Context(), &Run{ctx: tx.Context(), tx: tx}
}

// Stage opens a span for one pipeline stage. Call the returned function
// when the stage ends.
func (r *Run) Stage(name string) func() {
	span := sentry.StartSpan(r.ctx, "pipeline."+name)
	span.Description = name
	return span.Finish
}

// SetTag tags the transaction.
func (r *Run) SetTag(key, value string) {
	r.tx.SetTag(key, value)
}

// Fail marks the run failed and captures err.
func (r *Run) Fail(err error) {
	r.tx.SetTag("success", "false")
	r.tx.Status = sentry.SpanStatusInternalError
	hub := sentry.GetHubFromContext(r.ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// Finish closes the transaction.
func (r *Run) Finish() {
	if r.tx.Status == sentry.SpanStatusUndefined {
		r.tx.Status = sentry.SpanStatusOK
		r.tx.SetTag("success", "true")
	}
	r.tx.Finish()
}

// Transaction exposes the underlying span.
func (r *Run) Transaction() *sentry.Span { return r.tx }
