package debug

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/getsentry/sentry-go"
)

// Fields are structured attributes attached to warnings and errors
type Fields map[string]any

func (f Fields) attrs() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}

// InitSentry configures error reporting. An empty DSN leaves reporting off
// and returns a no-op flush.
func InitSentry(dsn, environment, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return func() {}, fmt.Errorf("sentry init: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// Warn logs a warning and leaves a breadcrumb for the next reported error
func Warn(category, msg string, fields Fields) {
	emit(slog.LevelWarn, category, msg, fields.attrs()...)
	Breadcrumb(category, msg, fields)
}

// Error logs err and reports it to Sentry when a client is configured
func Error(category string, err error, fields Fields) {
	emit(slog.LevelError, category, err.Error(), fields.attrs()...)

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("category", category)
		for key, value := range fields {
			scope.SetContext(key, map[string]any{"value": value})
		}
		hub.CaptureException(err)
	})
}

// Breadcrumb records a trail entry (state transitions, dispatches)
func Breadcrumb(category, msg string, fields Fields) {
	if hub := sentry.CurrentHub(); hub.Client() == nil {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:     "default",
		Category: category,
		Message:  msg,
		Data:     map[string]any(fields),
		Level:    sentry.LevelInfo,
	})
}
