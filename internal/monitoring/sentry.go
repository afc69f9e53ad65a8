package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry configures the global hub. An empty dsn leaves Sentry disabled.
// The returned func flushes buffered events and should run on shutdown.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          "fna-term@" + release,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError reports err with extra context on the request's hub, falling
// back to the current hub outside a request.
func CaptureError(ctx context.Context, err error, extras map[string]any) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}
