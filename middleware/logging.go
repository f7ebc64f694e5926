// Package middleware provides client-side interceptors for restroutes clients.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/broady/restroutes"
)

// LoggingInterceptor creates an interceptor that logs requests using slog.
// It logs the start and end of each call, including duration and status.
func LoggingInterceptor(logger *slog.Logger) restroutes.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(req *http.Request, next restroutes.Invoker) (*http.Response, error) {
		ctx := req.Context()
		start := time.Now()
		route := req.Method + " " + req.URL.Path

		logger.InfoContext(ctx, "request started",
			slog.String("route", route),
		)

		resp, err := next(req)
		duration := time.Since(start)

		switch {
		case err != nil:
			logger.ErrorContext(ctx, "request failed",
				slog.String("route", route),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		case resp.StatusCode >= 400:
			logger.WarnContext(ctx, "request completed",
				slog.String("route", route),
				slog.Duration("duration", duration),
				slog.Int("status", resp.StatusCode),
			)
		default:
			logger.InfoContext(ctx, "request completed",
				slog.String("route", route),
				slog.Duration("duration", duration),
				slog.Int("status", resp.StatusCode),
			)
		}

		return resp, err
	}
}
