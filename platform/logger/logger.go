// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// VisitorIDKey is the context key for visitor ID
	VisitorIDKey contextKey = "visitor_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and visitor_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if visitorID, ok := ctx.Value(VisitorIDKey).(string); ok && visitorID != "" {
		newLogger = newLogger.WithVisitorID(visitorID)
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithVisitorID returns a logger with visitor ID
func (l *Logger) WithVisitorID(visitorID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("visitor_id", visitorID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RelayOutcome logs the result of a webhook relay attempt.
func (l *Logger) RelayOutcome(target string, status int, failed bool, message string) {
	if failed {
		l.Warn("relay_outcome",
			slog.String("target", target),
			slog.Int("status", status),
			slog.Bool("failed", failed),
			slog.String("message", message),
		)
		return
	}
	l.Info("relay_outcome",
		slog.String("target", target),
		slog.Int("status", status),
		slog.Bool("failed", failed),
	)
}

// EmailEvent logs email delivery attempts
func (l *Logger) EmailEvent(kind, toEmail string, success bool, reason string) {
	if success {
		l.Info("email_event",
			slog.String("kind", kind),
			slog.String("email", toEmail),
			slog.Bool("success", success),
		)
	} else {
		l.Warn("email_event",
			slog.String("kind", kind),
			slog.String("email", toEmail),
			slog.Bool("success", success),
			slog.String("reason", reason),
		)
	}
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
