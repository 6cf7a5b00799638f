// Package logging provides the pipeline's structured logger. It wraps zap
// the way the teacher wraps its own Logger interface around a chat call
// path (ai/providers/middlewares/logger): every stage logs through the same
// sink, carrying the request's trace id as a structured field.
package logging

import (
	"go.uber.org/zap"
)

// New builds a production zap logger. Development builds can swap this for
// zap.NewDevelopment without touching any call site, since every caller only
// depends on *zap.Logger.
func New() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewNop returns a logger that discards everything, used by tests and by
// callers that have not wired a sink yet.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// WithTrace returns a child logger carrying the request's trace id, the
// field every audited stage log line and AuditEvent share.
func WithTrace(l *zap.Logger, traceID string) *zap.Logger {
	return l.With(zap.String("trace_id", traceID))
}
