package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging across classdb.
const (
	// Identity and context
	FieldJobID     = "job_id"
	FieldRequestID = "request_id"
	FieldComponent = "component"

	// Classification domain
	FieldItem       = "item"
	FieldClassifier = "classifier"
	FieldCriterion  = "criterion"
	FieldPrediction = "prediction"
	FieldScore      = "score"
	FieldEndpoints  = "endpoints"

	// Operations
	FieldMethod = "method"
	FieldPath   = "path"
	FieldQuery  = "query"
	FieldParams = "params"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount   = "count"
	FieldErrors  = "errors"
	FieldIndexed = "indexed"

	// Files and network
	FieldFile    = "file"
	FieldAddress = "address"
	FieldURL     = "url"
)

type contextKey string

const (
	jobIDKey     contextKey = "logger_job_id"
	requestIDKey contextKey = "logger_request_id"
)

// WithJobID adds an indexing job ID to the context for logging
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// WithRequestID adds an HTTP request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// FieldsFromContext extracts logging fields from context as key-value pairs.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if jobID, ok := ctx.Value(jobIDKey).(string); ok && jobID != "" {
		fields = append(fields, FieldJobID, jobID)
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}

	return fields
}

// FromContext returns base enriched with the fields carried by ctx.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
//
//	type Store struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func New(db *sql.DB) *Store {
//	    return &Store{logger: logger.ComponentLogger("store")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
