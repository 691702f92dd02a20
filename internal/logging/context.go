package logging

import (
	"context"
	"log/slog"

	"curator/internal/services"
)

// WithContext returns the logger tagged with the item, phase, and request
// identifiers carried by ctx, when present.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if id, ok := services.ItemIDFromContext(ctx); ok {
		logger = logger.With(String(FieldItemID, id))
	}
	if phase, ok := services.PhaseFromContext(ctx); ok {
		logger = logger.With(String(FieldPhase, phase))
	}
	if reqID, ok := services.RequestIDFromContext(ctx); ok {
		logger = logger.With(String(FieldRequestID, reqID))
	}
	return logger
}
