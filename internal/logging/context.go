package logging

import (
	"context"
	"log/slog"

	"danmux/internal/services"
)

// WithContext returns a logger enriched with item and workflow annotations
// carried by ctx. A nil logger yields a no-op logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if id, ok := services.ItemIDFromContext(ctx); ok {
		logger = logger.With(String("item_id", id))
	}
	if name, ok := services.WorkflowFromContext(ctx); ok {
		logger = logger.With(String("workflow", name))
	}
	return logger
}
