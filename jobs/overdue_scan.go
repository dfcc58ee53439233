package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// OverdueScanner marks sent invoices past their due date as overdue.
type OverdueScanner interface {
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error)
}

// NewOverdueScanHandler builds the handler for TaskTypeOverdueScan.
func NewOverdueScanHandler(scanner OverdueScanner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OverdueScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		asOf := payload.AsOf
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}
		n, err := scanner.MarkOverdueInvoices(ctx, asOf)
		if err != nil {
			logger.Error("overdue scan failed", slog.Any("error", err))
			return err
		}
		logger.Info("overdue scan complete", slog.Int64("marked", n), slog.Time("as_of", asOf))
		return nil
	}
}
