package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

// InvoiceSender delivers one invoice to its recipient.
type InvoiceSender interface {
	SendByID(ctx context.Context, userID, invoiceID int64) error
}

// NewSendInvoiceHandler builds the handler for TaskTypeSendInvoice. Upstream
// failures are retried; invoices that vanished or are no longer drafts are
// dropped.
func NewSendInvoiceHandler(sender InvoiceSender, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendInvoicePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		err := sender.SendByID(ctx, payload.UserID, payload.InvoiceID)
		if err == nil {
			return nil
		}
		if errors.Is(err, httpx.ErrNotFound) || errors.Is(err, httpx.ErrValidation) {
			logger.Warn("send invoice task dropped",
				slog.Int64("invoice_id", payload.InvoiceID), slog.Any("error", err))
			return asynq.SkipRetry
		}
		logger.Error("send invoice task failed",
			slog.Int64("invoice_id", payload.InvoiceID), slog.Any("error", err))
		return err
	}
}
