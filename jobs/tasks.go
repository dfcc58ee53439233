package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeOverdueScan flips sent invoices past their due date to overdue.
	TaskTypeOverdueScan = "invoices:overdue_scan"
	// TaskTypeSendInvoice renders and emails one invoice in the background.
	TaskTypeSendInvoice = "invoices:send"
)

// OverdueScanPayload carries the cutoff for the overdue scan. A zero AsOf
// means "now" at processing time.
type OverdueScanPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewOverdueScanTask constructs an Asynq task.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOverdueScan, data), nil
}

// SendInvoicePayload identifies one invoice to deliver.
type SendInvoicePayload struct {
	UserID    int64 `json:"user_id"`
	InvoiceID int64 `json:"invoice_id"`
}

// NewSendInvoiceTask constructs an Asynq task.
func NewSendInvoiceTask(payload SendInvoicePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendInvoice, data), nil
}
