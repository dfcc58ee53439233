package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

type scannerStub struct {
	marked int64
	gotAs  time.Time
	err    error
}

func (s *scannerStub) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	s.gotAs = asOf
	return s.marked, s.err
}

func TestOverdueScanHandlerUsesPayloadCutoff(t *testing.T) {
	scanner := &scannerStub{marked: 3}
	handler := NewOverdueScanHandler(scanner, slog.Default())

	asOf := time.Date(2026, 9, 1, 1, 0, 0, 0, time.UTC)
	task, err := NewOverdueScanTask(OverdueScanPayload{AsOf: asOf})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.True(t, scanner.gotAs.Equal(asOf))
}

func TestOverdueScanHandlerDefaultsToNow(t *testing.T) {
	scanner := &scannerStub{}
	handler := NewOverdueScanHandler(scanner, slog.Default())

	task, err := NewOverdueScanTask(OverdueScanPayload{})
	require.NoError(t, err)

	before := time.Now().UTC()
	require.NoError(t, handler(context.Background(), task))
	require.False(t, scanner.gotAs.Before(before))
}

func TestOverdueScanHandlerPropagatesError(t *testing.T) {
	scanner := &scannerStub{err: errors.New("db down")}
	handler := NewOverdueScanHandler(scanner, slog.Default())

	task, err := NewOverdueScanTask(OverdueScanPayload{})
	require.NoError(t, err)
	require.Error(t, handler(context.Background(), task))
}

func TestOverdueScanHandlerSkipsMalformedPayload(t *testing.T) {
	handler := NewOverdueScanHandler(&scannerStub{}, slog.Default())

	task := asynq.NewTask(TaskTypeOverdueScan, []byte("{not json"))
	err := handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type senderStub struct {
	err   error
	calls int
}

func (s *senderStub) SendByID(ctx context.Context, userID, invoiceID int64) error {
	s.calls++
	return s.err
}

func TestSendInvoiceHandlerRetriesUpstreamFailure(t *testing.T) {
	sender := &senderStub{err: errors.New("smtp down")}
	handler := NewSendInvoiceHandler(sender, slog.Default())

	task, err := NewSendInvoiceTask(SendInvoicePayload{UserID: 1, InvoiceID: 7})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSendInvoiceHandlerDropsVanishedInvoice(t *testing.T) {
	sender := &senderStub{err: httpx.ErrNotFound}
	handler := NewSendInvoiceHandler(sender, slog.Default())

	task, err := NewSendInvoiceTask(SendInvoicePayload{UserID: 1, InvoiceID: 7})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
