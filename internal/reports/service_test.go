package reports

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

type stubRepo struct {
	revenue     []MonthlyRevenue
	outstanding []OutstandingByClient
	summary     []StatusSummary
	err         error
}

func (s *stubRepo) MonthlyRevenue(ctx context.Context, userID int64, from, to time.Time) ([]MonthlyRevenue, error) {
	return s.revenue, s.err
}

func (s *stubRepo) OutstandingByClient(ctx context.Context, userID int64) ([]OutstandingByClient, error) {
	return s.outstanding, s.err
}

func (s *stubRepo) StatusSummary(ctx context.Context, userID int64) ([]StatusSummary, error) {
	return s.summary, s.err
}

func TestDashboardGathersAllViews(t *testing.T) {
	month := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		revenue: []MonthlyRevenue{
			{Month: month, Revenue: decimal.RequireFromString("14300"), Count: 2},
		},
		outstanding: []OutstandingByClient{
			{ClientName: "Acme", Outstanding: decimal.RequireFromString("5000"), Count: 1},
		},
		summary: []StatusSummary{
			{Status: "draft", Count: 3, Total: decimal.RequireFromString("900")},
		},
	}
	svc := NewService(repo, slog.Default())

	dash, err := svc.Dashboard(context.Background(), 1, month, month.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.Len(t, dash.MonthlyRevenue, 1)
	require.Len(t, dash.Outstanding, 1)
	require.Len(t, dash.StatusSummary, 1)
	require.True(t, dash.MonthlyRevenue[0].Revenue.Equal(decimal.RequireFromString("14300")))
}

func TestDashboardEmptyResultsAreNotNil(t *testing.T) {
	svc := NewService(&stubRepo{}, slog.Default())

	now := time.Now().UTC()
	dash, err := svc.Dashboard(context.Background(), 1, now.AddDate(-1, 0, 0), now)
	require.NoError(t, err)
	require.NotNil(t, dash.MonthlyRevenue)
	require.NotNil(t, dash.Outstanding)
	require.NotNil(t, dash.StatusSummary)
	require.Empty(t, dash.MonthlyRevenue)
}

func TestDashboardPropagatesQueryError(t *testing.T) {
	svc := NewService(&stubRepo{err: errors.New("connection reset")}, slog.Default())

	now := time.Now().UTC()
	_, err := svc.Dashboard(context.Background(), 1, now.AddDate(-1, 0, 0), now)
	require.Error(t, err)
}

func TestMonthlyRevenueRejectsEmptyWindow(t *testing.T) {
	svc := NewService(&stubRepo{}, slog.Default())

	now := time.Now().UTC()
	_, err := svc.MonthlyRevenue(context.Background(), 1, now, now)
	require.ErrorIs(t, err, httpx.ErrValidation)
}
