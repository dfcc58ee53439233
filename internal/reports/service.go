package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

// Service runs reporting queries for one owner.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// MonthlyRevenue reports paid revenue per month in [from, to).
func (s *Service) MonthlyRevenue(ctx context.Context, userID int64, from, to time.Time) ([]MonthlyRevenue, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("empty reporting window: %w", httpx.ErrValidation)
	}
	return s.repo.MonthlyRevenue(ctx, userID, from, to)
}

// Outstanding reports unpaid totals grouped by client.
func (s *Service) Outstanding(ctx context.Context, userID int64) ([]OutstandingByClient, error) {
	return s.repo.OutstandingByClient(ctx, userID)
}

// StatusSummary reports invoice counts and totals per status.
func (s *Service) StatusSummary(ctx context.Context, userID int64) ([]StatusSummary, error) {
	return s.repo.StatusSummary(ctx, userID)
}

// Dashboard gathers all three report views concurrently.
func (s *Service) Dashboard(ctx context.Context, userID int64, from, to time.Time) (*Dashboard, error) {
	var dash Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rev, err := s.repo.MonthlyRevenue(ctx, userID, from, to)
		if err != nil {
			return fmt.Errorf("monthly revenue: %w", err)
		}
		dash.MonthlyRevenue = rev
		return nil
	})
	g.Go(func() error {
		out, err := s.repo.OutstandingByClient(ctx, userID)
		if err != nil {
			return fmt.Errorf("outstanding by client: %w", err)
		}
		dash.Outstanding = out
		return nil
	})
	g.Go(func() error {
		sum, err := s.repo.StatusSummary(ctx, userID)
		if err != nil {
			return fmt.Errorf("status summary: %w", err)
		}
		dash.StatusSummary = sum
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if dash.MonthlyRevenue == nil {
		dash.MonthlyRevenue = []MonthlyRevenue{}
	}
	if dash.Outstanding == nil {
		dash.Outstanding = []OutstandingByClient{}
	}
	if dash.StatusSummary == nil {
		dash.StatusSummary = []StatusSummary{}
	}
	return &dash, nil
}
