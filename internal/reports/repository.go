package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the aggregate report queries. Every query is scoped by the
// owning user id.
type Repository interface {
	MonthlyRevenue(ctx context.Context, userID int64, from, to time.Time) ([]MonthlyRevenue, error)
	OutstandingByClient(ctx context.Context, userID int64) ([]OutstandingByClient, error)
	StatusSummary(ctx context.Context, userID int64) ([]StatusSummary, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) MonthlyRevenue(ctx context.Context, userID int64, from, to time.Time) ([]MonthlyRevenue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('month', paid_at) AS month,
		       COALESCE(SUM(total_amount), 0) AS revenue,
		       COUNT(*) AS count
		FROM invoices
		WHERE user_id = $1 AND status = 'paid' AND paid_at >= $2 AND paid_at < $3
		GROUP BY month
		ORDER BY month`,
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyRevenue
	for rows.Next() {
		var m MonthlyRevenue
		var month pgtype.Timestamptz
		if err := rows.Scan(&month, &m.Revenue, &m.Count); err != nil {
			return nil, err
		}
		m.Month = month.Time
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) OutstandingByClient(ctx context.Context, userID int64) ([]OutstandingByClient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.client_id,
		       COALESCE(c.name, i.temp_name, 'unknown') AS client_name,
		       COALESCE(SUM(i.total_amount), 0) AS outstanding,
		       COUNT(*) AS count
		FROM invoices i
		LEFT JOIN clients c ON c.id = i.client_id
		WHERE i.user_id = $1 AND i.status IN ('sent', 'overdue')
		GROUP BY i.client_id, client_name
		ORDER BY outstanding DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutstandingByClient
	for rows.Next() {
		var o OutstandingByClient
		var clientID pgtype.Int8
		if err := rows.Scan(&clientID, &o.ClientName, &o.Outstanding, &o.Count); err != nil {
			return nil, err
		}
		if clientID.Valid {
			o.ClientID = &clientID.Int64
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repository) StatusSummary(ctx context.Context, userID int64) ([]StatusSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total
		FROM invoices
		WHERE user_id = $1
		GROUP BY status
		ORDER BY status`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusSummary
	for rows.Next() {
		var s StatusSummary
		if err := rows.Scan(&s.Status, &s.Count, &s.Total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
