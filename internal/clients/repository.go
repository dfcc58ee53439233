package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

// Repository defines persistence operations for clients. Every read and
// write is scoped by the owning user id.
type Repository interface {
	Get(ctx context.Context, userID, id int64) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, c Client) (int64, error)
	Update(ctx context.Context, userID, id int64, req UpdateClientRequest) error
	Delete(ctx context.Context, userID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = "id, user_id, name, email, phone, address, created_at, updated_at"

func (r *repository) Get(ctx context.Context, userID, id int64) (*Client, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = $1 AND user_id = $2", id, userID)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %d: %w", id, httpx.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	where := "WHERE user_id = $1"
	args := []interface{}{req.UserID}
	if req.Search != nil && *req.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+*req.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM clients "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM clients %s ORDER BY name LIMIT $%d OFFSET $%d",
		clientColumns, where, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (user_id, name, email, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id`,
		c.UserID, c.Name, c.Email, textOrNull(c.Phone), textOrNull(c.Address),
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, userID, id int64, req UpdateClientRequest) error {
	query := "UPDATE clients SET updated_at = NOW()"
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(", %s = $%d", column, len(args))
	}
	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Email != nil {
		set("email", *req.Email)
	}
	if req.Phone != nil {
		set("phone", *req.Phone)
	}
	if req.Address != nil {
		set("address", *req.Address)
	}
	args = append(args, id, userID)
	query += fmt.Sprintf(" WHERE id = $%d AND user_id = $%d", len(args)-1, len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var phone, address pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &phone, &address, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if phone.Valid {
		c.Phone = &phone.String
	}
	if address.Valid {
		c.Address = &address.String
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
