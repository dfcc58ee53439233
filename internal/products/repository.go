package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

// Repository defines persistence operations for products, scoped by owner.
type Repository interface {
	Get(ctx context.Context, userID, id int64) (*Product, error)
	List(ctx context.Context, req ListProductsRequest) ([]Product, int, error)
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, userID, id int64, req UpdateProductRequest) error
	Delete(ctx context.Context, userID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = "id, user_id, name, price, taxable, created_at, updated_at"

func (r *repository) Get(ctx context.Context, userID, id int64) (*Product, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1 AND user_id = $2", id, userID)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	where := "WHERE user_id = $1"
	args := []interface{}{req.UserID}
	if req.Search != nil && *req.Search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+*req.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY name LIMIT $%d OFFSET $%d",
		productColumns, where, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (user_id, name, price, taxable, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id`,
		p.UserID, p.Name, p.Price, p.Taxable,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, userID, id int64, req UpdateProductRequest) error {
	query := "UPDATE products SET updated_at = NOW()"
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(", %s = $%d", column, len(args))
	}
	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Price != nil {
		set("price", *req.Price)
	}
	if req.Taxable != nil {
		set("taxable", *req.Taxable)
	}
	args = append(args, id, userID)
	query += fmt.Sprintf(" WHERE id = $%d AND user_id = $%d", len(args)-1, len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Price, &p.Taxable, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}
