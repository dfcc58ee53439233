package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicely/invoicely/internal/platform/db"
	"github.com/invoicely/invoicely/internal/platform/httpx"
)

// Repository defines persistence operations for invoices. Every read and
// write except MarkOverdue is scoped by the owning user id.
type Repository interface {
	// Create allocates the next invoice number for the owner and persists
	// the invoice together with its line items in one transaction. On
	// success inv.ID and inv.Number are populated.
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, userID, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	// Update persists the mutable fields of an existing invoice: status,
	// sent_at, paid_at and notes.
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, userID, id int64) error
	// MarkOverdue flips every sent invoice past its due date to overdue,
	// across all owners, and reports how many rows changed.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, user_id, number, client_id,
	temp_name, temp_email, temp_phone, temp_address,
	status, due_date, sent_at, paid_at, notes,
	cgst_rate, sgst_rate, taxable_amount, cgst_amount, sgst_amount, total_amount,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, inv *Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx, `
			INSERT INTO invoice_counters (user_id, last_value)
			VALUES ($1, 1)
			ON CONFLICT (user_id)
			DO UPDATE SET last_value = invoice_counters.last_value + 1
			RETURNING last_value`,
			inv.UserID,
		).Scan(&seq)
		if err != nil {
			return fmt.Errorf("next invoice sequence: %w", err)
		}
		inv.Number = FormatNumber(seq)

		var tempName, tempEmail, tempPhone, tempAddress pgtype.Text
		if inv.TempClient != nil {
			tempName = pgtype.Text{String: inv.TempClient.Name, Valid: true}
			tempEmail = pgtype.Text{String: inv.TempClient.Email, Valid: true}
			tempPhone = textOrNull(inv.TempClient.Phone)
			tempAddress = textOrNull(inv.TempClient.Address)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO invoices (user_id, number, client_id,
				temp_name, temp_email, temp_phone, temp_address,
				status, due_date, notes,
				cgst_rate, sgst_rate, taxable_amount, cgst_amount, sgst_amount, total_amount,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
			RETURNING id, created_at, updated_at`,
			inv.UserID, inv.Number, inv.ClientID,
			tempName, tempEmail, tempPhone, tempAddress,
			inv.Status, inv.DueDate, textOrNull(inv.Notes),
			inv.Tax.CGSTRate, inv.Tax.SGSTRate, inv.Tax.TaxableAmount,
			inv.Tax.CGSTAmount, inv.Tax.SGSTAmount, inv.TotalAmount,
		).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("invoice %s: %w", inv.Number, httpx.ErrDuplicate)
			}
			return fmt.Errorf("insert invoice: %w", err)
		}

		for i := range inv.Lines {
			line := &inv.Lines[i]
			line.InvoiceID = inv.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, taxable, position)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				line.InvoiceID, line.Description, line.Quantity, line.UnitPrice, line.Taxable, line.Position,
			).Scan(&line.ID)
			if err != nil {
				return fmt.Errorf("insert invoice line %d: %w", line.Position, err)
			}
		}
		return nil
	})
}

func (r *repository) Get(ctx context.Context, userID, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1 AND user_id = $2", id, userID)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", id, httpx.ErrNotFound)
		}
		return nil, err
	}
	if err := r.loadLines(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	where := "WHERE user_id = $1"
	args := []interface{}{req.UserID}
	if req.Status != nil {
		args = append(args, *req.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		where += fmt.Sprintf(" AND due_date >= $%d", len(args))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		where += fmt.Sprintf(" AND due_date <= $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM invoices %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		invoiceColumns, where, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		if err := r.loadLines(ctx, &out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (r *repository) Update(ctx context.Context, inv *Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET status = $1, sent_at = $2, paid_at = $3, notes = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6`,
		inv.Status, timeOrNull(inv.SentAt), timeOrNull(inv.PaidAt), textOrNull(inv.Notes),
		inv.ID, inv.UserID,
	)
	if err != nil {
		return fmt.Errorf("update invoice %d: %w", inv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d: %w", inv.ID, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM invoices WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND due_date < $3`,
		StatusOverdue, StatusSent, asOf,
	)
	if err != nil {
		return 0, fmt.Errorf("mark overdue invoices: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *repository) loadLines(ctx context.Context, inv *Invoice) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, taxable, position
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY position`,
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("load invoice lines: %w", err)
	}
	defer rows.Close()

	inv.Lines = inv.Lines[:0]
	for rows.Next() {
		var l LineItem
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.Taxable, &l.Position); err != nil {
			return err
		}
		inv.Lines = append(inv.Lines, l)
	}
	return rows.Err()
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var clientID pgtype.Int8
	var tempName, tempEmail, tempPhone, tempAddress, notes pgtype.Text
	var sentAt, paidAt pgtype.Timestamptz
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.Number, &clientID,
		&tempName, &tempEmail, &tempPhone, &tempAddress,
		&inv.Status, &inv.DueDate, &sentAt, &paidAt, &notes,
		&inv.Tax.CGSTRate, &inv.Tax.SGSTRate, &inv.Tax.TaxableAmount,
		&inv.Tax.CGSTAmount, &inv.Tax.SGSTAmount, &inv.TotalAmount,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if clientID.Valid {
		inv.ClientID = &clientID.Int64
	}
	if tempName.Valid {
		tc := TempClient{Name: tempName.String, Email: tempEmail.String}
		if tempPhone.Valid {
			tc.Phone = &tempPhone.String
		}
		if tempAddress.Valid {
			tc.Address = &tempAddress.String
		}
		inv.TempClient = &tc
	}
	if sentAt.Valid {
		t := sentAt.Time
		inv.SentAt = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		inv.PaidAt = &t
	}
	if notes.Valid {
		inv.Notes = &notes.String
	}
	return &inv, nil
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func timeOrNull(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
