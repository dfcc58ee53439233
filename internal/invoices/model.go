package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// ValidStatus reports whether s is a known invoice status.
func ValidStatus(s InvoiceStatus) bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s InvoiceStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// CanTransition reports whether the status machine permits from -> to.
// Forward only: draft -> sent -> overdue, paid from any non-terminal state,
// cancelled from any non-terminal state.
func CanTransition(from, to InvoiceStatus) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case StatusSent:
		return from == StatusDraft
	case StatusOverdue:
		return from == StatusSent
	case StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// TempClient is an inline snapshot of client contact fields for invoices
// billed to a recipient that is not a persisted client record.
type TempClient struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// LineItem is a single billable row, owned by its parent invoice.
// The amount is derived; it is never stored.
type LineItem struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"price"`
	Taxable     bool            `json:"taxable"`
	Position    int             `json:"position"`
}

// Amount returns quantity x unit price, recomputed on every read.
func (l LineItem) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TaxInfo carries the tax rates applied to an invoice and the amounts
// derived from them. The amounts are never set independently of the
// taxable base and the rates.
type TaxInfo struct {
	CGSTRate      decimal.Decimal `json:"cgstRate"`
	SGSTRate      decimal.Decimal `json:"sgstRate"`
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	CGSTAmount    decimal.Decimal `json:"cgstAmount"`
	SGSTAmount    decimal.Decimal `json:"sgstAmount"`
}

// Invoice model. TotalAmount always equals the sum of line amounts plus both
// tax amounts; the server recomputes it on every write.
type Invoice struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Number      string          `json:"invoiceNumber"`
	ClientID    *int64          `json:"clientId,omitempty"`
	TempClient  *TempClient     `json:"tempClient,omitempty"`
	Status      InvoiceStatus   `json:"status"`
	DueDate     time.Time       `json:"dueDate"`
	SentAt      *time.Time      `json:"sentAt,omitempty"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	Lines       []LineItem      `json:"lineItems"`
	Tax         TaxInfo         `json:"taxInfo"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
