package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemInput is one requested invoice row. Taxable defaults to true when
// omitted, matching the behaviour clients expect from the form UI.
type LineItemInput struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"price"`
	Taxable     *bool           `json:"taxable,omitempty"`
}

// TaxableOrDefault resolves the optional taxable flag.
func (l LineItemInput) TaxableOrDefault() bool {
	if l.Taxable == nil {
		return true
	}
	return *l.Taxable
}

// TaxRatesInput carries the two requested tax percentages.
type TaxRatesInput struct {
	CGSTRate decimal.Decimal `json:"cgstRate"`
	SGSTRate decimal.Decimal `json:"sgstRate"`
}

// TempClientInput is an inline client snapshot for one-off recipients.
type TempClientInput struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// CreateInvoiceRequest creates a draft invoice. Exactly one of ClientID and
// TempClient must be set. TotalAmount is accepted for wire compatibility but
// ignored: the server always rederives the total from the line items and the
// tax rates.
type CreateInvoiceRequest struct {
	ClientID    *int64           `json:"clientId,omitempty"`
	TempClient  *TempClientInput `json:"tempClient,omitempty"`
	DueDate     time.Time        `json:"dueDate" validate:"required"`
	LineItems   []LineItemInput  `json:"lineItems" validate:"required,min=1"`
	TaxInfo     TaxRatesInput    `json:"taxInfo"`
	Notes       *string          `json:"notes,omitempty"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
}

// UpdateInvoiceRequest mutates status, payment date, or notes.
type UpdateInvoiceRequest struct {
	Status   *InvoiceStatus `json:"status,omitempty"`
	PaidDate *time.Time     `json:"paidDate,omitempty"`
	Notes    *string        `json:"notes,omitempty"`
}

// UpdateStatusRequest is the explicit status-update call.
type UpdateStatusRequest struct {
	Status   InvoiceStatus `json:"status" validate:"required"`
	PaidDate *time.Time    `json:"paidDate,omitempty"`
	Notes    *string       `json:"notes,omitempty"`
}

// ListInvoicesRequest filters the owner's invoices.
type ListInvoicesRequest struct {
	UserID   int64
	Status   *InvoiceStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// LineItemView is a line item with its derived amount for responses.
type LineItemView struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"price"`
	Taxable     bool            `json:"taxable"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceView is the wire representation of an invoice with computed line
// amounts attached.
type InvoiceView struct {
	ID          int64           `json:"id"`
	Number      string          `json:"invoiceNumber"`
	ClientID    *int64          `json:"clientId,omitempty"`
	TempClient  *TempClient     `json:"tempClient,omitempty"`
	Status      InvoiceStatus   `json:"status"`
	DueDate     time.Time       `json:"dueDate"`
	SentAt      *time.Time      `json:"sentAt,omitempty"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	LineItems   []LineItemView  `json:"lineItems"`
	TaxInfo     TaxInfo         `json:"taxInfo"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewInvoiceView projects an invoice into its response shape.
func NewInvoiceView(inv *Invoice) InvoiceView {
	lines := make([]LineItemView, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, LineItemView{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Taxable:     l.Taxable,
			Amount:      l.Amount(),
		})
	}
	return InvoiceView{
		ID:          inv.ID,
		Number:      inv.Number,
		ClientID:    inv.ClientID,
		TempClient:  inv.TempClient,
		Status:      inv.Status,
		DueDate:     inv.DueDate,
		SentAt:      inv.SentAt,
		PaidAt:      inv.PaidAt,
		Notes:       inv.Notes,
		LineItems:   lines,
		TaxInfo:     inv.Tax,
		TotalAmount: inv.TotalAmount,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}
