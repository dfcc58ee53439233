package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a reusable catalogue entry owned by a single user. The taxable
// flag seeds the same flag on invoice line items built from it.
type Product struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Taxable   bool            `json:"taxable"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
