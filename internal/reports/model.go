package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyRevenue is the sum of paid invoice totals for one calendar month.
type MonthlyRevenue struct {
	Month   time.Time       `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int64           `json:"count"`
}

// OutstandingByClient aggregates unpaid sent and overdue invoices per client.
// ClientName falls back to the inline recipient name for one-off invoices.
type OutstandingByClient struct {
	ClientID    *int64          `json:"clientId,omitempty"`
	ClientName  string          `json:"clientName"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Count       int64           `json:"count"`
}

// StatusSummary counts invoices and totals per status.
type StatusSummary struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// Dashboard bundles the three report views for one owner.
type Dashboard struct {
	MonthlyRevenue []MonthlyRevenue      `json:"monthlyRevenue"`
	Outstanding    []OutstandingByClient `json:"outstanding"`
	StatusSummary  []StatusSummary       `json:"statusSummary"`
}
