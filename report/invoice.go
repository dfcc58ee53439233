package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentLine is a single billed line on a rendered invoice.
type DocumentLine struct {
	Position    int
	Description string
	Quantity    int
	Price       decimal.Decimal
	Amount      decimal.Decimal
}

// InvoiceDocument carries everything the template needs to lay out an invoice.
type InvoiceDocument struct {
	Number        string
	Status        string
	IssuedAt      time.Time
	DueDate       time.Time
	SellerName    string
	SellerEmail   string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ClientAddress string
	Lines         []DocumentLine
	TaxableAmount decimal.Decimal
	CGSTRate      decimal.Decimal
	SGSTRate      decimal.Decimal
	CGSTAmount    decimal.Decimal
	SGSTAmount    decimal.Decimal
	TotalAmount   decimal.Decimal
	Notes         string
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 13px; color: #222; margin: 40px; }
h1 { font-size: 22px; margin-bottom: 0; }
.meta { color: #666; margin-bottom: 24px; }
.parties { display: flex; justify-content: space-between; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
th { text-align: left; border-bottom: 2px solid #222; padding: 6px 4px; }
td { border-bottom: 1px solid #ddd; padding: 6px 4px; }
td.num, th.num { text-align: right; }
.totals { width: 280px; margin-left: auto; }
.totals td { border: none; padding: 3px 4px; }
.totals tr.grand td { border-top: 2px solid #222; font-weight: bold; }
.notes { margin-top: 32px; color: #555; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Invoice {{.Number}}</h1>
<div class="meta">Issued {{.IssuedAt.Format "02 Jan 2006"}} &middot; Due {{.DueDate.Format "02 Jan 2006"}} &middot; {{.Status}}</div>
<div class="parties">
  <div>
    <strong>From</strong><br>
    {{.SellerName}}<br>
    {{.SellerEmail}}
  </div>
  <div>
    <strong>Bill to</strong><br>
    {{.ClientName}}<br>
    {{.ClientEmail}}{{if .ClientPhone}}<br>{{.ClientPhone}}{{end}}{{if .ClientAddress}}<br>{{.ClientAddress}}{{end}}
  </div>
</div>
<table>
  <thead>
    <tr><th>#</th><th>Description</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Amount</th></tr>
  </thead>
  <tbody>
  {{range .Lines}}
    <tr>
      <td>{{.Position}}</td>
      <td>{{.Description}}</td>
      <td class="num">{{.Quantity}}</td>
      <td class="num">{{.Price.StringFixed 2}}</td>
      <td class="num">{{.Amount.StringFixed 2}}</td>
    </tr>
  {{end}}
  </tbody>
</table>
<table class="totals">
  <tr><td>Taxable amount</td><td class="num">{{.TaxableAmount.StringFixed 2}}</td></tr>
  <tr><td>CGST ({{.CGSTRate.String}}%)</td><td class="num">{{.CGSTAmount.StringFixed 2}}</td></tr>
  <tr><td>SGST ({{.SGSTRate.String}}%)</td><td class="num">{{.SGSTAmount.StringFixed 2}}</td></tr>
  <tr class="grand"><td>Total</td><td class="num">{{.TotalAmount.StringFixed 2}}</td></tr>
</table>
{{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}
</body>
</html>`

var invoiceTmpl = template.Must(template.New("invoice").Parse(invoiceTemplate))

// InvoiceRenderer renders invoice documents to PDF through Gotenberg.
type InvoiceRenderer struct {
	client *Client
}

func NewInvoiceRenderer(client *Client) *InvoiceRenderer {
	return &InvoiceRenderer{client: client}
}

// Render lays out the document as HTML and converts it to PDF.
func (r *InvoiceRenderer) Render(ctx context.Context, doc InvoiceDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("execute invoice template: %w", err)
	}
	pdf, err := r.client.RenderHTML(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return pdf, nil
}
