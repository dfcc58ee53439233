package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/invoicely/invoicely/internal/clients"
	"github.com/invoicely/invoicely/internal/observability"
	"github.com/invoicely/invoicely/internal/platform/httpx"
	"github.com/invoicely/invoicely/report"
)

// DocumentRenderer converts an invoice document into a PDF.
type DocumentRenderer interface {
	Render(ctx context.Context, doc report.InvoiceDocument) ([]byte, error)
}

// Mailer delivers a rendered invoice to its recipient.
type Mailer interface {
	SendInvoice(ctx context.Context, to, subject, body, attachmentName string, pdf []byte) error
}

// Seller identifies the invoice issuer on rendered documents and emails.
type Seller struct {
	Name  string
	Email string
}

// SellerDirectory resolves the issuing user's contact details.
type SellerDirectory interface {
	Seller(ctx context.Context, userID int64) (Seller, error)
}

// Service implements invoice workflows on top of the repository.
type Service struct {
	repo     Repository
	clients  clients.Repository
	sellers  SellerDirectory
	renderer DocumentRenderer
	mailer   Mailer
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	clientRepo clients.Repository,
	sellers SellerDirectory,
	renderer DocumentRenderer,
	mailer Mailer,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		clients:  clientRepo,
		sellers:  sellers,
		renderer: renderer,
		mailer:   mailer,
		metrics:  metrics,
		logger:   logger,
	}
}

// Create validates the request, values the line items, derives tax and total
// on the server and persists a draft invoice under the next number in the
// owner's sequence. Any total supplied by the caller is ignored.
func (s *Service) Create(ctx context.Context, userID int64, req CreateInvoiceRequest) (*Invoice, error) {
	if (req.ClientID == nil) == (req.TempClient == nil) {
		return nil, fmt.Errorf("exactly one of clientId and tempClient must be set: %w", httpx.ErrValidation)
	}
	if req.TaxInfo.CGSTRate.Sign() < 0 || req.TaxInfo.SGSTRate.Sign() < 0 {
		return nil, fmt.Errorf("tax rates must not be negative: %w", httpx.ErrValidation)
	}

	lines := ValuateLineItems(req.LineItems)
	if len(lines) == 0 {
		return nil, fmt.Errorf("no valid line items: %w", httpx.ErrValidation)
	}

	inv := &Invoice{
		UserID:  userID,
		Status:  StatusDraft,
		DueDate: req.DueDate,
		Notes:   req.Notes,
		Lines:   lines,
	}
	if req.ClientID != nil {
		// Ownership check: the referenced client must belong to the caller.
		if _, err := s.clients.Get(ctx, userID, *req.ClientID); err != nil {
			return nil, fmt.Errorf("resolve client: %w", err)
		}
		inv.ClientID = req.ClientID
	} else {
		inv.TempClient = &TempClient{
			Name:    req.TempClient.Name,
			Email:   req.TempClient.Email,
			Phone:   req.TempClient.Phone,
			Address: req.TempClient.Address,
		}
	}

	inv.Tax = ComputeTax(lines, req.TaxInfo.CGSTRate, req.TaxInfo.SGSTRate)
	inv.TotalAmount = AssembleTotal(lines, inv.Tax)

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	if s.metrics != nil {
		s.metrics.InvoiceCreated()
	}
	s.logger.Info("invoice created", "invoice_id", inv.ID, "number", inv.Number, "user_id", userID)
	return inv, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.List(ctx, req)
}

// Update mutates notes and, when a status is supplied, runs the status
// machine. It is the handler behind PUT /invoices/{id}.
func (s *Service) Update(ctx context.Context, userID, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	if req.Status != nil {
		return s.UpdateStatus(ctx, userID, id, UpdateStatusRequest{
			Status:   *req.Status,
			PaidDate: req.PaidDate,
			Notes:    req.Notes,
		})
	}
	inv, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Notes != nil {
		inv.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateStatus applies one transition of the status machine. Moving to sent
// is reserved for the send workflow and rejected here. Marking a paid
// invoice paid again is an idempotent no-op.
func (s *Service) UpdateStatus(ctx context.Context, userID, id int64, req UpdateStatusRequest) (*Invoice, error) {
	if !ValidStatus(req.Status) {
		return nil, fmt.Errorf("unknown status %q: %w", req.Status, httpx.ErrValidation)
	}
	inv, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Status == StatusPaid && inv.Status == StatusPaid {
		return inv, nil
	}
	if req.Status == StatusSent {
		return nil, fmt.Errorf("status sent requires the send workflow: %w", httpx.ErrValidation)
	}
	if !CanTransition(inv.Status, req.Status) {
		return nil, fmt.Errorf("cannot move invoice from %s to %s: %w", inv.Status, req.Status, httpx.ErrValidation)
	}

	inv.Status = req.Status
	if req.Status == StatusPaid {
		paidAt := time.Now().UTC()
		if req.PaidDate != nil {
			paidAt = *req.PaidDate
		}
		inv.PaidAt = &paidAt
	}
	if req.Notes != nil {
		inv.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Info("invoice status updated", "invoice_id", inv.ID, "status", inv.Status)
	return inv, nil
}

// Send renders the invoice to PDF, emails it to the recipient and only then
// marks it sent. A draft stays a draft when rendering or delivery fails.
func (s *Service) Send(ctx context.Context, userID, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("only draft invoices can be sent, invoice is %s: %w", inv.Status, httpx.ErrValidation)
	}

	seller, err := s.sellers.Seller(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve seller: %w", err)
	}
	doc, recipient, err := s.buildDocument(ctx, inv, seller)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.Render(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w: %v", inv.Number, httpx.ErrUpstream, err)
	}

	subject := fmt.Sprintf("Invoice %s from %s", inv.Number, seller.Name)
	body := fmt.Sprintf("Hello %s,\r\n\r\nPlease find invoice %s attached. The amount due is %s by %s.\r\n\r\nRegards,\r\n%s\r\n",
		doc.ClientName, inv.Number, inv.TotalAmount.StringFixed(2), inv.DueDate.Format("02 Jan 2006"), seller.Name)
	if err := s.mailer.SendInvoice(ctx, recipient, subject, body, inv.Number+".pdf", pdf); err != nil {
		s.logger.Error("invoice delivery failed", "invoice_id", inv.ID, "error", err)
		return nil, fmt.Errorf("deliver invoice %s: %w: %v", inv.Number, httpx.ErrUpstream, err)
	}

	sentAt := time.Now().UTC()
	inv.Status = StatusSent
	inv.SentAt = &sentAt
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.InvoiceSent()
	}
	s.logger.Info("invoice sent", "invoice_id", inv.ID, "number", inv.Number, "recipient", recipient)
	return inv, nil
}

// RenderPDF renders the invoice document without sending it anywhere. The
// fetched invoice is returned alongside the bytes so callers do not need a
// second lookup for metadata like the invoice number.
func (s *Service) RenderPDF(ctx context.Context, userID, id int64) (*Invoice, []byte, error) {
	inv, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	seller, err := s.sellers.Seller(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve seller: %w", err)
	}
	doc, _, err := s.buildDocument(ctx, inv, seller)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.renderer.Render(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("render invoice %s: %w: %v", inv.Number, httpx.ErrUpstream, err)
	}
	return inv, pdf, nil
}

// MarkOverdueInvoices is invoked by the scheduler to flip sent invoices past
// their due date to overdue.
func (s *Service) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("invoices marked overdue", "count", n, "as_of", asOf)
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) buildDocument(ctx context.Context, inv *Invoice, seller Seller) (report.InvoiceDocument, string, error) {
	doc := report.InvoiceDocument{
		Number:        inv.Number,
		Status:        string(inv.Status),
		IssuedAt:      inv.CreatedAt,
		DueDate:       inv.DueDate,
		SellerName:    seller.Name,
		SellerEmail:   seller.Email,
		TaxableAmount: inv.Tax.TaxableAmount,
		CGSTRate:      inv.Tax.CGSTRate,
		SGSTRate:      inv.Tax.SGSTRate,
		CGSTAmount:    inv.Tax.CGSTAmount,
		SGSTAmount:    inv.Tax.SGSTAmount,
		TotalAmount:   inv.TotalAmount,
	}
	if inv.Notes != nil {
		doc.Notes = *inv.Notes
	}
	for _, l := range inv.Lines {
		doc.Lines = append(doc.Lines, report.DocumentLine{
			Position:    l.Position,
			Description: l.Description,
			Quantity:    l.Quantity,
			Price:       l.UnitPrice,
			Amount:      l.Amount(),
		})
	}

	var recipient string
	switch {
	case inv.ClientID != nil:
		c, err := s.clients.Get(ctx, inv.UserID, *inv.ClientID)
		if err != nil {
			return report.InvoiceDocument{}, "", fmt.Errorf("resolve client: %w", err)
		}
		doc.ClientName = c.Name
		doc.ClientEmail = c.Email
		if c.Phone != nil {
			doc.ClientPhone = *c.Phone
		}
		if c.Address != nil {
			doc.ClientAddress = *c.Address
		}
		recipient = c.Email
	case inv.TempClient != nil:
		doc.ClientName = inv.TempClient.Name
		doc.ClientEmail = inv.TempClient.Email
		if inv.TempClient.Phone != nil {
			doc.ClientPhone = *inv.TempClient.Phone
		}
		if inv.TempClient.Address != nil {
			doc.ClientAddress = *inv.TempClient.Address
		}
		recipient = inv.TempClient.Email
	default:
		return report.InvoiceDocument{}, "", fmt.Errorf("invoice %d has no recipient: %w", inv.ID, httpx.ErrValidation)
	}
	return doc, recipient, nil
}
