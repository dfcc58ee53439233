package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/invoicely/invoicely/internal/clients"
	"github.com/invoicely/invoicely/internal/platform/httpx"
	"github.com/invoicely/invoicely/report"
)

type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	getCalls int
	counters map[int64]int64
	invoices map[int64]*Invoice
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		counters: make(map[int64]int64),
		invoices: make(map[int64]*Invoice),
	}
}

func (r *memoryRepo) Create(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[inv.UserID]++
	inv.Number = FormatNumber(r.counters[inv.UserID])
	r.nextID++
	inv.ID = r.nextID
	inv.CreatedAt = time.Now().UTC()
	inv.UpdatedAt = inv.CreatedAt
	for i := range inv.Lines {
		inv.Lines[i].ID = int64(i + 1)
		inv.Lines[i].InvoiceID = inv.ID
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, userID, id int64) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	inv, ok := r.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, fmt.Errorf("invoice %d: %w", id, httpx.ErrNotFound)
	}
	cp := *inv
	return &cp, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.UserID != req.UserID {
			continue
		}
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Update(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[inv.ID]
	if !ok || stored.UserID != inv.UserID {
		return fmt.Errorf("invoice %d: %w", inv.ID, httpx.ErrNotFound)
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.UserID != userID {
		return fmt.Errorf("invoice %d: %w", id, httpx.ErrNotFound)
	}
	delete(r.invoices, id)
	return nil
}

func (r *memoryRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, inv := range r.invoices {
		if inv.Status == StatusSent && inv.DueDate.Before(asOf) {
			inv.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

type memoryClients struct {
	mu      sync.Mutex
	nextID  int64
	clients map[int64]*clients.Client
}

func newMemoryClients() *memoryClients {
	return &memoryClients{clients: make(map[int64]*clients.Client)}
}

func (r *memoryClients) add(userID int64, name, email string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.clients[r.nextID] = &clients.Client{ID: r.nextID, UserID: userID, Name: name, Email: email}
	return r.nextID
}

func (r *memoryClients) Get(ctx context.Context, userID, id int64) (*clients.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok || c.UserID != userID {
		return nil, fmt.Errorf("client %d: %w", id, httpx.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *memoryClients) List(ctx context.Context, req clients.ListClientsRequest) ([]clients.Client, int, error) {
	return nil, 0, nil
}

func (r *memoryClients) Create(ctx context.Context, c clients.Client) (int64, error) {
	return r.add(c.UserID, c.Name, c.Email), nil
}

func (r *memoryClients) Update(ctx context.Context, userID, id int64, req clients.UpdateClientRequest) error {
	return nil
}

func (r *memoryClients) Delete(ctx context.Context, userID, id int64) error {
	return nil
}

type staticSellers struct{}

func (staticSellers) Seller(ctx context.Context, userID int64) (Seller, error) {
	return Seller{Name: "Demo User", Email: "demo@invoicely.local"}, nil
}

type fakeRenderer struct {
	err   error
	calls int
}

func (f *fakeRenderer) Render(ctx context.Context, doc report.InvoiceDocument) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type fakeMailer struct {
	err   error
	sent  []string
	calls int
}

func (f *fakeMailer) SendInvoice(ctx context.Context, to, subject, body, attachmentName string, pdf []byte) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type serviceFixture struct {
	repo     *memoryRepo
	clients  *memoryClients
	renderer *fakeRenderer
	mailer   *fakeMailer
	service  *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newMemoryRepo()
	clientRepo := newMemoryClients()
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{}
	svc := NewService(repo, clientRepo, staticSellers{}, renderer, mailer, nil, slog.Default())
	return &serviceFixture{
		repo:     repo,
		clients:  clientRepo,
		renderer: renderer,
		mailer:   mailer,
		service:  svc,
	}
}

func draftRequest(clientID int64) CreateInvoiceRequest {
	return CreateInvoiceRequest{
		ClientID: &clientID,
		DueDate:  time.Now().AddDate(0, 0, 14),
		LineItems: []LineItemInput{
			{Description: "Consulting", Quantity: 2, UnitPrice: d("5000")},
			{Description: "Reimbursement", Quantity: 1, UnitPrice: d("2500"), Taxable: boolPtr(false)},
		},
		TaxInfo: TaxRatesInput{CGSTRate: d("9"), SGSTRate: d("9")},
	}
}

func TestCreateComputesServerSideTotal(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")

	req := draftRequest(clientID)
	bogus := d("1.00")
	req.TotalAmount = &bogus

	inv, err := f.service.Create(context.Background(), 1, req)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, inv.Status)
	require.Equal(t, "INV-00001", inv.Number)
	require.True(t, inv.Tax.TaxableAmount.Equal(d("10000")), "got %s", inv.Tax.TaxableAmount)
	require.True(t, inv.TotalAmount.Equal(d("14300")), "got %s", inv.TotalAmount)
	require.Len(t, inv.Lines, 2)
}

func TestCreateRejectsMissingRecipient(t *testing.T) {
	f := newServiceFixture(t)

	req := draftRequest(1)
	req.ClientID = nil

	_, err := f.service.Create(context.Background(), 1, req)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsBothRecipients(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")

	req := draftRequest(clientID)
	req.TempClient = &TempClientInput{Name: "One Off", Email: "oneoff@example.com"}

	_, err := f.service.Create(context.Background(), 1, req)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsForeignClient(t *testing.T) {
	f := newServiceFixture(t)
	otherClient := f.clients.add(2, "Their Client", "their@example.com")

	_, err := f.service.Create(context.Background(), 1, draftRequest(otherClient))
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateRejectsAllInvalidLines(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")

	req := draftRequest(clientID)
	req.LineItems = []LineItemInput{
		{Description: "", Quantity: 1, UnitPrice: d("10")},
		{Description: "Zero", Quantity: 0, UnitPrice: d("10")},
	}

	_, err := f.service.Create(context.Background(), 1, req)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsNegativeRates(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")

	req := draftRequest(clientID)
	req.TaxInfo.CGSTRate = d("-1")

	_, err := f.service.Create(context.Background(), 1, req)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateAcceptsTempClient(t *testing.T) {
	f := newServiceFixture(t)

	req := draftRequest(0)
	req.ClientID = nil
	req.TempClient = &TempClientInput{Name: "One Off", Email: "oneoff@example.com"}

	inv, err := f.service.Create(context.Background(), 1, req)
	require.NoError(t, err)
	require.Nil(t, inv.ClientID)
	require.NotNil(t, inv.TempClient)
	require.Equal(t, "oneoff@example.com", inv.TempClient.Email)
}

func TestSequentialNumbersPerUser(t *testing.T) {
	f := newServiceFixture(t)
	c1 := f.clients.add(1, "Acme", "acme@example.com")
	c2 := f.clients.add(2, "Globex", "globex@example.com")

	first, err := f.service.Create(context.Background(), 1, draftRequest(c1))
	require.NoError(t, err)
	second, err := f.service.Create(context.Background(), 1, draftRequest(c1))
	require.NoError(t, err)
	other, err := f.service.Create(context.Background(), 2, draftRequest(c2))
	require.NoError(t, err)

	require.Equal(t, "INV-00001", first.Number)
	require.Equal(t, "INV-00002", second.Number)
	require.Equal(t, "INV-00001", other.Number)
}

func TestConcurrentCreatesYieldDistinctNumbers(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")

	const n = 100
	numbers := make([]string, n)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			inv, err := f.service.Create(ctx, 1, draftRequest(clientID))
			if err != nil {
				return err
			}
			numbers[i] = inv.Number
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]struct{}, n)
	for _, num := range numbers {
		_, dup := seen[num]
		require.False(t, dup, "duplicate number %s", num)
		seen[num] = struct{}{}
	}
	require.Len(t, seen, n)
}

func TestSendMarksInvoiceSent(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	sent, err := f.service.Send(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	require.Equal(t, []string{"acme@example.com"}, f.mailer.sent)

	stored, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, stored.Status)
}

func TestSendFailureKeepsDraft(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	f.mailer.err = errors.New("smtp connection refused")
	_, err = f.service.Send(context.Background(), 1, inv.ID)
	require.ErrorIs(t, err, httpx.ErrUpstream)

	stored, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, stored.Status)
	require.Nil(t, stored.SentAt)
}

func TestSendRenderFailureKeepsDraft(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	f.renderer.err = errors.New("gotenberg unavailable")
	_, err = f.service.Send(context.Background(), 1, inv.ID)
	require.ErrorIs(t, err, httpx.ErrUpstream)
	require.Zero(t, f.mailer.calls)

	stored, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, stored.Status)
}

func TestSendRejectsNonDraft(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	_, err = f.service.Send(context.Background(), 1, inv.ID)
	require.NoError(t, err)

	_, err = f.service.Send(context.Background(), 1, inv.ID)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateNotesOnlyKeepsStatus(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	notes := "net 14, wire transfer"
	updated, err := f.service.Update(context.Background(), 1, inv.ID, UpdateInvoiceRequest{Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, updated.Status)
	require.NotNil(t, updated.Notes)
	require.Equal(t, notes, *updated.Notes)
	require.True(t, updated.TotalAmount.Equal(inv.TotalAmount))
}

func TestUpdateStatusRejectsManualSent(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), 1, inv.ID, UpdateStatusRequest{Status: StatusSent})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateStatusPaidSetsPaidAt(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	paid, err := f.service.UpdateStatus(context.Background(), 1, inv.ID, UpdateStatusRequest{Status: StatusPaid})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
}

func TestUpdateStatusPaidIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	first, err := f.service.UpdateStatus(context.Background(), 1, inv.ID, UpdateStatusRequest{Status: StatusPaid})
	require.NoError(t, err)
	firstPaidAt := *first.PaidAt

	second, err := f.service.UpdateStatus(context.Background(), 1, inv.ID, UpdateStatusRequest{Status: StatusPaid})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, second.Status)
	require.True(t, firstPaidAt.Equal(*second.PaidAt))
}

func TestUpdateStatusRejectsLeavingTerminal(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), 1, inv.ID, UpdateStatusRequest{Status: StatusCancelled})
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), 1, inv.ID, UpdateStatusRequest{Status: StatusPaid})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestMarkOverdueOnlyFlipsSentPastDue(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")

	pastDue := draftRequest(clientID)
	pastDue.DueDate = time.Now().AddDate(0, 0, -3)
	late, err := f.service.Create(context.Background(), 1, pastDue)
	require.NoError(t, err)
	_, err = f.service.Send(context.Background(), 1, late.ID)
	require.NoError(t, err)

	draft, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	current, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)
	_, err = f.service.Send(context.Background(), 1, current.ID)
	require.NoError(t, err)

	n, err := f.service.MarkOverdueInvoices(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	stored, err := f.service.Get(context.Background(), 1, late.ID)
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, stored.Status)

	stillDraft, err := f.service.Get(context.Background(), 1, draft.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, stillDraft.Status)

	stillSent, err := f.service.Get(context.Background(), 1, current.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, stillSent.Status)
}

func TestOverdueInvoiceCanBePaid(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")

	pastDue := draftRequest(clientID)
	pastDue.DueDate = time.Now().AddDate(0, 0, -3)
	inv, err := f.service.Create(context.Background(), 1, pastDue)
	require.NoError(t, err)
	_, err = f.service.Send(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	_, err = f.service.MarkOverdueInvoices(context.Background(), time.Now().UTC())
	require.NoError(t, err)

	paid, err := f.service.UpdateStatus(context.Background(), 1, inv.ID, UpdateStatusRequest{Status: StatusPaid})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
}

func TestGetScopedByOwner(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), 2, inv.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRenderPDFDoesNotChangeStatus(t *testing.T) {
	f := newServiceFixture(t)
	clientID := f.clients.add(1, "Acme", "acme@example.com")
	inv, err := f.service.Create(context.Background(), 1, draftRequest(clientID))
	require.NoError(t, err)

	before := f.repo.getCalls
	rendered, pdf, err := f.service.RenderPDF(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	require.Equal(t, inv.Number, rendered.Number)
	require.Equal(t, before+1, f.repo.getCalls)
	require.Zero(t, f.mailer.calls)

	stored, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, stored.Status)
}
