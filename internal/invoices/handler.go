package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/invoicely/invoicely/internal/platform/httpx"
	"github.com/invoicely/invoicely/internal/shared"
)

var validate = validator.New()

// SendEnqueuer hands invoice delivery off to the background queue.
type SendEnqueuer interface {
	EnqueueSendInvoice(ctx context.Context, userID, invoiceID int64) error
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer SendEnqueuer
}

// NewHandler constructs the invoice handler. A nil enqueuer disables
// asynchronous delivery; send requests are then always handled inline.
func NewHandler(logger *slog.Logger, service *Service, enqueuer SendEnqueuer) *Handler {
	return &Handler{logger: logger, service: service, enqueuer: enqueuer}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())

	req := ListInvoicesRequest{UserID: userID, Limit: 20}
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := InvoiceStatus(s)
		if !ValidStatus(status) {
			httpx.RespondError(w, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, s))
			return
		}
		req.Status = &status
	}
	if from := q.Get("dateFrom"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid dateFrom", httpx.ErrValidation))
			return
		}
		req.DateFrom = &t
	}
	if to := q.Get("dateTo"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid dateTo", httpx.ErrValidation))
			return
		}
		req.DateTo = &t
	}
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			req.Limit = parsed
		}
	}
	if o := q.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			req.Offset = parsed
		}
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	views := make([]InvoiceView, 0, len(list))
	for i := range list {
		views = append(views, NewInvoiceView(&list[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices":   views,
		"total":      total,
		"pagination": shared.NewPagination(req.Offset/req.Limit+1, req.Limit, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())
	id, err := invoiceID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	inv, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewInvoiceView(inv))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())

	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}

	inv, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		h.logger.Error("create invoice failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewInvoiceView(inv))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())
	id, err := invoiceID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var req UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}

	inv, err := h.service.Update(r.Context(), userID, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewInvoiceView(inv))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())
	id, err := invoiceID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}

	inv, err := h.service.UpdateStatus(r.Context(), userID, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewInvoiceView(inv))
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())
	id, err := invoiceID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if h.enqueuer != nil && isTruthy(r.URL.Query().Get("async")) {
		inv, err := h.service.Get(r.Context(), userID, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if inv.Status != StatusDraft {
			httpx.RespondError(w, fmt.Errorf("%w: only draft invoices can be sent", httpx.ErrValidation))
			return
		}
		if err := h.enqueuer.EnqueueSendInvoice(r.Context(), userID, id); err != nil {
			h.logger.Error("enqueue invoice send failed", "invoice_id", id, "error", err)
			httpx.RespondError(w, fmt.Errorf("enqueue send: %w: %v", httpx.ErrUpstream, err))
			return
		}
		httpx.JSON(w, http.StatusAccepted, NewInvoiceView(inv))
		return
	}

	inv, err := h.service.Send(r.Context(), userID, id)
	if err != nil {
		h.logger.Error("send invoice failed", "invoice_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewInvoiceView(inv))
}

func isTruthy(v string) bool {
	return v == "1" || v == "true"
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())
	id, err := invoiceID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	inv, pdf, err := h.service.RenderPDF(r.Context(), userID, id)
	if err != nil {
		h.logger.Error("render invoice pdf failed", "invoice_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.Number+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())
	id, err := invoiceID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "invoice deleted"})
}

func invoiceID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid invoice id", httpx.ErrValidation)
	}
	return id, nil
}
