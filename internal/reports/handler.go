package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/invoicely/invoicely/internal/platform/httpx"
	"github.com/invoicely/invoicely/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// reportWindow parses the optional from/to query parameters and defaults to
// the trailing twelve months.
func reportWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(-1, 0, 0)
	to := now
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid from", httpx.ErrValidation)
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid to", httpx.ErrValidation)
		}
		to = t
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be after from", httpx.ErrValidation)
	}
	return from, to, nil
}

func (h *Handler) MonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())
	from, to, err := reportWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	rev, err := h.service.MonthlyRevenue(r.Context(), userID, from, to)
	if err != nil {
		h.logger.Error("monthly revenue report failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if rev == nil {
		rev = []MonthlyRevenue{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"monthlyRevenue": rev})
}

func (h *Handler) Outstanding(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())

	out, err := h.service.Outstanding(r.Context(), userID)
	if err != nil {
		h.logger.Error("outstanding report failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []OutstandingByClient{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"outstanding": out})
}

func (h *Handler) StatusSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())

	sum, err := h.service.StatusSummary(r.Context(), userID)
	if err != nil {
		h.logger.Error("status summary report failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if sum == nil {
		sum = []StatusSummary{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"statusSummary": sum})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())
	from, to, err := reportWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	dash, err := h.service.Dashboard(r.Context(), userID, from, to)
	if err != nil {
		h.logger.Error("dashboard report failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}
