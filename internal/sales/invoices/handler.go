package invoices

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/unitdesk/internal/platform/httpx"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Handler serves invoice previews and CSV exports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the invoice handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Post("/preview", h.handlePreview)
		r.Post("/export.csv", h.handleExport)
	})
}

func (h *Handler) build(ctx context.Context, p shared.Principal, req previewRequest) (Invoice, error) {
	switch {
	case len(req.Lines) > 0 && len(req.UnitIDs) > 0:
		return Invoice{}, shared.Validation("invoices.preview", "send either lines or unit_ids")
	case len(req.Lines) > 0:
		return FromLines(req.Regime, req.manualLines())
	default:
		units, err := req.unitsRequest()
		if err != nil {
			return Invoice{}, err
		}
		return h.service.FromUnits(ctx, p, units)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Invoice, bool) {
	principal, ok := httpx.Principal(w, r)
	if !ok {
		return Invoice{}, false
	}
	var req previewRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return Invoice{}, false
	}
	inv, err := h.build(r.Context(), principal, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return Invoice{}, false
	}
	return inv, true
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.decode(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.decode(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"invoice.csv\"")
	if err := WriteLinesCSV(w, inv); err != nil {
		h.logger.Warn("write invoice csv", slog.Any("error", err))
	}
}
