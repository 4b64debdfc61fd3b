package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/platform/httpx"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Handler wires HTTP endpoints for the unit lifecycle and bulk engine.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products/{productID}/units", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleAdd)
		r.Post("/scan", h.handleScan)
		r.Get("/summary", h.handleSummary)
		r.Get("/export.csv", h.handleExport)
		r.Post("/verify", h.handleVerify)
		r.Post("/bulk/preview", h.handleBulkPreview)
		r.Post("/bulk/edit", h.handleBulkEdit)
		r.Post("/bulk/delete", h.handleBulkDelete)
		r.Patch("/{unitID}", h.handleUpdateDates)
		r.Delete("/{unitID}", h.handleDelete)
		r.Post("/{unitID}/transition", h.handleTransition)
	})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (shared.Principal, uuid.UUID, bool) {
	principal, ok := httpx.Principal(w, r)
	if !ok {
		return shared.Principal{}, uuid.Nil, false
	}
	productID, err := httpx.UUIDParam(chi.URLParam(r, "productID"), "product id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return shared.Principal{}, uuid.Nil, false
	}
	return principal, productID, true
}

func (h *Handler) unitID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := httpx.UUIDParam(chi.URLParam(r, "unitID"), "unit id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter, err := filterFromQuery(q)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	page := shared.Page{}
	page.Number, _ = strconv.Atoi(q.Get("page"))
	page.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	page = page.Normalize(defaultPageSize, maxPageSize)
	items, total, err := h.service.ListUnits(r.Context(), principal, productID, filter, page)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"units":      items,
		"pagination": shared.NewPagination(page.Number, page.PerPage, total),
	})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req addUnitRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	unit, err := h.service.AddUnit(r.Context(), principal, productID, NewUnit{
		Code:           req.Code,
		ManufacturedOn: mustDate(req.ManufacturedOn),
		ExpiresOn:      parseDate(req.ExpiresOn),
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, unit)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req scanRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	result, err := h.service.ScanUnits(r.Context(), principal, productID, ScanInput{
		Codes:          req.Codes,
		ManufacturedOn: mustDate(req.ManufacturedOn),
		ExpiresOn:      parseDate(req.ExpiresOn),
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.logger.Info("units scanned",
		slog.String("product_id", productID.String()),
		slog.Int("added", len(result.Added)),
		slog.Int("duplicates", len(result.Duplicates)))
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	counts, err := h.service.StatusCounts(r.Context(), principal, productID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"counts": counts, "total": counts.Total()})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	filter, err := filterFromQuery(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	items, err := h.service.ExportUnits(r.Context(), principal, productID, filter)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"units.csv\"")
	if err := WriteUnitsCSV(w, items); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func (h *Handler) handleUpdateDates(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	unitID, ok := h.unitID(w, r)
	if !ok {
		return
	}
	var req datesRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	unit, err := h.service.UpdateDates(r.Context(), principal, productID, unitID, DatesPatch{
		ManufacturedOn: parseDate(req.ManufacturedOn),
		ExpiresOn:      parseDate(req.ExpiresOn),
		ClearExpiry:    req.ClearExpiry,
	}, req.Credentials)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, unit)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	unitID, ok := h.unitID(w, r)
	if !ok {
		return
	}
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.DeleteUnit(r.Context(), principal, productID, unitID, req.Credentials); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	unitID, ok := h.unitID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	in := TransitionInput{Target: req.Status, Credentials: req.Credentials}
	if req.Customer != nil {
		c := req.Customer.Input()
		in.Customer = &c
	}
	unit, err := h.service.Transition(r.Context(), principal, productID, unitID, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, unit)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req verifyRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	n, err := h.service.SetVerified(r.Context(), principal, productID, req.IDs, req.Verified, req.Credentials)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": n})
}

func (h *Handler) handleBulkPreview(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req bulkPreviewRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	preview, err := h.service.PreviewDelete(r.Context(), principal, req.Scope.toScope(productID))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) handleBulkEdit(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req bulkEditRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	result, err := h.service.BulkEdit(r.Context(), principal, BulkEditInput{
		Scope:       req.Scope.toScope(productID),
		Patch:       req.Patch.toPatch(),
		Credentials: req.Credentials,
	})
	if err != nil {
		h.logger.Warn("bulk edit failed", slog.Any("error", err), slog.String("product_id", productID.String()))
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	principal, productID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req bulkDeleteRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	result, err := h.service.BulkDelete(r.Context(), principal, BulkDeleteInput{
		Scope:        req.Scope.toScope(productID),
		Mode:         req.Mode,
		Confirmation: req.Confirmation,
		Credentials:  req.Credentials,
	})
	if err != nil {
		h.logger.Warn("bulk delete failed", slog.Any("error", err), slog.String("product_id", productID.String()))
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.logger.Info("bulk delete applied",
		slog.String("product_id", productID.String()),
		slog.Int64("deleted", result.Affected),
		slog.Bool("admin_override", result.AdminOverride))
	httpx.JSON(w, http.StatusOK, result)
}
