package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/unitdesk/internal/platform/httpx"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Handler serves the catalog JSON endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Post("/products", h.Create)
	r.Get("/products/{productID}", h.Show)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.Principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := ListFilter{Search: q.Get("search")}
	if v := q.Get("is_active"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}
	page := shared.Page{}
	page.Number, _ = strconv.Atoi(q.Get("page"))
	page.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	page = page.Normalize(50, 200)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	items, total, err := h.service.List(r.Context(), principal.TenantID, filter)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products":   items,
		"pagination": shared.NewPagination(page.Number, page.PerPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.Principal(w, r)
	if !ok {
		return
	}
	id, err := httpx.UUIDParam(chi.URLParam(r, "productID"), "product id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	product, err := h.service.Get(r.Context(), principal.TenantID, id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.Principal(w, r)
	if !ok {
		return
	}
	var req CreateProductRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	product, err := h.service.Create(r.Context(), principal.TenantID, req)
	if err != nil {
		h.logger.Warn("create product failed", slog.Any("error", err), slog.String("tenant_id", principal.TenantID.String()))
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}
