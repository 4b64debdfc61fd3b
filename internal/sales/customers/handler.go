package customers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/unitdesk/internal/platform/httpx"
)

// Handler serves customer suggestion and resolution endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the customer handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers/suggest", h.Suggest)
	r.Post("/customers/resolve", h.Resolve)
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.Principal(w, r)
	if !ok {
		return
	}
	items := h.service.Suggest(r.Context(), principal.TenantID, r.URL.Query().Get("q"))
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": items})
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.Principal(w, r)
	if !ok {
		return
	}
	var payload Payload
	if err := httpx.Bind(r, &payload); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	customer, err := h.service.ResolveOrCreate(r.Context(), principal.TenantID, payload.Input())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}
