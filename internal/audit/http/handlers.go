package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/audit"
	"github.com/odyssey-erp/unitdesk/internal/platform/httpx"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// ListService defines the business contract for bulk audit data.
type ListService interface {
	List(ctx context.Context, tenantID uuid.UUID, filters audit.ListFilters) (audit.Result, error)
}

// Handler menangani permintaan audit bulk.
type Handler struct {
	logger  *slog.Logger
	service ListService
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service ListService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.Principal(w, r)
	if !ok {
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	result, err := h.service.List(r.Context(), principal.TenantID, filters)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.Principal(w, r)
	if !ok {
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	result, err := h.service.List(r.Context(), principal.TenantID, filters)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	csvBytes, err := audit.WriteCSV(result.Rows)
	if err != nil {
		httpx.RespondError(w, h.logger, shared.Store("audit.export", err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"bulk-audit.csv\"")
	if _, err := w.Write(csvBytes); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func parseFilters(r *http.Request) (audit.ListFilters, error) {
	q := r.URL.Query()
	var filters audit.ListFilters
	if v := strings.TrimSpace(q.Get("product_id")); v != "" {
		id, err := httpx.UUIDParam(v, "product_id")
		if err != nil {
			return audit.ListFilters{}, err
		}
		filters.ProductID = id
	}
	switch op := audit.Operation(strings.TrimSpace(q.Get("operation"))); op {
	case "", audit.OpBulkDelete, audit.OpBulkEdit:
		filters.Operation = op
	default:
		return audit.ListFilters{}, shared.Validation("audit.filters", "invalid operation")
	}
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.ListFilters{}, shared.Validation("audit.filters", "invalid page")
		}
		filters.Page = parsed
	}
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.ListFilters{}, shared.Validation("audit.filters", "invalid page_size")
		}
		filters.PageSize = parsed
	}
	return filters, nil
}
