package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fuelbook/fuelbook/internal/platform/httpx"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// Handler wires the audit timeline endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes under /audit.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := TimelineFilters{
		EntityType: q.Get("entity_type"),
		Action:     q.Get("action"),
	}
	if raw := q.Get("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid actor id")
			return
		}
		filters.ActorID = id
	}
	if raw := q.Get("from"); raw != "" {
		from, err := parseTimeParam(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid from time")
			return
		}
		filters.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := parseTimeParam(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid to time")
			return
		}
		filters.To = to
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rows":   result.Rows,
		"paging": result.Paging,
	})
}

func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(shared.DateLayout, raw)
}
