package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"aw-insights/internal/errors"
	"aw-insights/internal/observability"
	"aw-insights/internal/services"
	"aw-insights/internal/store"
)

// Aggregates change only when the dataset is reloaded, so responses
// are safe to cache briefly at the edge.
var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	analytics *services.Analytics
	archive   *store.Store
	logger    *slog.Logger
}

// NewAPIHandlers wires the REST surface. archive may be nil when the
// snapshot history store is disabled.
func NewAPIHandlers(analytics *services.Analytics, archive *store.Store, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		archive:   archive,
		logger:    logger,
	}
}

// ready rejects requests with 503 until the first dataset load has
// completed.
func (h *APIHandlers) ready(w http.ResponseWriter, r *http.Request) bool {
	if !h.analytics.Ready() {
		requestID := observability.GetRequestID(r.Context())
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("No dataset loaded yet"), requestID)
		return false
	}
	return true
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.Summary(), cacheHeaders)
}

// HandleMonthlySales returns the monthly series with its fitted trend
// line and the six-month forecast.
func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	data := map[string]any{
		"monthly":  h.analytics.MonthlySales(),
		"trend":    h.analytics.Trend(),
		"forecast": h.analytics.Forecast(),
	}
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleSeasonal(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.Seasonal(), cacheHeaders)
}

func (h *APIHandlers) HandleCountrySales(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.CountrySales(), cacheHeaders)
}

func (h *APIHandlers) HandleRegionSales(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.RegionSales(), cacheHeaders)
}

func (h *APIHandlers) HandleGroupMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.GroupMetrics(), cacheHeaders)
}

func (h *APIHandlers) HandleCategorySales(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.CategorySales(), cacheHeaders)
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	limit, err := limitParam(r, 20)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.TopProducts(limit), cacheHeaders)
}

func (h *APIHandlers) HandleColorSales(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	limit, err := limitParam(r, 10)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.ColorSales(limit), cacheHeaders)
}

func (h *APIHandlers) HandlePricePoints(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.PricePoints(), cacheHeaders)
}

func (h *APIHandlers) HandleCustomerSegments(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.CustomerSegments(), cacheHeaders)
}

func (h *APIHandlers) HandleChurnRisk(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.ChurnRisk(), cacheHeaders)
}

func (h *APIHandlers) HandleTopCities(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	limit, err := limitParam(r, 10)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.TopCities(limit), cacheHeaders)
}

func (h *APIHandlers) HandleChannelMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.ChannelMetrics(), cacheHeaders)
}

func (h *APIHandlers) HandleBusinessTypes(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.BusinessTypes(), cacheHeaders)
}

func (h *APIHandlers) HandleTopResellers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	limit, err := limitParam(r, 10)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.TopResellers(limit), cacheHeaders)
}

func (h *APIHandlers) HandleOpportunities(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.Opportunities(), cacheHeaders)
}

func (h *APIHandlers) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	errors.WriteSuccessWithHeaders(w, h.analytics.Recommendations(), cacheHeaders)
}

func (h *APIHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	if h.archive == nil {
		errors.WriteError(w, h.logger, errors.NotFound("Snapshot history is not enabled"), requestID)
		return
	}

	limit, err := limitParam(r, 50)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	history, histErr := h.archive.History(r.Context(), limit)
	if histErr != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(histErr, "Failed to read snapshot history"), requestID)
		return
	}

	errors.WriteSuccess(w, history)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.analytics.Ready() {
		status = "loading"
	}

	errors.WriteSuccess(w, map[string]string{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// limitParam parses the optional ?limit= query parameter.
func limitParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 500 {
		return 0, errors.BadRequest("limit must be an integer between 1 and 500")
	}
	return limit, nil
}
