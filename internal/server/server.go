package server

import (
	"log/slog"
	"net/http"

	"aw-insights/internal/handlers"
	"aw-insights/internal/services"
	"aw-insights/internal/store"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

// NewServer builds the route table. dashboard serves the root page;
// metrics serves the Prometheus scrape endpoint. archive may be nil.
func NewServer(analytics *services.Analytics, archive *store.Store, logger *slog.Logger, dashboard, metrics http.Handler) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, archive, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(dashboard, metrics)
	return s
}

func (s *Server) setupRoutes(dashboard, metrics http.Handler) {
	s.mux.Handle("GET /{$}", dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", metrics)

	// REST aggregates
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/monthly-sales", s.apiHandlers.HandleMonthlySales)
	s.mux.HandleFunc("GET /api/seasonal", s.apiHandlers.HandleSeasonal)
	s.mux.HandleFunc("GET /api/country-sales", s.apiHandlers.HandleCountrySales)
	s.mux.HandleFunc("GET /api/region-sales", s.apiHandlers.HandleRegionSales)
	s.mux.HandleFunc("GET /api/group-metrics", s.apiHandlers.HandleGroupMetrics)
	s.mux.HandleFunc("GET /api/category-sales", s.apiHandlers.HandleCategorySales)
	s.mux.HandleFunc("GET /api/top-products", s.apiHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /api/color-sales", s.apiHandlers.HandleColorSales)
	s.mux.HandleFunc("GET /api/price-points", s.apiHandlers.HandlePricePoints)
	s.mux.HandleFunc("GET /api/customer-segments", s.apiHandlers.HandleCustomerSegments)
	s.mux.HandleFunc("GET /api/churn-risk", s.apiHandlers.HandleChurnRisk)
	s.mux.HandleFunc("GET /api/top-cities", s.apiHandlers.HandleTopCities)
	s.mux.HandleFunc("GET /api/channel-metrics", s.apiHandlers.HandleChannelMetrics)
	s.mux.HandleFunc("GET /api/business-types", s.apiHandlers.HandleBusinessTypes)
	s.mux.HandleFunc("GET /api/top-resellers", s.apiHandlers.HandleTopResellers)
	s.mux.HandleFunc("GET /api/opportunities", s.apiHandlers.HandleOpportunities)
	s.mux.HandleFunc("GET /api/recommendations", s.apiHandlers.HandleRecommendations)
	s.mux.HandleFunc("GET /api/history", s.apiHandlers.HandleHistory)

	// Datastar SSE endpoints for the live dashboard
	s.mux.HandleFunc("GET /sse/country-sales", s.sseHandlers.HandleCountrySales)
	s.mux.HandleFunc("GET /sse/monthly-sales", s.sseHandlers.HandleMonthlySales)
	s.mux.HandleFunc("GET /sse/category-sales", s.sseHandlers.HandleCategorySales)
	s.mux.HandleFunc("GET /sse/top-products", s.sseHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /sse/channel-metrics", s.sseHandlers.HandleChannelMetrics)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
