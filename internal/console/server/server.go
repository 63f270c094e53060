package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/ddos-dashboard/internal/console/handler"
	"github.com/xela07ax/ddos-dashboard/internal/engine"
	"go.uber.org/zap"
)

type DashboardServer struct {
	router   *chi.Mux
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	dashHandler *handler.DashboardHandler // /, /api/v1/dashboard, /api/v1/charts
}

// NewDashboardServer инициализирует HTTP сервер дашборда со всеми зависимостями
func NewDashboardServer(logger *zap.Logger, gatherer prometheus.Gatherer, dashH *handler.DashboardHandler) *DashboardServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &DashboardServer{
		router:      chi.NewRouter(),
		logger:      logger.Named("dashboard-api"),
		gatherer:    gatherer,
		dashHandler: dashH,
	}

	s.routes()
	return s
}

func (s *DashboardServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(engine.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// --- 2. Служебные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// --- 3. Дашборд ---
	r.Get("/", s.dashHandler.Page)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", s.dashHandler.GetDashboard)
		r.Get("/charts/{chart}.png", s.dashHandler.GetChartPNG)
	})
}

// ServeHTTP позволяет использовать DashboardServer как стандартный http.Handler
func (s *DashboardServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
