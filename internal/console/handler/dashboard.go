package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/ddos-dashboard/internal/charts/render"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
	"github.com/xela07ax/ddos-dashboard/internal/engine"
	"github.com/xela07ax/ddos-dashboard/web"
	"go.uber.org/zap"
)

// DashboardService Описываем, что нам нужно от сервиса
type DashboardService interface {
	Refresh(ctx context.Context, days int) (*domain.DashboardSnapshot, error)
}

type DashboardHandler struct {
	service     DashboardService
	logger      *zap.Logger
	defaultDays int
	maxDays     int
}

func NewDashboardHandler(s DashboardService, defaultDays, maxDays int, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:     s,
		logger:      logger.Named("dashboard-handler"),
		defaultDays: defaultDays,
		maxDays:     maxDays,
	}
}

// Page отдает страницу дашборда.
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := web.RenderIndex(&buf, web.PageData{DefaultDays: h.defaultDays, MaxDays: h.maxDays}); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// GetDashboard — GET /api/v1/dashboard?days=N
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	days, ok := h.parseDays(w, r)
	if !ok {
		return
	}

	snap, err := h.service.Refresh(r.Context(), days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.logger.Warn("failed to encode snapshot", zap.Error(err))
	}
}

// GetChartPNG — GET /api/v1/charts/{chart}.png?days=N
func (h *DashboardHandler) GetChartPNG(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "chart")
	switch name {
	case render.ChartPie, render.ChartLine, render.ChartStacked, render.ChartBar:
	default:
		writeError(w, r, http.StatusNotFound, "unknown chart: "+name)
		return
	}

	days, ok := h.parseDays(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Refresh(r.Context(), days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := render.Snapshot(&buf, name, snap); err != nil {
		if errors.Is(err, render.ErrEmptyChart) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.logger.Error("failed to render chart", zap.String("chart", name), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// parseDays читает ?days. Пусто — значение по умолчанию; не число — 400.
func (h *DashboardHandler) parseDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return h.defaultDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "days must be an integer")
		return 0, false
	}
	return days, true
}

func (h *DashboardHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("dashboard request failed",
			zap.Int("status", status),
			zap.String("trace_id", engine.TraceID(r.Context())),
			zap.Error(err))
	}
	var tErr *domain.ThrottleError
	if errors.As(err, &tErr) {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(tErr.RetryAfter.Seconds()))))
	}
	writeError(w, r, status, h.publicMessage(err))
}

// publicMessage — короткий текст для клиента. Полная ошибка (причина ES, адрес узла) остается в логе.
func (h *DashboardHandler) publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidDays):
		return fmt.Sprintf("days must be an integer between 1 and %d", h.maxDays)
	case errors.Is(err, domain.ErrConnectivity):
		return "datastore unavailable"
	case errors.Is(err, domain.ErrQueryRejected):
		return "datastore rejected the query"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "unexpected datastore response"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	default:
		return "internal error"
	}
}

// statusFor переводит доменные ошибки в HTTP статусы.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidDays):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConnectivity):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrQueryRejected), errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":    msg,
		"trace_id": engine.TraceID(r.Context()),
	})
}
