package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xela07ax/ddos-dashboard/internal/console/handler"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
	"github.com/xela07ax/ddos-dashboard/internal/engine"
	"go.uber.org/zap"
)

type stubService struct {
	snap *domain.DashboardSnapshot
	err  error
	days []int
}

func (s *stubService) Refresh(ctx context.Context, days int) (*domain.DashboardSnapshot, error) {
	s.days = append(s.days, days)
	if days < 1 || days > 30 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidDays, days)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func testSnapshot() *domain.DashboardSnapshot {
	return &domain.DashboardSnapshot{
		Window: domain.Window{Days: 1},
		Cards:  domain.CardText{TotalAttacks: "1,200", UniqueVictimIPs: "3", AttackTypes: "2", AvgAttackDuration: "1.50 seconds"},
		Pie:    []domain.PieSlice{{Label: "udp_flood", Value: 1000}, {Label: "syn_flood", Value: 200}},
		Line:   []domain.LineSeries{{Name: "udp_flood", Points: []domain.LinePoint{{Date: "01/03/24", Count: 1000}}}},
		Stacked: domain.StackedChart{
			Dates:  []string{"01/03/24"},
			Series: []domain.StackedSeries{{Name: "udp_flood", Counts: []int64{1000}}},
		},
		Bar:     []domain.BarItem{},
		Treemap: []domain.TreemapNode{},
	}
}

func newTestServer(svc *stubService) (*DashboardServer, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	engine.NewMetrics(reg).RefreshTotal.WithLabelValues("ok").Inc()
	h := handler.NewDashboardHandler(svc, 1, 30, zap.NewNop())
	return NewDashboardServer(zap.NewNop(), reg, h), reg
}

func do(t *testing.T, s http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDashboardAPI(t *testing.T) {
	svc := &stubService{snap: testSnapshot()}
	s, _ := newTestServer(svc)

	rec := do(t, s, "/api/v1/dashboard?days=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var got domain.DashboardSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Cards.TotalAttacks != "1,200" || len(got.Pie) != 2 || svc.days[0] != 7 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if rec.Header().Get(engine.TraceHeader) == "" {
		t.Fatalf("expected trace id header")
	}
}

func TestDashboardAPIDefaultDays(t *testing.T) {
	svc := &stubService{snap: testSnapshot()}
	s, _ := newTestServer(svc)

	if rec := do(t, s, "/api/v1/dashboard"); rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if svc.days[0] != 1 {
		t.Fatalf("expected default days 1, got %d", svc.days[0])
	}
}

func TestDashboardAPIErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"not a number", "/api/v1/dashboard?days=abc", nil, http.StatusBadRequest},
		{"zero days", "/api/v1/dashboard?days=0", nil, http.StatusBadRequest},
		{"negative days", "/api/v1/dashboard?days=-2", nil, http.StatusBadRequest},
		{"above max", "/api/v1/dashboard?days=31", nil, http.StatusBadRequest},
		{"unreachable", "/api/v1/dashboard?days=1", fmt.Errorf("cards query: %w", domain.ErrConnectivity), http.StatusServiceUnavailable},
		{"rejected", "/api/v1/dashboard?days=1", fmt.Errorf("pie query: %w", domain.ErrQueryRejected), http.StatusBadGateway},
		{"malformed", "/api/v1/dashboard?days=1", fmt.Errorf("tile query: %w", domain.ErrMalformedResponse), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&stubService{snap: testSnapshot(), err: tt.err})
			rec := do(t, s, tt.path)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("expected json error body, got %q", rec.Body.String())
			}
		})
	}
}

func TestDashboardAPIHidesDatastoreDetails(t *testing.T) {
	leaky := fmt.Errorf("cards query: %w: dial tcp 10.1.2.3:9200: connection refused", domain.ErrConnectivity)
	s, _ := newTestServer(&stubService{snap: testSnapshot(), err: leaky})

	rec := do(t, s, "/api/v1/dashboard?days=1")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "datastore unavailable" {
		t.Fatalf("unexpected error message %q", body["error"])
	}
	if strings.Contains(rec.Body.String(), "10.1.2.3") {
		t.Fatalf("response leaks datastore address: %s", rec.Body.String())
	}
}

func TestDashboardAPIThrottled(t *testing.T) {
	throttled := &domain.ThrottleError{
		RetryAfter: 1500 * time.Millisecond,
		Cause:      fmt.Errorf("%w: status 429", domain.ErrConnectivity),
	}
	s, _ := newTestServer(&stubService{snap: testSnapshot(), err: throttled})

	rec := do(t, s, "/api/v1/dashboard?days=1")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
}

func TestChartPNG(t *testing.T) {
	s, _ := newTestServer(&stubService{snap: testSnapshot()})

	rec := do(t, s, "/api/v1/charts/pie.png?days=1")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("body is not a PNG")
	}

	if rec := do(t, s, "/api/v1/charts/bar.png?days=1"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for empty chart, got %d", rec.Code)
	}
	if rec := do(t, s, "/api/v1/charts/tile.png?days=1"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for tile, got %d", rec.Code)
	}
}

func TestPageHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(&stubService{snap: testSnapshot()})

	rec := do(t, s, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "DDoS Attack Dashboard") {
		t.Fatalf("unexpected page response %d", rec.Code)
	}
	if rec := do(t, s, "/health"); rec.Code != http.StatusOK {
		t.Fatalf("unexpected health status %d", rec.Code)
	}
	rec = do(t, s, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ddos_dashboard_refresh_total") {
		t.Fatalf("metrics endpoint does not expose dashboard metrics: %d", rec.Code)
	}
}
