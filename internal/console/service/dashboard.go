package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xela07ax/ddos-dashboard/internal/charts"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
	"github.com/xela07ax/ddos-dashboard/internal/engine"
	"go.uber.org/zap"
)

// SnapshotCache описывает требования к кэшу готовых снапшотов
type SnapshotCache interface {
	Get(ctx context.Context, days int) (*domain.DashboardSnapshot, bool, error)
	Set(ctx context.Context, snap *domain.DashboardSnapshot) error
}

// DashboardService выполняет цикл обновления: одно окно → шесть запросов → пять графиков и четыре карточки.
type DashboardService struct {
	repo    domain.AttackRepository
	cache   SnapshotCache
	metrics *engine.Metrics
	logger  *zap.Logger
	maxDays int
	now     func() time.Time
}

func NewDashboardService(repo domain.AttackRepository, maxDays int, metrics *engine.Metrics, logger *zap.Logger) *DashboardService {
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	return &DashboardService{
		repo:    repo,
		metrics: metrics,
		logger:  logger.Named("dashboard-service"),
		maxDays: maxDays,
		now:     time.Now,
	}
}

// WithCache подключает кэш снапшотов. Без вызова сервис всегда ходит в хранилище.
func (s *DashboardService) WithCache(c SnapshotCache) *DashboardService {
	s.cache = c
	return s
}

// MaxDays — верхняя граница окна.
func (s *DashboardService) MaxDays() int {
	return s.maxDays
}

// ValidateDays проверяет ввод пользователя до любых запросов.
func (s *DashboardService) ValidateDays(days int) error {
	if days < 1 || (s.maxDays > 0 && days > s.maxDays) {
		return fmt.Errorf("%w: %d not in [1, %d]", domain.ErrInvalidDays, days, s.maxDays)
	}
	return nil
}

// Refresh пересчитывает весь дашборд для окна в days суток.
func (s *DashboardService) Refresh(ctx context.Context, days int) (*domain.DashboardSnapshot, error) {
	log := s.logger.With(zap.Int("days", days), zap.String("trace_id", engine.TraceID(ctx)))

	// 1. Validation
	if err := s.ValidateDays(days); err != nil {
		s.metrics.RefreshTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	// 2. Cache
	if snap := s.lookup(ctx, log, days); snap != nil {
		s.metrics.RefreshTotal.WithLabelValues("cached").Inc()
		return snap, nil
	}

	// 3. Одно окно на все запросы цикла
	w := domain.NewWindow(days, s.now())
	start := time.Now()

	snap, query, err := s.compute(ctx, w)
	if err != nil {
		s.metrics.RefreshTotal.WithLabelValues("error").Inc()
		log.Error("dashboard refresh failed",
			zap.String("query", query),
			zap.String("error_type", engine.ErrorType(err)),
			zap.Error(err))
		return nil, fmt.Errorf("%s query: %w", query, err)
	}

	s.metrics.RefreshTotal.WithLabelValues("ok").Inc()
	log.Info("dashboard refreshed",
		zap.Time("window_start", w.Start),
		zap.Time("window_end", w.End),
		zap.Int64("total_attacks", snap.CardValues.TotalAttacks),
		zap.Duration("elapsed", time.Since(start)))

	// 4. Store
	if s.cache != nil {
		if err := s.cache.Set(ctx, snap); err != nil {
			log.Warn("failed to store snapshot in cache", zap.Error(err))
		}
	}
	return snap, nil
}

// Warmup считает снапшот и кладет его в кэш (вызывается из engine.WarmupSnapshot).
func (s *DashboardService) Warmup(ctx context.Context, days int) error {
	_, err := s.Refresh(ctx, days)
	return err
}

func (s *DashboardService) lookup(ctx context.Context, log *zap.Logger, days int) *domain.DashboardSnapshot {
	if s.cache == nil {
		return nil
	}
	snap, ok, err := s.cache.Get(ctx, days)
	switch {
	case err != nil:
		s.metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warn("snapshot cache unavailable", zap.Error(err))
		return nil
	case !ok:
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	default:
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return snap
	}
}

// compute выполняет шесть запросов строго последовательно в порядке:
// cards, pie, line, stacked, bar, tile. Возвращает имя упавшего запроса.
func (s *DashboardService) compute(ctx context.Context, w domain.Window) (*domain.DashboardSnapshot, string, error) {
	snap := &domain.DashboardSnapshot{Window: w}

	values, err := s.repo.SummaryCardValues(ctx, w)
	if err != nil {
		return nil, engine.QueryCards, err
	}
	snap.CardValues = *values
	snap.Cards = charts.Cards(*values)

	pie, err := s.repo.PieChartData(ctx, w)
	if err != nil {
		return nil, engine.QueryPie, err
	}
	snap.Pie = charts.Pie(pie)

	line, err := s.repo.TopAttackTypesOverTime(ctx, w)
	if err != nil {
		return nil, engine.QueryLine, err
	}
	if snap.Line, err = charts.Lines(line); err != nil {
		return nil, engine.QueryLine, err
	}

	stacked, err := s.repo.StackedColumnData(ctx, w)
	if err != nil {
		return nil, engine.QueryStacked, err
	}
	if snap.Stacked, err = charts.Stacked(stacked); err != nil {
		return nil, engine.QueryStacked, err
	}

	bar, err := s.repo.TopVictimIPs(ctx, w)
	if err != nil {
		return nil, engine.QueryBar, err
	}
	snap.Bar = charts.Bars(bar)

	tile, err := s.repo.TileChartData(ctx, w)
	if err != nil {
		return nil, engine.QueryTile, err
	}
	snap.TreemapRows = charts.TreemapRows(tile)
	snap.Treemap = charts.TreemapTree(snap.TreemapRows)

	snap.GeneratedAt = s.now().UTC()
	return snap, "", nil
}
