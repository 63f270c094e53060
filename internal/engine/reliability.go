package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
	"github.com/xela07ax/ddos-dashboard/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const breakerName = "elasticsearch"

// Имена запросов для метрик и логов.
const (
	QueryCards   = "cards"
	QueryPie     = "pie"
	QueryLine    = "line"
	QueryStacked = "stacked"
	QueryBar     = "bar"
	QueryTile    = "tile"
)

// ReliableRepo оборачивает AttackRepository: Rate Limiter → Circuit Breaker → Retry.
// Повторяются только ErrConnectivity, отказ запроса и битый ответ возвращаются сразу.
type ReliableRepo struct {
	next    domain.AttackRepository
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	cfg     infra.ReliabilityConfig
	metrics *Metrics
	logger  *zap.Logger
}

func NewReliableRepo(next domain.AttackRepository, cfg infra.ReliabilityConfig, metrics *Metrics, logger *zap.Logger) *ReliableRepo {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	logger = logger.Named("reliability")

	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: uint32(cfg.CBMaxRequests),
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.CBConsecutiveFailures)
		},
		// Отказ запроса и битый ответ — не проблема доступности кластера
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrConnectivity)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerGauge(to))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &ReliableRepo{
		next:    next,
		cb:      cb,
		limiter: rate.NewLimiter(limit, burst),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// guarded прогоняет один запрос через лимитер, предохранитель и ретраи.
func guarded[T any](ctx context.Context, r *ReliableRepo, query string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	start := time.Now()

	// 1. Rate Limiter
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%w: rate limit: %v", domain.ErrConnectivity, err)
	}

	// 2. Circuit Breaker
	res, err := r.cb.Execute(func() (interface{}, error) {
		var out T
		retrier := retry.New(
			retry.Context(ctx),
			retry.Attempts(uint(r.cfg.RetryAttempts)),
			retry.Delay(r.cfg.RetryDelay),
			// Умный расчет задержки
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Хранилище перегружено (429) — ждем столько, сколько оно просит
				var tErr *domain.ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}

				// В остальных случаях (сетевой лаг, 5xx) — стандартный экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				return errors.Is(err, domain.ErrConnectivity)
			}),
		)

		attempt := 0
		retryErr := retrier.Do(func() error {
			attempt++
			tCtx, cancel := attemptContext(ctx, r.cfg.AttemptTimeout)
			defer cancel()

			var callErr error
			out, callErr = call(tCtx)
			if callErr != nil && errors.Is(callErr, domain.ErrConnectivity) {
				r.logger.Debug("datastore attempt failed",
					zap.String("query", query),
					zap.Int("attempt", attempt),
					zap.Error(callErr))
			}
			return callErr
		})
		return out, retryErr
	})

	// 3. Открытый предохранитель — тоже недоступность хранилища
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", domain.ErrConnectivity, err)
	}

	status := "ok"
	if err != nil {
		status = "error"
		r.metrics.DatastoreErrors.WithLabelValues(ErrorType(err)).Inc()
	}
	r.metrics.QueryDuration.WithLabelValues(query, status).Observe(time.Since(start).Seconds())

	if err != nil {
		return zero, err
	}
	out, _ := res.(T)
	return out, nil
}

func attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *ReliableRepo) SummaryCardValues(ctx context.Context, w domain.Window) (*domain.CardValues, error) {
	return guarded(ctx, r, QueryCards, func(ctx context.Context) (*domain.CardValues, error) {
		return r.next.SummaryCardValues(ctx, w)
	})
}

func (r *ReliableRepo) PieChartData(ctx context.Context, w domain.Window) (*domain.TermsAgg, error) {
	return guarded(ctx, r, QueryPie, func(ctx context.Context) (*domain.TermsAgg, error) {
		return r.next.PieChartData(ctx, w)
	})
}

func (r *ReliableRepo) TopAttackTypesOverTime(ctx context.Context, w domain.Window) (*domain.TopTypesOverTime, error) {
	return guarded(ctx, r, QueryLine, func(ctx context.Context) (*domain.TopTypesOverTime, error) {
		return r.next.TopAttackTypesOverTime(ctx, w)
	})
}

func (r *ReliableRepo) StackedColumnData(ctx context.Context, w domain.Window) (*domain.DateTypeBreakdown, error) {
	return guarded(ctx, r, QueryStacked, func(ctx context.Context) (*domain.DateTypeBreakdown, error) {
		return r.next.StackedColumnData(ctx, w)
	})
}

func (r *ReliableRepo) TopVictimIPs(ctx context.Context, w domain.Window) (*domain.TermsAgg, error) {
	return guarded(ctx, r, QueryBar, func(ctx context.Context) (*domain.TermsAgg, error) {
		return r.next.TopVictimIPs(ctx, w)
	})
}

func (r *ReliableRepo) TileChartData(ctx context.Context, w domain.Window) (*domain.TileAgg, error) {
	return guarded(ctx, r, QueryTile, func(ctx context.Context) (*domain.TileAgg, error) {
		return r.next.TileChartData(ctx, w)
	})
}
