package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	es "github.com/olivere/elastic/v7"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
	"go.uber.org/zap"
)

// Контракт с продюсером данных: имена индекса и полей должны совпадать побайтно.
const (
	IndexPattern = "a10_amplification_test-*"

	FieldTimestamp       = "timestamp"
	FieldAttackType      = "attack_type.keyword"
	FieldVictimIPRange   = "victim_ip_range.keyword"
	FieldCountry         = "geoip.country.keyword"
	FieldASOrganization  = "geoip.autonomous_system_organization.keyword"
	CalendarIntervalDay  = "day"
	AttackDurationScript = "doc['last_updated_time'].value.toInstant().toEpochMilli() - doc['timestamp'].value.toInstant().toEpochMilli()"

	// MaxAttackTypes — размер terms для pie: все типы в окне, чтобы число долей
	// совпадало с карточкой cardinality(attack_type).
	MaxAttackTypes  = 500
	TopAttackTypes  = 3
	TopVictimRanges = 10
)

// Имена агрегаций в запросах и ответах.
const (
	aggAttackTypes       = "attack_types"
	aggTopAttackTypes    = "top_attack_types"
	aggOverTime          = "over_time"
	aggAttacksOverTime   = "attacks_over_time"
	aggTopVictimIPs      = "top_victim_ips"
	aggTypeOfAttack      = "type_of_attack"
	aggCountry           = "country"
	aggASOrganization    = "autonomous_system_organization"
	aggAttackDuration    = "attack_duration"
	aggUniqueVictimIPs   = "unique_victim_ips"
	aggAvgAttackDuration = "avg_attack_duration"
)

// AttackRepo выполняет фиксированные агрегационные запросы к индексу атак. Только чтение.
type AttackRepo struct {
	client  *es.Client
	index   string
	pingURL string
	logger  *zap.Logger
}

// NewAttackRepo создает репозиторий поверх готового клиента.
func NewAttackRepo(client *es.Client, connString string, logger *zap.Logger) (*AttackRepo, error) {
	urls, _, _, err := parseConnectionString(connString)
	if err != nil {
		return nil, err
	}
	return &AttackRepo{
		client:  client,
		index:   IndexPattern,
		pingURL: urls[0],
		logger:  logger.Named("attack-repo"),
	}, nil
}

// Ping проверяет доступность хранилища при старте.
func (r *AttackRepo) Ping(ctx context.Context) error {
	_, code, err := r.client.Ping(r.pingURL).Do(ctx)
	if err != nil {
		return classify(err)
	}
	if code >= 300 {
		return fmt.Errorf("%w: ping returned status %d", domain.ErrConnectivity, code)
	}
	return nil
}

// windowQuery — общий фильтр всех запросов. Границы форматируются из одного Window.
func windowQuery(w domain.Window) es.Query {
	return es.NewRangeQuery(FieldTimestamp).
		Gte(w.Start.Format(time.RFC3339)).
		Lte(w.End.Format(time.RFC3339))
}

func durationScript() *es.Script {
	return es.NewScript(AttackDurationScript)
}

// search выполняет запрос с одной агрегацией верхнего уровня и возвращает её сырой JSON.
func (r *AttackRepo) search(ctx context.Context, w domain.Window, name string, agg es.Aggregation) (json.RawMessage, error) {
	start := time.Now()
	res, err := r.client.Search().
		Index(r.index).
		Query(windowQuery(w)).
		Aggregation(name, agg).
		Size(0).
		Do(ctx)
	if err != nil {
		r.logger.Warn("search failed", zap.String("aggregation", name), zap.Error(err))
		return nil, classify(err)
	}
	r.logger.Debug("search done",
		zap.String("aggregation", name),
		zap.Int64("took_ms", res.TookInMillis),
		zap.Duration("elapsed", time.Since(start)))

	raw, ok := res.Aggregations[name]
	if !ok {
		return nil, fmt.Errorf("%w: aggregation %q missing", domain.ErrMalformedResponse, name)
	}
	return raw, nil
}

// PieChartData — распределение по типам атак.
func (r *AttackRepo) PieChartData(ctx context.Context, w domain.Window) (*domain.TermsAgg, error) {
	agg := es.NewTermsAggregation().Field(FieldAttackType).Size(MaxAttackTypes)
	raw, err := r.search(ctx, w, aggAttackTypes, agg)
	if err != nil {
		return nil, err
	}
	out := &domain.TermsAgg{}
	if err := decode(aggAttackTypes, raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopAttackTypesOverTime — top-3 типа атак, у каждого дневная гистограмма.
func (r *AttackRepo) TopAttackTypesOverTime(ctx context.Context, w domain.Window) (*domain.TopTypesOverTime, error) {
	agg := es.NewTermsAggregation().
		Field(FieldAttackType).
		Size(TopAttackTypes).
		SubAggregation(aggOverTime, es.NewDateHistogramAggregation().
			Field(FieldTimestamp).
			CalendarInterval(CalendarIntervalDay))
	raw, err := r.search(ctx, w, aggTopAttackTypes, agg)
	if err != nil {
		return nil, err
	}
	out := &domain.TopTypesOverTime{}
	if err := decode(aggTopAttackTypes, raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// StackedColumnData — дневная гистограмма с разбивкой по типам (обратная вложенность).
func (r *AttackRepo) StackedColumnData(ctx context.Context, w domain.Window) (*domain.DateTypeBreakdown, error) {
	agg := es.NewDateHistogramAggregation().
		Field(FieldTimestamp).
		CalendarInterval(CalendarIntervalDay).
		SubAggregation(aggAttackTypes, es.NewTermsAggregation().Field(FieldAttackType))
	raw, err := r.search(ctx, w, aggAttacksOverTime, agg)
	if err != nil {
		return nil, err
	}
	out := &domain.DateTypeBreakdown{}
	if err := decode(aggAttacksOverTime, raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopVictimIPs — top-10 диапазонов IP жертв.
func (r *AttackRepo) TopVictimIPs(ctx context.Context, w domain.Window) (*domain.TermsAgg, error) {
	agg := es.NewTermsAggregation().Field(FieldVictimIPRange).Size(TopVictimRanges)
	raw, err := r.search(ctx, w, aggTopVictimIPs, agg)
	if err != nil {
		return nil, err
	}
	out := &domain.TermsAgg{}
	if err := decode(aggTopVictimIPs, raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// TileChartData — тип атаки → страна → AS-организация со средней длительностью в листьях.
func (r *AttackRepo) TileChartData(ctx context.Context, w domain.Window) (*domain.TileAgg, error) {
	orgs := es.NewTermsAggregation().
		Field(FieldASOrganization).
		SubAggregation(aggAttackDuration, es.NewAvgAggregation().Script(durationScript()))
	countries := es.NewTermsAggregation().
		Field(FieldCountry).
		SubAggregation(aggASOrganization, orgs)
	agg := es.NewTermsAggregation().
		Field(FieldAttackType).
		SubAggregation(aggCountry, countries)

	raw, err := r.search(ctx, w, aggTypeOfAttack, agg)
	if err != nil {
		return nil, err
	}
	out := &domain.TileAgg{}
	if err := decode(aggTypeOfAttack, raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SummaryCardValues — четыре независимых скалярных запроса в одном окне.
func (r *AttackRepo) SummaryCardValues(ctx context.Context, w domain.Window) (*domain.CardValues, error) {
	total, err := r.client.Count(r.index).Query(windowQuery(w)).Do(ctx)
	if err != nil {
		r.logger.Warn("count failed", zap.Error(err))
		return nil, classify(err)
	}

	victims, err := r.metric(ctx, w, aggUniqueVictimIPs, es.NewCardinalityAggregation().Field(FieldVictimIPRange))
	if err != nil {
		return nil, err
	}
	types, err := r.metric(ctx, w, aggAttackTypes, es.NewCardinalityAggregation().Field(FieldAttackType))
	if err != nil {
		return nil, err
	}
	avg, err := r.metric(ctx, w, aggAvgAttackDuration, es.NewAvgAggregation().Script(durationScript()))
	if err != nil {
		return nil, err
	}

	return &domain.CardValues{
		TotalAttacks:    total,
		UniqueVictimIPs: int64OrZero(victims),
		AttackTypes:     int64OrZero(types),
		AvgDurationMs:   avg,
	}, nil
}

// metric выполняет одиночную метрику. Ключ "value" обязателен, null допустим.
func (r *AttackRepo) metric(ctx context.Context, w domain.Window, name string, agg es.Aggregation) (*float64, error) {
	raw, err := r.search(ctx, w, name, agg)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: aggregation %q: %v", domain.ErrMalformedResponse, name, err)
	}
	value, ok := fields["value"]
	if !ok {
		return nil, fmt.Errorf("%w: aggregation %q has no value", domain.ErrMalformedResponse, name)
	}
	var v *float64
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, fmt.Errorf("%w: aggregation %q: %v", domain.ErrMalformedResponse, name, err)
	}
	return v, nil
}

func int64OrZero(v *float64) int64 {
	if v == nil {
		return 0
	}
	return int64(*v)
}
