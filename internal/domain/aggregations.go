package domain

import (
	"errors"
	"fmt"
)

// Типизированные ответы агрегаций. Каждая форма проверяется при разборе (Validate),
// поэтому слой представления не делает «утиных» обращений по ключам.

// TermsBucket — бакет terms-агрегации.
type TermsBucket struct {
	Key      string `json:"key"`
	DocCount int64  `json:"doc_count"`
}

func (b TermsBucket) validate() error {
	if b.DocCount < 0 {
		return fmt.Errorf("bucket %q has negative doc_count", b.Key)
	}
	return nil
}

// TermsAgg — плоская terms-агрегация (pie, top victim IPs).
type TermsAgg struct {
	Buckets []TermsBucket `json:"buckets"`
}

func (a *TermsAgg) Validate() error {
	if a == nil || a.Buckets == nil {
		return errors.New("terms aggregation without buckets")
	}
	for _, b := range a.Buckets {
		if err := b.validate(); err != nil {
			return err
		}
	}
	return nil
}

// DateBucket — бакет date_histogram. Key — epoch millis, KeyAsString — ISO с миллисекундами.
type DateBucket struct {
	Key         int64  `json:"key"`
	KeyAsString string `json:"key_as_string"`
	DocCount    int64  `json:"doc_count"`
}

func (b DateBucket) validate() error {
	if b.DocCount < 0 {
		return fmt.Errorf("date bucket %d has negative doc_count", b.Key)
	}
	return nil
}

// DateHistogramAgg — дневная гистограмма.
type DateHistogramAgg struct {
	Buckets []DateBucket `json:"buckets"`
}

func (a *DateHistogramAgg) Validate() error {
	if a == nil || a.Buckets == nil {
		return errors.New("date_histogram without buckets")
	}
	for _, b := range a.Buckets {
		if err := b.validate(); err != nil {
			return err
		}
	}
	return nil
}

// MetricValue — одиночная метрика (avg, cardinality). Value == nil для avg без документов.
type MetricValue struct {
	Value *float64 `json:"value"`
}

// TypeOverTimeBucket — тип атаки с дневной гистограммой (линейный график).
type TypeOverTimeBucket struct {
	TermsBucket
	OverTime *DateHistogramAgg `json:"over_time"`
}

// TopTypesOverTime — top-3 типов атак, у каждого гистограмма по дням.
type TopTypesOverTime struct {
	Buckets []TypeOverTimeBucket `json:"buckets"`
}

func (a *TopTypesOverTime) Validate() error {
	if a == nil || a.Buckets == nil {
		return errors.New("top_attack_types without buckets")
	}
	for _, b := range a.Buckets {
		if err := b.validate(); err != nil {
			return err
		}
		if err := b.OverTime.Validate(); err != nil {
			return fmt.Errorf("over_time of %q: %w", b.Key, err)
		}
	}
	return nil
}

// DateTypesBucket — день с разбивкой по типам атак (stacked bars).
type DateTypesBucket struct {
	DateBucket
	AttackTypes *TermsAgg `json:"attack_types"`
}

// DateTypeBreakdown — обратная вложенность: дни → типы атак.
type DateTypeBreakdown struct {
	Buckets []DateTypesBucket `json:"buckets"`
}

func (a *DateTypeBreakdown) Validate() error {
	if a == nil || a.Buckets == nil {
		return errors.New("attacks_over_time without buckets")
	}
	for _, b := range a.Buckets {
		if err := b.validate(); err != nil {
			return err
		}
		if err := b.AttackTypes.Validate(); err != nil {
			return fmt.Errorf("attack_types of %d: %w", b.Key, err)
		}
	}
	return nil
}

// TileASOBucket — лист дерева: AS-организация со средней длительностью атаки (мс).
type TileASOBucket struct {
	TermsBucket
	AttackDuration *MetricValue `json:"attack_duration"`
}

type TileASOAgg struct {
	Buckets []TileASOBucket `json:"buckets"`
}

type TileCountryBucket struct {
	TermsBucket
	ASOrganizations *TileASOAgg `json:"autonomous_system_organization"`
}

type TileCountryAgg struct {
	Buckets []TileCountryBucket `json:"buckets"`
}

type TileTypeBucket struct {
	TermsBucket
	Countries *TileCountryAgg `json:"country"`
}

// TileAgg — трёхуровневая агрегация для treemap: тип атаки → страна → AS-организация.
type TileAgg struct {
	Buckets []TileTypeBucket `json:"buckets"`
}

func (a *TileAgg) Validate() error {
	if a == nil || a.Buckets == nil {
		return errors.New("type_of_attack without buckets")
	}
	for _, t := range a.Buckets {
		if err := t.validate(); err != nil {
			return err
		}
		if t.Countries == nil || t.Countries.Buckets == nil {
			return fmt.Errorf("type %q: country without buckets", t.Key)
		}
		for _, c := range t.Countries.Buckets {
			if err := c.validate(); err != nil {
				return fmt.Errorf("type %q: %w", t.Key, err)
			}
			if c.ASOrganizations == nil || c.ASOrganizations.Buckets == nil {
				return fmt.Errorf("type %q country %q: autonomous_system_organization without buckets", t.Key, c.Key)
			}
			for _, o := range c.ASOrganizations.Buckets {
				if err := o.validate(); err != nil {
					return fmt.Errorf("type %q country %q: %w", t.Key, c.Key, err)
				}
				if o.AttackDuration == nil {
					return fmt.Errorf("type %q country %q org %q: attack_duration missing", t.Key, c.Key, o.Key)
				}
			}
		}
	}
	return nil
}

// CardValues — сырые значения четырёх карточек.
type CardValues struct {
	TotalAttacks    int64    `json:"total_attacks"`
	UniqueVictimIPs int64    `json:"unique_victim_ips"`
	AttackTypes     int64    `json:"attack_types"`
	AvgDurationMs   *float64 `json:"avg_attack_duration_ms"`
}
