package domain

import "time"

// PieSlice — доля типа атаки.
type PieSlice struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// LinePoint — точка дневного ряда. Key — начало бакета в epoch millis, по нему сортируется ось.
type LinePoint struct {
	Date  string `json:"date"` // dd/mm/yy
	Key   int64  `json:"key"`
	Count int64  `json:"count"`
}

// LineSeries — временной ряд одного из top-3 типов атак.
type LineSeries struct {
	Name   string      `json:"name"`
	Points []LinePoint `json:"points"`
}

// StackedSeries — ряд одного типа атаки, выровненный по StackedChart.Dates.
type StackedSeries struct {
	Name   string  `json:"name"`
	Counts []int64 `json:"counts"`
}

type StackedChart struct {
	Dates  []string        `json:"dates"`
	Series []StackedSeries `json:"series"`
}

type BarItem struct {
	IPRange string `json:"ip_range"`
	Count   int64  `json:"count"`
}

// TreemapRow — плоская строка дерева «тип → страна → AS-организация».
type TreemapRow struct {
	AttackType     string  `json:"type_of_attack"`
	Country        string  `json:"country"`
	ASOrganization string  `json:"autonomous_system_organization"`
	Attacks        int64   `json:"number_of_attacks"`
	AvgDurationMs  float64 `json:"avg_attack_duration"`
}

// TreemapNode — узел иерархии. Площадь = Value, цвет = AvgDurationMs.
type TreemapNode struct {
	Name          string        `json:"name"`
	Value         int64         `json:"value"`
	AvgDurationMs float64       `json:"avg_attack_duration"`
	Children      []TreemapNode `json:"children,omitempty"`
}

// CardText — отформатированный текст карточек.
type CardText struct {
	TotalAttacks      string `json:"total_attacks"`
	UniqueVictimIPs   string `json:"unique_victim_ips"`
	AttackTypes       string `json:"attack_types"`
	AvgAttackDuration string `json:"avg_attack_duration"`
}

// DashboardSnapshot — полный результат одного цикла обновления: 4 карточки + 5 графиков.
type DashboardSnapshot struct {
	Window      Window        `json:"window"`
	Cards       CardText      `json:"cards"`
	CardValues  CardValues    `json:"card_values"`
	Pie         []PieSlice    `json:"pie"`
	Line        []LineSeries  `json:"line"`
	Stacked     StackedChart  `json:"stacked"`
	Bar         []BarItem     `json:"bar"`
	TreemapRows []TreemapRow  `json:"treemap_rows"`
	Treemap     []TreemapNode `json:"treemap"`
	GeneratedAt time.Time     `json:"generated_at"`
}
