package domain

import "context"

// AttackRepository — шесть фиксированных запросов к хранилищу телеметрии.
// Все вызовы одного обновления получают один и тот же Window.
type AttackRepository interface {
	SummaryCardValues(ctx context.Context, w Window) (*CardValues, error)
	PieChartData(ctx context.Context, w Window) (*TermsAgg, error)
	TopAttackTypesOverTime(ctx context.Context, w Window) (*TopTypesOverTime, error)
	StackedColumnData(ctx context.Context, w Window) (*DateTypeBreakdown, error)
	TopVictimIPs(ctx context.Context, w Window) (*TermsAgg, error)
	TileChartData(ctx context.Context, w Window) (*TileAgg, error)
}
