// Package charts преобразует типизированные ответы агрегаций в серии для графиков.
// Все функции чистые и детерминированные: одинаковый вход даёт побайтно одинаковый JSON.
package charts

import (
	"fmt"

	"github.com/xela07ax/ddos-dashboard/internal/domain"
)

// Pie разворачивает terms-бакеты в пары (метка, количество). Порядок бакетов сохраняется.
func Pie(agg *domain.TermsAgg) []domain.PieSlice {
	out := make([]domain.PieSlice, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		out = append(out, domain.PieSlice{Label: b.Key, Value: b.DocCount})
	}
	return out
}

// Bars разворачивает top-10 диапазонов IP жертв.
func Bars(agg *domain.TermsAgg) []domain.BarItem {
	out := make([]domain.BarItem, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		out = append(out, domain.BarItem{IPRange: b.Key, Count: b.DocCount})
	}
	return out
}

// Lines строит по ряду на каждый из top-3 типов атак. Точки идут в порядке гистограммы.
func Lines(agg *domain.TopTypesOverTime) ([]domain.LineSeries, error) {
	out := make([]domain.LineSeries, 0, len(agg.Buckets))
	for _, t := range agg.Buckets {
		series := domain.LineSeries{Name: t.Key, Points: make([]domain.LinePoint, 0, len(t.OverTime.Buckets))}
		for _, b := range t.OverTime.Buckets {
			ts, err := bucketTime(b)
			if err != nil {
				return nil, fmt.Errorf("line %q: %w", t.Key, err)
			}
			series.Points = append(series.Points, domain.LinePoint{
				Date:  ts.Format(DayLayout),
				Key:   ts.UnixMilli(),
				Count: b.DocCount,
			})
		}
		out = append(out, series)
	}
	return out, nil
}

// Stacked инвертирует дерево «день → тип» в ряды «тип → значения по дням».
// Ряды заполняются нулями: у каждого типа ровно одно значение на каждую дату,
// иначе непересекающиеся категории съезжают по оси X.
// Порядок рядов — порядок первого появления типа.
func Stacked(agg *domain.DateTypeBreakdown) (domain.StackedChart, error) {
	chart := domain.StackedChart{
		Dates:  make([]string, 0, len(agg.Buckets)),
		Series: []domain.StackedSeries{},
	}
	index := make(map[string]int)

	for i, day := range agg.Buckets {
		label, err := BucketDay(day.DateBucket)
		if err != nil {
			return domain.StackedChart{}, err
		}
		chart.Dates = append(chart.Dates, label)

		for _, t := range day.AttackTypes.Buckets {
			pos, ok := index[t.Key]
			if !ok {
				pos = len(chart.Series)
				index[t.Key] = pos
				chart.Series = append(chart.Series, domain.StackedSeries{
					Name:   t.Key,
					Counts: make([]int64, len(agg.Buckets)),
				})
			}
			chart.Series[pos].Counts[i] += t.DocCount
		}
	}
	return chart, nil
}
