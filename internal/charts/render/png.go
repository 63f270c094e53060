// Package render рисует графики дашборда в PNG для экспорта и встраивания в отчёты.
package render

import (
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xela07ax/ddos-dashboard/internal/charts"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
)

const (
	width  = 960
	height = 480
)

var (
	// ErrEmptyChart — нечего рисовать: нет данных или все значения нулевые.
	ErrEmptyChart = errors.New("render: chart has no data")
	// ErrUnknownChart — PNG для графика не поддерживается (treemap рисует только браузер).
	ErrUnknownChart = errors.New("render: unknown chart")
)

// Названия графиков в URL /api/v1/charts/{chart}.png
const (
	ChartPie     = "pie"
	ChartLine    = "line"
	ChartStacked = "stacked"
	ChartBar     = "bar"
)

var palette = []drawing.Color{
	drawing.ColorFromHex("440154"),
	drawing.ColorFromHex("3b528b"),
	drawing.ColorFromHex("21918c"),
	drawing.ColorFromHex("5ec962"),
	drawing.ColorFromHex("fde725"),
	drawing.ColorFromHex("31688e"),
	drawing.ColorFromHex("35b779"),
	drawing.ColorFromHex("90d743"),
}

func color(i int) drawing.Color {
	return palette[i%len(palette)]
}

// Snapshot рисует один из графиков снапшота.
func Snapshot(w io.Writer, name string, snap *domain.DashboardSnapshot) error {
	switch name {
	case ChartPie:
		return Pie(w, snap.Pie)
	case ChartLine:
		return Lines(w, snap.Line)
	case ChartStacked:
		return Stacked(w, snap.Stacked)
	case ChartBar:
		return Bars(w, snap.Bar)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}

// Pie — доли типов атак.
func Pie(w io.Writer, slices []domain.PieSlice) error {
	values := make([]chart.Value, 0, len(slices))
	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: s.Label,
			Value: float64(s.Value),
			Style: chart.Style{FillColor: color(i), FontColor: drawing.ColorWhite},
		})
	}
	if len(values) == 0 {
		return ErrEmptyChart
	}

	pie := chart.PieChart{
		Title:  "Attack Types",
		Width:  width,
		Height: height,
		Values: values,
	}
	return pie.Render(chart.PNG, w)
}

// Bars — top-10 диапазонов IP жертв.
func Bars(w io.Writer, items []domain.BarItem) error {
	var maxV float64
	bars := make([]chart.Value, 0, len(items))
	for i, it := range items {
		v := float64(it.Count)
		if v > maxV {
			maxV = v
		}
		bars = append(bars, chart.Value{
			Label: it.IPRange,
			Value: v,
			Style: chart.Style{FillColor: color(i), StrokeColor: color(i)},
		})
	}
	if maxV <= 0 {
		return ErrEmptyChart
	}

	bc := chart.BarChart{
		Title:    "Top Victim IP Ranges",
		Width:    width,
		Height:   height,
		BarWidth: 48,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Bottom: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxV * 1.1},
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}

// Stacked — доли типов атак по дням. Дни без атак не рисуются.
func Stacked(w io.Writer, sc domain.StackedChart) error {
	bars := make([]chart.StackedBar, 0, len(sc.Dates))
	for d, date := range sc.Dates {
		values := []chart.Value{}
		for i, s := range sc.Series {
			if d >= len(s.Counts) || s.Counts[d] <= 0 {
				continue
			}
			values = append(values, chart.Value{
				Label: s.Name,
				Value: float64(s.Counts[d]),
				Style: chart.Style{FillColor: color(i), StrokeColor: color(i)},
			})
		}
		if len(values) == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{Name: date, Values: values})
	}
	if len(bars) == 0 {
		return ErrEmptyChart
	}

	sbc := chart.StackedBarChart{
		Title:  "Attack Types per Day",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Bars: bars,
	}
	return sbc.Render(chart.PNG, w)
}

// Lines — дневные ряды top-3 типов атак. Ось X — индекс дня с подписями dd/mm/yy.
func Lines(w io.Writer, lines []domain.LineSeries) error {
	dates := charts.LineAxis(lines)
	pos := make(map[string]int, len(dates))
	for i, d := range dates {
		pos[d] = i
	}
	if len(dates) == 0 {
		return ErrEmptyChart
	}

	var maxV float64
	series := make([]chart.Series, 0, len(lines))
	for i, l := range lines {
		if len(l.Points) == 0 {
			continue
		}
		xs := make([]float64, 0, len(l.Points))
		ys := make([]float64, 0, len(l.Points))
		for _, p := range l.Points {
			xs = append(xs, float64(pos[p.Date]))
			ys = append(ys, float64(p.Count))
			if float64(p.Count) > maxV {
				maxV = float64(p.Count)
			}
		}
		// go-chart требует минимум два значения по X
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    l.Name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: color(i), StrokeWidth: 2, DotColor: color(i), DotWidth: 3},
		})
	}
	if maxV <= 0 {
		maxV = 1
	}

	ticks := make([]chart.Tick, 0, len(dates))
	for i, d := range dates {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: d})
	}
	maxX := float64(len(dates) - 1)
	if maxX < 1 {
		maxX = 1
	}

	ch := chart.Chart{
		Title:      "Top Attack Types Over Time",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 24}},
		XAxis:      chart.XAxis{Name: "Date", Ticks: ticks, Range: &chart.ContinuousRange{Min: 0, Max: maxX}},
		YAxis:      chart.YAxis{Name: "Attacks", Range: &chart.ContinuousRange{Min: 0, Max: maxV * 1.1}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}
