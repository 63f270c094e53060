package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/guptarohit/asciigraph"
	flag "github.com/spf13/pflag"

	"github.com/xela07ax/ddos-dashboard/internal/charts"
	"github.com/xela07ax/ddos-dashboard/internal/charts/render"
	"github.com/xela07ax/ddos-dashboard/internal/console/service"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
	"github.com/xela07ax/ddos-dashboard/internal/engine"
	"github.com/xela07ax/ddos-dashboard/internal/infra"
	"github.com/xela07ax/ddos-dashboard/internal/repository/elastic"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5ec962"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#31688e")).
			Padding(0, 2).
			Width(24)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b6b6b"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Faint(true)
)

var seriesColors = []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Blue, asciigraph.Green}

func main() {
	days := flag.IntP("days", "d", 0, "window size in days (default from config)")
	width := flag.IntP("width", "w", 72, "ASCII chart width")
	pngDir := flag.String("png-dir", "", "also write pie/line/stacked/bar PNG files into this directory")
	flag.Parse()

	if err := run(*days, *width, *pngDir); err != nil {
		fmt.Fprintf(os.Stderr, "ddosctl: %v\n", err)
		os.Exit(1)
	}
}

func run(days, width int, pngDir string) error {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	// Отчет печатается в stdout, логи только предупреждения и ошибки
	cfg.Logger.Level = "warn"
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if days == 0 {
		days = cfg.Dashboard.DefaultDays
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = engine.WithTraceID(ctx, uuid.New().String())

	esClient, err := elastic.NewClient(elastic.ClientConfig{
		ConnectionString: cfg.Elastic.URL,
		RequestTimeout:   cfg.Elastic.RequestTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer esClient.Stop()

	repo, err := elastic.NewAttackRepo(esClient, cfg.Elastic.URL, logger)
	if err != nil {
		return err
	}
	reliable := engine.NewReliableRepo(repo, cfg.Reliability, nil, logger)
	svc := service.NewDashboardService(reliable, cfg.Dashboard.MaxDays, nil, logger)

	snap, err := svc.Refresh(ctx, days)
	if err != nil {
		return err
	}

	fmt.Println(report(snap, width))

	if pngDir != "" {
		if err := writePNGs(snap, pngDir); err != nil {
			return err
		}
	}
	return nil
}

func report(snap *domain.DashboardSnapshot, width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("DDoS attacks, last %d day(s)", snap.Window.Days)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s – %s",
		snap.Window.Start.Format("2006-01-02 15:04:05Z"),
		snap.Window.End.Format("2006-01-02 15:04:05Z"))))
	b.WriteString("\n")

	cards := []string{
		card("Total Attacks", snap.Cards.TotalAttacks),
		card("Unique Victim IPs", snap.Cards.UniqueVictimIPs),
		card("Attack Types", snap.Cards.AttackTypes),
		card("Avg Attack Duration", snap.Cards.AvgAttackDuration),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Top 3 Attack Types Over Time"))
	b.WriteString("\n")
	b.WriteString(lineChart(snap.Line, width))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Top Victim IPs"))
	b.WriteString("\n")
	if len(snap.Bar) == 0 {
		b.WriteString(mutedStyle.Render("No data available"))
	}
	for _, it := range snap.Bar {
		b.WriteString(fmt.Sprintf("  %-20s %s\n", it.IPRange, valueStyle.Render(fmt.Sprint(it.Count))))
	}
	return b.String()
}

func card(label, value string) string {
	return cardStyle.Render(labelStyle.Render(label) + "\n" + valueStyle.Render(value))
}

// lineChart рисует ряды top-3 на общей оси дат. Пропущенные дни — нули.
func lineChart(lines []domain.LineSeries, width int) string {
	dates := charts.LineAxis(lines)
	pos := make(map[string]int, len(dates))
	for i, d := range dates {
		pos[d] = i
	}
	if len(dates) == 0 {
		return mutedStyle.Render("No data available")
	}

	data := make([][]float64, 0, len(lines))
	colors := make([]asciigraph.AnsiColor, 0, len(lines))
	legend := make([]string, 0, len(lines))
	for i, l := range lines {
		row := make([]float64, len(dates))
		for _, p := range l.Points {
			row[pos[p.Date]] = float64(p.Count)
		}
		// asciigraph требует хотя бы две точки для линии
		if len(row) == 1 {
			row = append(row, row[0])
		}
		data = append(data, row)
		colors = append(colors, seriesColors[i%len(seriesColors)])
		legend = append(legend, l.Name)
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(10),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legend...),
		asciigraph.Caption(dates[0]+" … "+dates[len(dates)-1]),
	)
}

func writePNGs(snap *domain.DashboardSnapshot, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range []string{render.ChartPie, render.ChartLine, render.ChartStacked, render.ChartBar} {
		var buf bytes.Buffer
		if err := render.Snapshot(&buf, name, snap); err != nil {
			if errors.Is(err, render.ErrEmptyChart) {
				continue
			}
			return err
		}
		path := filepath.Join(dir, name+".png")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Println(mutedStyle.Render("wrote " + path))
	}
	return nil
}
