package charts

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
)

// Cards форматирует карточки: счётчики с разделителями тысяч,
// среднюю длительность — из миллисекунд в секунды с двумя знаками.
// null в avg (нет завершённых атак в окне) даёт "0.00 seconds".
func Cards(v domain.CardValues) domain.CardText {
	var avgMs float64
	if v.AvgDurationMs != nil {
		avgMs = *v.AvgDurationMs
	}
	return domain.CardText{
		TotalAttacks:      humanize.Comma(v.TotalAttacks),
		UniqueVictimIPs:   humanize.Comma(v.UniqueVictimIPs),
		AttackTypes:       humanize.Comma(v.AttackTypes),
		AvgAttackDuration: FormatDuration(avgMs),
	}
}

// FormatDuration переводит миллисекунды в "N.NN seconds".
func FormatDuration(ms float64) string {
	return fmt.Sprintf("%.2f seconds", ms/1000)
}
