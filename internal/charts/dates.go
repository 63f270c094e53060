package charts

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/xela07ax/ddos-dashboard/internal/domain"
)

const (
	// bucketKeyLayout — формат key_as_string у date_histogram по полю timestamp.
	bucketKeyLayout = "2006-01-02T15:04:05.000Z07:00"
	// DayLayout — дневная гранулярность подписи оси X (dd/mm/yy).
	DayLayout = "02/01/06"
)

// BucketDay возвращает подпись дня для бакета гистограммы.
// Ключ со смещением рисуется в собственном смещении: полночь бакета остается тем же днем.
// Если key_as_string пуст, используется числовой ключ (epoch millis) в UTC.
func BucketDay(b domain.DateBucket) (string, error) {
	t, err := bucketTime(b)
	if err != nil {
		return "", err
	}
	return t.Format(DayLayout), nil
}

func bucketTime(b domain.DateBucket) (time.Time, error) {
	if b.KeyAsString == "" {
		return time.UnixMilli(b.Key).UTC(), nil
	}
	t, err := time.Parse(bucketKeyLayout, b.KeyAsString)
	if err != nil {
		// Допускаем ключи без миллисекунд
		t, err = time.Parse(time.RFC3339, b.KeyAsString)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad histogram key %q", domain.ErrMalformedResponse, b.KeyAsString)
		}
	}
	return t, nil
}

// LineAxis собирает общую ось дат для рядов Lines в хронологическом порядке.
// Ряды top-3 начинаются с разных дней, поэтому порядок появления не годится.
func LineAxis(lines []domain.LineSeries) []string {
	keys := make(map[string]int64)
	dates := []string{}
	for _, l := range lines {
		for _, p := range l.Points {
			k, ok := keys[p.Date]
			if !ok {
				dates = append(dates, p.Date)
				keys[p.Date] = p.Key
				continue
			}
			if p.Key < k {
				keys[p.Date] = p.Key
			}
		}
	}
	slices.SortStableFunc(dates, func(a, b string) int {
		return cmp.Compare(keys[a], keys[b])
	})
	return dates
}
