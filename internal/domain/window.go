package domain

import "time"

// Window — окно запроса [End - Days, End]. Одно окно на весь цикл обновления:
// все шесть запросов и значения карточек обязаны использовать один и тот же экземпляр.
type Window struct {
	Days  int       `json:"days"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow строит окно от момента now. Время усекается до секунды и приводится к UTC.
func NewWindow(days int, now time.Time) Window {
	end := now.UTC().Truncate(time.Second)
	return Window{
		Days:  days,
		Start: end.Add(-time.Duration(days) * 24 * time.Hour),
		End:   end,
	}
}
