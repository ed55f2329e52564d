package service

import (
	"strings"
	"time"

	"github.com/mmeshcher/laundry-system/internal/apperr"
)

// DateLayout задаёт формат дат в параметрах запросов.
const DateLayout = "2006-01-02"

// DateRange описывает интервал целых дней в UTC: [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// Key возвращает представление интервала для ключей кэша.
func (r DateRange) Key() string {
	return r.From.Format(DateLayout) + ":" + r.To.Format(DateLayout)
}

// ParseDateRange разбирает границы start и end включительно. Нужна хотя бы одна граница:
// без end интервал заканчивается сегодняшним днём, без start начинается с начала эпохи.
// Дата end не может быть в будущем.
func ParseDateRange(start, end string, now time.Time) (DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return DateRange{}, apperr.Validation("at least one of start or end date is required")
	}

	today := truncateDay(now)

	from := time.Unix(0, 0).UTC()
	if start != "" {
		t, err := time.Parse(DateLayout, start)
		if err != nil {
			return DateRange{}, apperr.Validation("invalid start date, expected YYYY-MM-DD")
		}
		from = t
	}

	last := today
	if end != "" {
		t, err := time.Parse(DateLayout, end)
		if err != nil {
			return DateRange{}, apperr.Validation("invalid end date, expected YYYY-MM-DD")
		}
		if t.After(today) {
			return DateRange{}, apperr.Validation("end date cannot be in the future")
		}
		last = t
	}

	if from.After(last) {
		return DateRange{}, apperr.Validation("start date must not be after end date")
	}

	return DateRange{From: from, To: last.AddDate(0, 0, 1)}, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
