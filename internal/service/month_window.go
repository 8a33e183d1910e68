package service

import (
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

const reportMonths = 12

// monthWindow holds the first instant of each month of a trailing twelve-month
// window. Index 0 is eleven months before the current month.
type monthWindow []time.Time

func newMonthWindow(now time.Time, loc *time.Location) monthWindow {
	current := domain.StartOfMonth(now, loc)
	w := make(monthWindow, reportMonths)
	for i := range w {
		// Built from the date fields so each bucket lands on day 1
		w[i] = time.Date(current.Year(), current.Month()-time.Month(reportMonths-1-i), 1, 0, 0, 0, 0, loc)
	}
	return w
}

func (w monthWindow) start() time.Time {
	return w[0]
}

func (w monthWindow) keys() []string {
	keys := make([]string, len(w))
	for i, m := range w {
		keys[i] = domain.MonthKey(m.Year(), m.Month())
	}
	return keys
}

// bucketIncome places each (year, month) sum in its slot; months outside the window are ignored
func (w monthWindow) bucketIncome(sums []domain.MonthlyIncome) []int64 {
	index := make(map[string]int, len(w))
	for i, key := range w.keys() {
		index[key] = i
	}

	out := make([]int64, len(w))
	for _, s := range sums {
		if i, ok := index[domain.MonthKey(s.Year, s.Month)]; ok {
			out[i] += s.TotalIncome
		}
	}
	return out
}
