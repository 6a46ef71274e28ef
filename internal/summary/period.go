package summary

import (
	"fmt"
	"math"
	"time"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/taxonomy"
)

type ComparisonMode string

const (
	DayAdjacent       ComparisonMode = "day_adjacent"
	DaySamePrevMonth  ComparisonMode = "day_same_prev_month"
	WeekAdjacent      ComparisonMode = "week_adjacent"
	WeekSamePrevMonth ComparisonMode = "week_same_prev_month"
	MonthAdjacent     ComparisonMode = "month_adjacent"
)

func ParseComparisonMode(s string) (ComparisonMode, error) {
	switch m := ComparisonMode(s); m {
	case DayAdjacent, DaySamePrevMonth, WeekAdjacent, WeekSamePrevMonth, MonthAdjacent:
		return m, nil
	}
	return "", fmt.Errorf("unknown comparison mode %q", s)
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// dayWindow covers one calendar day, 00:00:00 to 23:59:59.999.
func dayWindow(y int, m time.Month, d int, loc *time.Location) Window {
	return Window{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc),
	}
}

func spanWindow(y int, m time.Month, from, to int, loc *time.Location) Window {
	return Window{
		Start: dayWindow(y, m, from, loc).Start,
		End:   dayWindow(y, m, to, loc).End,
	}
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

func prevMonth(y int, m time.Month, loc *time.Location) (int, time.Month) {
	t := time.Date(y, m-1, 1, 0, 0, 0, 0, loc)
	return t.Year(), t.Month()
}

// weeksIn counts the weeks of a month. Week w spans days 7(w-1)+1 through
// 7w, the last week is cut at the month end.
func weeksIn(y int, m time.Month, loc *time.Location) int {
	return (daysIn(y, m, loc) + 6) / 7
}

func weekWindow(y int, m time.Month, week int, loc *time.Location) (Window, bool) {
	if week < 1 || week > weeksIn(y, m, loc) {
		return Window{}, false
	}
	from := 7*(week-1) + 1
	to := min(7*week, daysIn(y, m, loc))
	return spanWindow(y, m, from, to, loc), true
}

// Selector picks the current period. Date supplies the day, month and year
// (and the location); Week is the 1-based week of Date's month for the week
// modes.
type Selector struct {
	Mode ComparisonMode
	Date time.Time
	Week int
}

// ResolveWindows computes the current and previous windows. ok is false when
// the previous period does not exist (week 1 has no adjacent week in the same
// month, or the previous month has no such week); an error means the current
// period itself is invalid.
func ResolveWindows(sel Selector) (cur, prev Window, ok bool, err error) {
	loc := sel.Date.Location()
	y, m, d := sel.Date.Date()
	py, pm := prevMonth(y, m, loc)

	switch sel.Mode {
	case DayAdjacent:
		cur = dayWindow(y, m, d, loc)
		p := cur.Start.AddDate(0, 0, -1)
		return cur, dayWindow(p.Year(), p.Month(), p.Day(), loc), true, nil

	case DaySamePrevMonth:
		cur = dayWindow(y, m, d, loc)
		return cur, dayWindow(py, pm, min(d, daysIn(py, pm, loc)), loc), true, nil

	case WeekAdjacent:
		var valid bool
		if cur, valid = weekWindow(y, m, sel.Week, loc); !valid {
			return Window{}, Window{}, false, fmt.Errorf("week %d out of range for %d-%02d", sel.Week, y, m)
		}
		prev, ok = weekWindow(y, m, sel.Week-1, loc)
		return cur, prev, ok, nil

	case WeekSamePrevMonth:
		var valid bool
		if cur, valid = weekWindow(y, m, sel.Week, loc); !valid {
			return Window{}, Window{}, false, fmt.Errorf("week %d out of range for %d-%02d", sel.Week, y, m)
		}
		prev, ok = weekWindow(py, pm, sel.Week, loc)
		return cur, prev, ok, nil

	case MonthAdjacent:
		cur = spanWindow(y, m, 1, daysIn(y, m, loc), loc)
		return cur, spanWindow(py, pm, 1, daysIn(py, pm, loc), loc), true, nil
	}
	return Window{}, Window{}, false, fmt.Errorf("unknown comparison mode %q", sel.Mode)
}

// Comparison holds the current and previous period trees, built with the
// same order and filters. Keys is the union of root keys: current order
// first, then keys seen only in the previous period.
type Comparison struct {
	Current        Level      `json:"current"`
	Previous       Level      `json:"previous"`
	Keys           []string   `json:"keys"`
	CurrentWindow  Window     `json:"currentWindow"`
	PreviousWindow Window     `json:"previousWindow"`
	HasPrevious    bool       `json:"hasPrevious"`
	CurrentTotal   GrandTotal `json:"currentTotal"`
	PreviousTotal  GrandTotal `json:"previousTotal"`
}

// Pair returns both sides of a root key; a side without the key reads as
// zero totals.
func (c Comparison) Pair(key string) (cur, prev Totals) {
	if n, ok := c.Current.Find(key); ok {
		cur = n.Totals
	}
	if n, ok := c.Previous.Find(key); ok {
		prev = n.Totals
	}
	return cur, prev
}

func Compare(rows []models.Transaction, cfg *taxonomy.Config, q Query, sel Selector) (Comparison, error) {
	curWin, prevWin, hasPrev, err := ResolveWindows(sel)
	if err != nil {
		return Comparison{}, err
	}
	res := Comparison{
		Current:        Level{},
		Previous:       Level{},
		Keys:           []string{},
		CurrentWindow:  curWin,
		PreviousWindow: prevWin,
		HasPrevious:    hasPrev,
	}
	if cfg == nil {
		return res, nil
	}
	q = q.withDefaults()

	valid, _ := eligible(rows)
	var curRows, prevRows []models.Transaction
	for _, tx := range valid {
		switch {
		case curWin.Contains(tx.Date):
			curRows = append(curRows, tx)
		case hasPrev && prevWin.Contains(tx.Date):
			prevRows = append(prevRows, tx)
		}
	}

	res.Current = Sort(Build(curRows, cfg, q.Order, q.Filters), q.Sort, q.Dir)
	if hasPrev {
		res.Previous = Sort(Build(prevRows, cfg, q.Order, q.Filters), q.Sort, q.Dir)
	}

	curShown := displayedRoots(res.Current, q.HideUnknown)
	prevShown := displayedRoots(res.Previous, q.HideUnknown)
	res.CurrentTotal = Reduce(curShown)
	res.PreviousTotal = Reduce(prevShown)
	res.Keys = unionKeys(curShown, prevShown)
	return res, nil
}

func unionKeys(cur, prev Level) []string {
	keys := cur.Keys()
	seen := make(stringSet, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	var only []string
	for _, n := range prev {
		if !seen.has(n.Key) {
			only = append(only, n.Key)
		}
	}
	return append(keys, sortedStrings(only, newCollator())...)
}

// Delta is a period-over-period change of one metric.
type Delta struct {
	Current       float64 `json:"current"`
	Previous      float64 `json:"previous"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// NewDelta computes the change. Growth from zero reports 100%, no activity
// on either side reports 0%.
func NewDelta(cur, prev float64) Delta {
	d := Delta{Current: cur, Previous: prev, Change: cur - prev}
	switch {
	case prev != 0:
		d.ChangePercent = d.Change / math.Abs(prev) * 100
	case cur > 0:
		d.ChangePercent = 100
	case cur < 0:
		d.ChangePercent = -100
	}
	return d
}
