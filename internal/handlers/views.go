package handlers

import (
	"sales-dashboard/internal/summary"
)

const maxTableRows = 500

// tableRow is one pre-formatted line of a drill-down table.
type tableRow struct {
	Key       string
	Depth     int
	Leaf      bool
	Quantity  string
	Revenue   string
	RevenueQD string
	AOV       string
	TraGop    string
}

func newTableRow(key string, depth int, leaf bool, t summary.Totals) tableRow {
	return tableRow{
		Key:       key,
		Depth:     depth,
		Leaf:      leaf,
		Quantity:  formatQuantity(t.TotalQuantity),
		Revenue:   formatVND(t.TotalRevenue),
		RevenueQD: formatVND(t.TotalRevenueQD),
		AOV:       formatVND(t.AvgOrderValue()),
		TraGop:    formatPercent(t.InstallmentPercent()),
	}
}

// flattenTree lists nodes depth first, parents before children, stopping at
// limit rows. The second result reports truncation.
func flattenTree(level summary.Level, limit int) ([]tableRow, bool) {
	out := make([]tableRow, 0, min(limit, 64))
	var walk func(summary.Level, int) bool
	walk = func(l summary.Level, depth int) bool {
		for _, n := range l {
			if len(out) >= limit {
				return false
			}
			out = append(out, newTableRow(n.Key, depth, len(n.Children) == 0, n.Totals))
			if !walk(n.Children, depth+1) {
				return false
			}
		}
		return true
	}
	complete := walk(level, 0)
	return out, !complete
}

func displayed(level summary.Level, keys []string) summary.Level {
	out := make(summary.Level, 0, len(keys))
	for _, k := range keys {
		if n, ok := level.Find(k); ok {
			out = append(out, n)
		}
	}
	return out
}

type comparisonRow struct {
	Key       string         `json:"key"`
	Current   summary.Totals `json:"current"`
	Previous  summary.Totals `json:"previous"`
	Quantity  summary.Delta  `json:"quantity"`
	Revenue   summary.Delta  `json:"revenue"`
	RevenueQD summary.Delta  `json:"revenueQD"`
}

func newComparisonRow(key string, cur, prev summary.Totals) comparisonRow {
	return comparisonRow{
		Key:       key,
		Current:   cur,
		Previous:  prev,
		Quantity:  summary.NewDelta(cur.TotalQuantity, prev.TotalQuantity),
		Revenue:   summary.NewDelta(cur.TotalRevenue, prev.TotalRevenue),
		RevenueQD: summary.NewDelta(cur.TotalRevenueQD, prev.TotalRevenueQD),
	}
}

type comparisonView struct {
	Mode           summary.ComparisonMode `json:"mode"`
	Week           int                    `json:"week,omitempty"`
	CurrentWindow  summary.Window         `json:"currentWindow"`
	PreviousWindow summary.Window         `json:"previousWindow"`
	HasPrevious    bool                   `json:"hasPrevious"`
	Rows           []comparisonRow        `json:"rows"`
	Total          comparisonRow          `json:"total"`
	Current        summary.Level          `json:"current"`
	Previous       summary.Level          `json:"previous"`
}

func newComparisonView(c summary.Comparison, sel summary.Selector) comparisonView {
	v := comparisonView{
		Mode:           sel.Mode,
		CurrentWindow:  c.CurrentWindow,
		PreviousWindow: c.PreviousWindow,
		HasPrevious:    c.HasPrevious,
		Rows:           make([]comparisonRow, 0, len(c.Keys)),
		Total:          newComparisonRow("total", c.CurrentTotal.Totals, c.PreviousTotal.Totals),
		Current:        c.Current,
		Previous:       c.Previous,
	}
	if sel.Mode == summary.WeekAdjacent || sel.Mode == summary.WeekSamePrevMonth {
		v.Week = sel.Week
	}
	for _, k := range c.Keys {
		cur, prev := c.Pair(k)
		v.Rows = append(v.Rows, newComparisonRow(k, cur, prev))
	}
	return v
}
