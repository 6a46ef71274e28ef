package summary

import (
	"cmp"
	"slices"
	"time"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/taxonomy"
)

const DefaultHeadToHeadDays = 7

type HeadToHeadRow struct {
	Creator string   `json:"creator"`
	Days    []Totals `json:"days"`
	Total   Totals   `json:"total"`
}

// HeadToHeadTable compares employees day by day over a trailing window.
// Days, Rows[i].Days and DailyTotals are index aligned.
type HeadToHeadTable struct {
	Days        []Window        `json:"days"`
	Rows        []HeadToHeadRow `json:"rows"`
	DailyTotals []Totals        `json:"dailyTotals"`
	Total       GrandTotal      `json:"total"`
}

// HeadToHead groups valid sales by creator for the n days ending on end
// (inclusive). Rows are ordered by converted revenue over the whole window.
func HeadToHead(rows []models.Transaction, cfg *taxonomy.Config, end time.Time, n int, filters Filters) HeadToHeadTable {
	if n <= 0 {
		n = DefaultHeadToHeadDays
	}
	table := HeadToHeadTable{
		Days:        make([]Window, n),
		Rows:        []HeadToHeadRow{},
		DailyTotals: make([]Totals, n),
	}
	loc := end.Location()
	for i := range n {
		d := end.AddDate(0, 0, i-n+1)
		table.Days[i] = dayWindow(d.Year(), d.Month(), d.Day(), loc)
	}
	if cfg == nil {
		return table
	}

	span := Window{Start: table.Days[0].Start, End: table.Days[n-1].End}
	valid, _ := eligible(rows)
	allow := filters.compile()

	index := make(map[string]int)
	var all Totals
	for _, tx := range valid {
		if !span.Contains(tx.Date) {
			continue
		}
		day := slices.IndexFunc(table.Days, func(w Window) bool { return w.Contains(tx.Date) })
		if day < 0 {
			continue
		}
		r := resolved{tx: tx, cfg: cfg}
		if !allow.match(&r) {
			continue
		}
		creator := r.key(DimCreator)
		i, ok := index[creator]
		if !ok {
			i = len(table.Rows)
			index[creator] = i
			table.Rows = append(table.Rows, HeadToHeadRow{Creator: creator, Days: make([]Totals, n)})
		}

		m := ExtractMetrics(tx, cfg)
		row := &table.Rows[i]
		row.Days[day].Add(m)
		row.Total.Add(m)
		table.DailyTotals[day].Add(m)
		all.Add(m)
	}

	c := newCollator()
	slices.SortStableFunc(table.Rows, func(a, b HeadToHeadRow) int {
		if r := cmp.Compare(b.Total.TotalRevenueQD, a.Total.TotalRevenueQD); r != 0 {
			return r
		}
		return c.CompareString(a.Creator, b.Creator)
	})
	table.Total = newGrandTotal(all)
	return table
}
