package summary

import (
	"cmp"
	"slices"
	"strings"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/taxonomy"
)

type WarehouseRow struct {
	Warehouse string `json:"warehouse"`
	Totals
	AOV           float64 `json:"aov"`
	TraGopPercent float64 `json:"traGopPercent"`
	HQQD          float64 `json:"hqqd"`
}

// WarehouseSummary totals valid sales per creating warehouse, honouring the
// dimension filters. Rows are ordered by converted revenue, highest first.
// Revenue uses the same line price convention as the drill-down tree.
func WarehouseSummary(rows []models.Transaction, cfg *taxonomy.Config, filters Filters) ([]WarehouseRow, GrandTotal) {
	if cfg == nil {
		return []WarehouseRow{}, GrandTotal{}
	}
	valid, _ := eligible(rows)
	allow := filters.compile()

	byKey := make(map[string]*Totals)
	var order []string
	for _, tx := range valid {
		r := resolved{tx: tx, cfg: cfg}
		if !allow.match(&r) {
			continue
		}
		key := strings.TrimSpace(tx.Text(models.ColWarehouse))
		if key == "" {
			key = UnknownKey
		}
		t, ok := byKey[key]
		if !ok {
			t = &Totals{}
			byKey[key] = t
			order = append(order, key)
		}
		t.Add(ExtractMetrics(tx, cfg))
	}

	out := make([]WarehouseRow, 0, len(order))
	var all Totals
	for _, key := range order {
		t := *byKey[key]
		all.Merge(t)
		out = append(out, WarehouseRow{
			Warehouse:     key,
			Totals:        t,
			AOV:           t.AvgOrderValue(),
			TraGopPercent: t.InstallmentPercent(),
			HQQD:          t.HQQD(),
		})
	}

	c := newCollator()
	slices.SortStableFunc(out, func(a, b WarehouseRow) int {
		if r := cmp.Compare(b.TotalRevenueQD, a.TotalRevenueQD); r != 0 {
			return r
		}
		return c.CompareString(a.Warehouse, b.Warehouse)
	})
	return out, newGrandTotal(all)
}
