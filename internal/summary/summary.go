package summary

import (
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/taxonomy"
)

// Query is the caller's view configuration.
type Query struct {
	Order   []Dimension
	Filters Filters
	Sort    SortKey
	Dir     Direction
	// HideUnknown drops the UnknownKey bucket from the displayed root keys
	// and therefore from the grand total. The tree keeps it.
	HideUnknown bool
}

func DefaultQuery() Query {
	return Query{
		Order: []Dimension{DimParent, DimChild},
		Sort:  SortRevenue,
		Dir:   Desc,
	}
}

func (q Query) withDefaults() Query {
	d := DefaultQuery()
	if len(q.Order) == 0 {
		q.Order = d.Order
	}
	if q.Sort == "" {
		q.Sort = d.Sort
	}
	if q.Dir == "" {
		q.Dir = d.Dir
	}
	return q
}

type Result struct {
	Data                Level      `json:"data"`
	DisplayedKeys       []string   `json:"displayedKeys"`
	GrandTotal          GrandTotal `json:"grandTotal"`
	UniqueParentGroups  []string   `json:"uniqueParentGroups"`
	UniqueChildGroups   []string   `json:"uniqueChildGroups"`
	UniqueManufacturers []string   `json:"uniqueManufacturers"`
	UniqueCreators      []string   `json:"uniqueCreators"`
	UniqueProducts      []string   `json:"uniqueProducts"`
	ValidRows           int        `json:"validRows"`
	ThuHoRows           int        `json:"thuHoRows"`
}

func emptyResult() Result {
	return Result{
		Data:                Level{},
		DisplayedKeys:       []string{},
		UniqueParentGroups:  []string{},
		UniqueChildGroups:   []string{},
		UniqueManufacturers: []string{},
		UniqueCreators:      []string{},
		UniqueProducts:      []string{},
	}
}

// Summarize runs the full pipeline: validity filter, option collection,
// tree build, sort and grand total over the displayed roots. A nil cfg
// returns an empty result.
func Summarize(rows []models.Transaction, cfg *taxonomy.Config, q Query) Result {
	if cfg == nil {
		return emptyResult()
	}
	q = q.withDefaults()

	valid, thuHo := eligible(rows)
	res := emptyResult()
	res.ValidRows = len(valid)
	res.ThuHoRows = thuHo
	collectOptions(valid, cfg, &res)

	res.Data = Sort(Build(valid, cfg, q.Order, q.Filters), q.Sort, q.Dir)

	displayed := displayedRoots(res.Data, q.HideUnknown)
	res.DisplayedKeys = displayed.Keys()
	res.GrandTotal = Reduce(displayed)
	return res
}

func displayedRoots(level Level, hideUnknown bool) Level {
	if !hideUnknown {
		return level
	}
	out := make(Level, 0, len(level))
	for _, n := range level {
		if n.Key == UnknownKey {
			continue
		}
		out = append(out, n)
	}
	return out
}

// collectOptions gathers the distinct value of every dimension across rows,
// before any dimension filter, so filter pickers always offer the full set.
func collectOptions(rows []models.Transaction, cfg *taxonomy.Config, res *Result) {
	var seen [numDimensions]stringSet
	for i := range seen {
		seen[i] = make(stringSet)
	}
	for _, tx := range rows {
		r := resolved{tx: tx, cfg: cfg}
		for _, d := range AllDimensions {
			seen[d][r.key(d)] = struct{}{}
		}
	}

	c := newCollator()
	list := func(d Dimension) []string {
		values := make([]string, 0, len(seen[d]))
		for v := range seen[d] {
			values = append(values, v)
		}
		return sortedStrings(values, c)
	}
	res.UniqueParentGroups = list(DimParent)
	res.UniqueChildGroups = list(DimChild)
	res.UniqueManufacturers = list(DimManufacturer)
	res.UniqueCreators = list(DimCreator)
	res.UniqueProducts = list(DimProduct)
}
