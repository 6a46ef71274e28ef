package summary

// GrandTotal folds a displayed node set into one record. The ratios are
// derived from the summed raw totals, never averaged across nodes.
type GrandTotal struct {
	Totals
	AOV           float64 `json:"aov"`
	TraGopPercent float64 `json:"traGopPercent"`
}

func Reduce(nodes []*Node) GrandTotal {
	var t Totals
	for _, n := range nodes {
		if n == nil {
			continue
		}
		t.Merge(n.Totals)
	}
	return newGrandTotal(t)
}

func newGrandTotal(t Totals) GrandTotal {
	return GrandTotal{
		Totals:        t,
		AOV:           t.AvgOrderValue(),
		TraGopPercent: t.InstallmentPercent(),
	}
}
