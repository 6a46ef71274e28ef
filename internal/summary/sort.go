package summary

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortQuantity      SortKey = "totalQuantity"
	SortRevenue       SortKey = "totalRevenue"
	SortRevenueQD     SortKey = "totalRevenueQD"
	SortAOV           SortKey = "aov"
	SortTraGopPercent SortKey = "traGopPercent"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortQuantity, SortRevenue, SortRevenueQD, SortAOV, SortTraGopPercent:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort column %q", s)
}

func (k SortKey) value(t Totals) float64 {
	switch k {
	case SortQuantity:
		return t.TotalQuantity
	case SortRevenueQD:
		return t.TotalRevenueQD
	case SortAOV:
		return t.AvgOrderValue()
	case SortTraGopPercent:
		return t.InstallmentPercent()
	default:
		return t.TotalRevenue
	}
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// newCollator returns a Vietnamese collator. Collators carry scratch buffers
// and must not be shared between goroutines.
func newCollator() *collate.Collator {
	return collate.New(language.Vietnamese)
}

// Sort returns a copy of the tree with every level ordered by key. Equal
// values fall back to the node keys in Vietnamese collation order so the
// result is deterministic. The input tree is not modified.
func Sort(level Level, key SortKey, dir Direction) Level {
	return sortLevel(level, key, dir, newCollator())
}

func sortLevel(level Level, key SortKey, dir Direction, c *collate.Collator) Level {
	out := make(Level, len(level))
	for i, n := range level {
		out[i] = &Node{
			Key:      n.Key,
			Totals:   n.Totals,
			Children: nil,
		}
		if len(n.Children) > 0 {
			out[i].Children = sortLevel(n.Children, key, dir, c)
		}
	}

	slices.SortStableFunc(out, func(a, b *Node) int {
		r := cmp.Compare(key.value(a.Totals), key.value(b.Totals))
		if dir == Desc {
			r = -r
		}
		if r != 0 {
			return r
		}
		return c.CompareString(a.Key, b.Key)
	})
	return out
}

// sortedStrings sorts a copy of values in Vietnamese collation order.
func sortedStrings(values []string, c *collate.Collator) []string {
	out := slices.Clone(values)
	c.SortStrings(out)
	return out
}
