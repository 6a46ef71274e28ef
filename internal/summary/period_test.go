package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, hcm)
}

func assertWindow(t *testing.T, w Window, from, to time.Time) {
	t.Helper()
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	assert.Equal(t, time.Date(fy, fm, fd, 0, 0, 0, 0, hcm), w.Start)
	assert.Equal(t, time.Date(ty, tm, td, 23, 59, 59, int(999*time.Millisecond), hcm), w.End)
}

func TestResolveWindows(t *testing.T) {
	tests := []struct {
		name             string
		sel              Selector
		curFrom, curTo   time.Time
		prevFrom, prevTo time.Time
		wantPrev         bool
	}{
		{
			name:     "day adjacent across month",
			sel:      Selector{Mode: DayAdjacent, Date: day(2024, 3, 1)},
			curFrom:  day(2024, 3, 1),
			curTo:    day(2024, 3, 1),
			prevFrom: day(2024, 2, 29),
			prevTo:   day(2024, 2, 29),
			wantPrev: true,
		},
		{
			name:     "same day clamps to shorter month",
			sel:      Selector{Mode: DaySamePrevMonth, Date: day(2024, 3, 31)},
			curFrom:  day(2024, 3, 31),
			curTo:    day(2024, 3, 31),
			prevFrom: day(2024, 2, 29),
			prevTo:   day(2024, 2, 29),
			wantPrev: true,
		},
		{
			name:     "same day across year",
			sel:      Selector{Mode: DaySamePrevMonth, Date: day(2024, 1, 15)},
			curFrom:  day(2024, 1, 15),
			curTo:    day(2024, 1, 15),
			prevFrom: day(2023, 12, 15),
			prevTo:   day(2023, 12, 15),
			wantPrev: true,
		},
		{
			name:     "adjacent week",
			sel:      Selector{Mode: WeekAdjacent, Date: day(2024, 5, 1), Week: 3},
			curFrom:  day(2024, 5, 15),
			curTo:    day(2024, 5, 21),
			prevFrom: day(2024, 5, 8),
			prevTo:   day(2024, 5, 14),
			wantPrev: true,
		},
		{
			name:     "last week is cut at month end",
			sel:      Selector{Mode: WeekSamePrevMonth, Date: day(2024, 3, 1), Week: 5},
			curFrom:  day(2024, 3, 29),
			curTo:    day(2024, 3, 31),
			prevFrom: day(2024, 2, 29),
			prevTo:   day(2024, 2, 29),
			wantPrev: true,
		},
		{
			name:     "whole month",
			sel:      Selector{Mode: MonthAdjacent, Date: day(2024, 3, 20)},
			curFrom:  day(2024, 3, 1),
			curTo:    day(2024, 3, 31),
			prevFrom: day(2024, 2, 1),
			prevTo:   day(2024, 2, 29),
			wantPrev: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, prev, ok, err := ResolveWindows(tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrev, ok)
			assertWindow(t, cur, tt.curFrom, tt.curTo)
			assertWindow(t, prev, tt.prevFrom, tt.prevTo)
		})
	}
}

func TestResolveWindows_NoPrevious(t *testing.T) {
	_, _, ok, err := ResolveWindows(Selector{Mode: WeekAdjacent, Date: day(2024, 5, 1), Week: 1})
	require.NoError(t, err)
	assert.False(t, ok, "week 1 has no adjacent week in the same month")

	// February 2023 has 28 days, so only four weeks.
	cur, _, ok, err := ResolveWindows(Selector{Mode: WeekSamePrevMonth, Date: day(2023, 3, 1), Week: 5})
	require.NoError(t, err)
	assert.False(t, ok)
	assertWindow(t, cur, day(2023, 3, 29), day(2023, 3, 31))
}

func TestResolveWindows_Errors(t *testing.T) {
	for _, sel := range []Selector{
		{Mode: WeekAdjacent, Date: day(2023, 2, 1), Week: 5},
		{Mode: WeekSamePrevMonth, Date: day(2024, 5, 1), Week: 0},
		{Mode: "quarter", Date: day(2024, 5, 1)},
	} {
		_, _, _, err := ResolveWindows(sel)
		assert.Error(t, err, "%+v", sel)
	}

	_, err := ParseComparisonMode("year_adjacent")
	assert.Error(t, err)
	m, err := ParseComparisonMode("week_same_prev_month")
	require.NoError(t, err)
	assert.Equal(t, WeekSamePrevMonth, m)
}

func TestWindowContains(t *testing.T) {
	w := dayWindow(2024, 5, 10, hcm)
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(time.Date(2024, 5, 11, 0, 0, 0, 0, hcm)))
}

func TestCompare(t *testing.T) {
	cur := day(2024, 5, 10)
	prev := day(2024, 5, 9)
	rows := []models.Transaction{
		at(sale("P1", 1, 300000), cur),
		at(sale("P3", 2, 100000), cur),
		at(sale("P1", 1, 200000), prev),
		at(sale("P5", 1, 500000), prev),
		at(sale("P4", 1, 900000), day(2024, 5, 8)),
	}

	c, err := Compare(rows, testTaxonomy(), Query{Order: []Dimension{DimParent}}, Selector{Mode: DayAdjacent, Date: cur})
	require.NoError(t, err)
	require.True(t, c.HasPrevious)

	assert.Equal(t, []string{"ICT", "Phụ kiện", "Gia dụng"}, c.Keys)
	assert.InDelta(t, 400000, c.CurrentTotal.TotalRevenue, eps)
	assert.InDelta(t, 700000, c.PreviousTotal.TotalRevenue, eps)

	curT, prevT := c.Pair("Gia dụng")
	assert.Zero(t, curT)
	assert.InDelta(t, 500000, prevT.TotalRevenue, eps)

	curT, prevT = c.Pair("ICT")
	d := NewDelta(curT.TotalRevenue, prevT.TotalRevenue)
	assert.InDelta(t, 100000, d.Change, eps)
	assert.InDelta(t, 50, d.ChangePercent, eps)

	_, ok := c.Current.Find("Laptop")
	assert.False(t, ok, "rows outside both windows are ignored")
}

func TestCompare_WithoutPrevious(t *testing.T) {
	rows := []models.Transaction{
		at(sale("P1", 1, 300000), day(2024, 5, 3)),
		at(sale("P1", 1, 999999), day(2024, 4, 30)),
	}
	c, err := Compare(rows, testTaxonomy(), DefaultQuery(), Selector{Mode: WeekAdjacent, Date: day(2024, 5, 3), Week: 1})
	require.NoError(t, err)

	assert.False(t, c.HasPrevious)
	assert.Empty(t, c.Previous)
	assert.Equal(t, []string{"ICT"}, c.Keys)
	assert.Equal(t, GrandTotal{}, c.PreviousTotal)
}

func TestCompare_InvalidSelector(t *testing.T) {
	_, err := Compare(mixedRows(), testTaxonomy(), DefaultQuery(), Selector{Mode: WeekAdjacent, Date: day(2024, 5, 1), Week: 9})
	assert.Error(t, err)
}

func TestNewDelta(t *testing.T) {
	tests := []struct {
		cur, prev float64
		want      float64
	}{
		{150, 100, 50},
		{50, 100, -50},
		{0, 100, -100},
		{100, 0, 100},
		{0, 0, 0},
		{-10, 0, -100},
		{10, -20, 150},
	}
	for _, tt := range tests {
		d := NewDelta(tt.cur, tt.prev)
		assert.InDelta(t, tt.want, d.ChangePercent, eps, "cur=%v prev=%v", tt.cur, tt.prev)
		assert.InDelta(t, tt.cur-tt.prev, d.Change, eps)
	}
}
