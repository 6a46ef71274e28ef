package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/summary"
)

const dateLayout = "2006-01-02"

// filterParams maps query parameters to the dimension they filter. Values
// are repeated parameters (?manufacturer=Apple&manufacturer=Samsung) since
// product names may contain commas.
var filterParams = map[string]summary.Dimension{
	"parent":       summary.DimParent,
	"child":        summary.DimChild,
	"subgroup":     summary.DimChild,
	"manufacturer": summary.DimManufacturer,
	"creator":      summary.DimCreator,
	"product":      summary.DimProduct,
}

func parseQuery(r *http.Request) (summary.Query, error) {
	values := r.URL.Query()
	q := summary.DefaultQuery()

	if raw := values.Get("order"); raw != "" {
		order, err := summary.ParseOrder(raw)
		if err != nil {
			return q, err
		}
		q.Order = order
	}
	if raw := values.Get("sort"); raw != "" {
		key, err := summary.ParseSortKey(raw)
		if err != nil {
			return q, err
		}
		q.Sort = key
	}
	if raw := values.Get("dir"); raw != "" {
		dir, err := summary.ParseDirection(raw)
		if err != nil {
			return q, err
		}
		q.Dir = dir
	}
	if raw := values.Get("hideUnknown"); raw != "" {
		hide, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("hideUnknown: %w", err)
		}
		q.HideUnknown = hide
	}

	q.Filters = parseFilters(values)
	return q, nil
}

func parseFilters(values url.Values) summary.Filters {
	var f summary.Filters
	for param, dim := range filterParams {
		for _, v := range values[param] {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			if f == nil {
				f = make(summary.Filters)
			}
			f[dim] = append(f[dim], v)
		}
	}
	return f
}

// parseDate reads ?date=YYYY-MM-DD in loc, defaulting to today.
func parseDate(r *http.Request, loc *time.Location, now time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func parseSelector(r *http.Request, loc *time.Location, now time.Time) (summary.Selector, error) {
	values := r.URL.Query()
	sel := summary.Selector{Mode: summary.DayAdjacent}

	if raw := values.Get("mode"); raw != "" {
		mode, err := summary.ParseComparisonMode(raw)
		if err != nil {
			return sel, err
		}
		sel.Mode = mode
	}

	date, err := parseDate(r, loc, now)
	if err != nil {
		return sel, err
	}
	sel.Date = date

	sel.Week = (date.Day()-1)/7 + 1
	if raw := values.Get("week"); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil {
			return sel, fmt.Errorf("week must be a number: %w", err)
		}
		sel.Week = week
	}
	return sel, nil
}

func parseDays(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return summary.DefaultHeadToHeadDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > 31 {
		return 0, fmt.Errorf("days must be between 1 and 31, got %q", raw)
	}
	return days, nil
}
