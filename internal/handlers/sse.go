package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/services"
	"sales-dashboard/internal/summary"
)

var summaryTableTemplate = template.Must(template.New("summaryTable").Parse(`
<div id="summary-content">
<table class="modern-table summary-table">
<thead><tr><th>Nhóm</th><th>Số lượng</th><th>Doanh thu</th><th>Doanh thu QĐ</th><th>AOV</th><th>% Trả góp</th></tr></thead>
<tbody>
{{range .Rows}}<tr class="depth-{{.Depth}}{{if .Leaf}} leaf{{end}}">
<td>{{.Key}}</td>
<td>{{.Quantity}}</td>
<td>{{.Revenue}}</td>
<td><strong>{{.RevenueQD}}</strong></td>
<td>{{.AOV}}</td>
<td>{{.TraGop}}</td>
</tr>{{end}}
</tbody>
<tfoot><tr class="grand-total">
<td>Tổng cộng</td>
<td>{{.Total.Quantity}}</td>
<td>{{.Total.Revenue}}</td>
<td><strong>{{.Total.RevenueQD}}</strong></td>
<td>{{.Total.AOV}}</td>
<td>{{.Total.TraGop}}</td>
</tr></tfoot>
</table>
{{if .Truncated}}<p class="table-note">Hiển thị {{len .Rows}} dòng đầu tiên.</p>{{end}}
</div>`))

var comparisonTableTemplate = template.Must(template.New("comparisonTable").Parse(`
<div id="comparison-content">
<p class="period">{{.Current}}{{if .HasPrevious}} so với {{.Previous}}{{else}} (không có kỳ trước){{end}}</p>
<table class="modern-table comparison-table">
<thead><tr><th>Nhóm</th><th>Doanh thu QĐ</th><th>Kỳ trước</th><th>Thay đổi</th><th>Doanh thu</th><th>Kỳ trước</th><th>Thay đổi</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.Key}}</td>
<td><strong>{{.CurQD}}</strong></td>
<td>{{.PrevQD}}</td>
<td class="{{.QDClass}}">{{.QDChange}}</td>
<td>{{.Cur}}</td>
<td>{{.Prev}}</td>
<td class="{{.Class}}">{{.Change}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type summaryTableData struct {
	Rows      []tableRow
	Total     tableRow
	Truncated bool
}

type comparisonLine struct {
	Key      string
	CurQD    string
	PrevQD   string
	QDChange string
	QDClass  string
	Cur      string
	Prev     string
	Change   string
	Class    string
}

type comparisonTableData struct {
	Current     string
	Previous    string
	HasPrevious bool
	Rows        []comparisonLine
}

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
	now       func() time.Time
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *SSEHandlers) renderSummaryTable(res summary.Result) (string, error) {
	rows, truncated := flattenTree(displayed(res.Data, res.DisplayedKeys), maxTableRows)
	data := summaryTableData{
		Rows:      rows,
		Total:     newTableRow("", 0, false, res.GrandTotal.Totals),
		Truncated: truncated,
	}

	var buf strings.Builder
	err := summaryTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

func changeClass(d summary.Delta) string {
	switch {
	case d.Change > 0:
		return "up"
	case d.Change < 0:
		return "down"
	default:
		return "flat"
	}
}

func formatWindow(w summary.Window) string {
	const layout = "02/01/2006"
	if w.Start.IsZero() {
		return ""
	}
	start, end := w.Start.Format(layout), w.End.Format(layout)
	if start == end {
		return start
	}
	return start + " - " + end
}

func (h *SSEHandlers) renderComparisonTable(v comparisonView) (string, error) {
	data := comparisonTableData{
		Current:     formatWindow(v.CurrentWindow),
		Previous:    formatWindow(v.PreviousWindow),
		HasPrevious: v.HasPrevious,
		Rows:        make([]comparisonLine, 0, len(v.Rows)+1),
	}
	line := func(r comparisonRow) comparisonLine {
		return comparisonLine{
			Key:      r.Key,
			CurQD:    formatVND(r.RevenueQD.Current),
			PrevQD:   formatVND(r.RevenueQD.Previous),
			QDChange: formatDelta(r.RevenueQD.ChangePercent),
			QDClass:  changeClass(r.RevenueQD),
			Cur:      formatVND(r.Revenue.Current),
			Prev:     formatVND(r.Revenue.Previous),
			Change:   formatDelta(r.Revenue.ChangePercent),
			Class:    changeClass(r.Revenue),
		}
	}
	for _, r := range v.Rows {
		data.Rows = append(data.Rows, line(r))
	}
	total := line(v.Total)
	total.Key = "Tổng cộng"
	data.Rows = append(data.Rows, total)

	var buf strings.Builder
	err := comparisonTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

// summarySignals carries the filter options and grand total to the page so
// pickers stay in sync with the table.
func summarySignals(res summary.Result) map[string]any {
	return map[string]any{
		"grandTotal": res.GrandTotal,
		"options": map[string][]string{
			"parent":       res.UniqueParentGroups,
			"child":        res.UniqueChildGroups,
			"manufacturer": res.UniqueManufacturers,
			"creator":      res.UniqueCreators,
			"product":      res.UniqueProducts,
		},
		"validRows": res.ValidRows,
		"thuHoRows": res.ThuHoRows,
	}
}

func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.patchError(w, r, "summary-content", err)
		return
	}
	res, err := h.dashboard.Summary(r.Context(), q)
	if err != nil {
		h.patchError(w, r, "summary-content", err)
		return
	}

	html, err := h.renderSummaryTable(res)
	if err != nil {
		h.logger.Error("render summary table", "error", err)
		return
	}
	signals, err := json.Marshal(summarySignals(res))
	if err != nil {
		h.logger.Error("marshal summary signals", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(html)
	sse.PatchSignals(signals)
}

func (h *SSEHandlers) HandleComparison(w http.ResponseWriter, r *http.Request) {
	html, err := h.comparisonHTML(r)
	if err != nil {
		h.patchError(w, r, "comparison-content", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(html)
}

func (h *SSEHandlers) comparisonHTML(r *http.Request) (string, error) {
	q, err := parseQuery(r)
	if err != nil {
		return "", err
	}
	sel, err := parseSelector(r, h.dashboard.Location(), h.now())
	if err != nil {
		return "", err
	}
	cmp, err := h.dashboard.Compare(r.Context(), q, sel)
	if err != nil {
		return "", err
	}
	return h.renderComparisonTable(newComparisonView(cmp, sel))
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.patchError(w, r, "summary-content", err)
		return
	}
	res, err := h.dashboard.Summary(r.Context(), q)
	if err != nil {
		h.patchError(w, r, "summary-content", err)
		return
	}
	summaryHTML, err := h.renderSummaryTable(res)
	if err != nil {
		h.logger.Error("render summary table", "error", err)
		return
	}
	comparisonHTML, err := h.comparisonHTML(r)
	if err != nil {
		h.patchError(w, r, "comparison-content", err)
		return
	}

	warehouses, whTotal, err := h.dashboard.Warehouses(r.Context(), q.Filters)
	if err != nil {
		h.patchError(w, r, "summary-content", err)
		return
	}
	signals := summarySignals(res)
	signals["warehouses"] = warehouses
	signals["warehouseTotal"] = whTotal
	allSignals, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal all signals data", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(summaryHTML)
	sse.PatchElements(comparisonHTML)
	sse.PatchSignals(allSignals)
}

// patchError replaces the target fragment with the error message. Datastar
// keeps the stream open, so errors are shown in place rather than as a
// status code.
func (h *SSEHandlers) patchError(w http.ResponseWriter, r *http.Request, target string, err error) {
	msg := "Dữ liệu đang được tải, vui lòng thử lại sau."
	if !isNotReady(err) {
		msg = err.Error()
		h.logger.Warn("sse request rejected", "target", target, "error", err)
	}

	var buf strings.Builder
	errorFragment.Execute(&buf, struct{ ID, Message string }{target, msg})

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(buf.String())
}

var errorFragment = template.Must(template.New("error").Parse(
	`<div id="{{.ID}}"><p class="error">{{.Message}}</p></div>`))

func isNotReady(err error) bool {
	return errors.Is(err, services.ErrNotReady)
}
