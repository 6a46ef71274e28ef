// Package templates renders the dashboard shell. Tables are filled in over
// Datastar SSE once the page loads.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

type pageData struct {
	Title     string
	Script    string
	SortKeys  []option
	Modes     []option
	Orderings []option
}

type option struct {
	Value, Label string
}

var page = pageData{
	Title:  "Báo cáo doanh thu",
	Script: datastarScript,
	SortKeys: []option{
		{"totalRevenue", "Doanh thu"},
		{"totalRevenueQD", "Doanh thu quy đổi"},
		{"totalQuantity", "Số lượng"},
		{"aov", "AOV"},
		{"traGopPercent", "% Trả góp"},
	},
	Modes: []option{
		{"day_adjacent", "Ngày liền kề"},
		{"day_same_prev_month", "Cùng ngày tháng trước"},
		{"week_adjacent", "Tuần liền kề"},
		{"week_same_prev_month", "Cùng tuần tháng trước"},
		{"month_adjacent", "Tháng liền kề"},
	},
	Orderings: []option{
		{"parent,child", "Ngành hàng → Nhóm"},
		{"parent,child,manufacturer", "Ngành hàng → Nhóm → Hãng"},
		{"creator,parent", "Nhân viên → Ngành hàng"},
		{"manufacturer,product", "Hãng → Sản phẩm"},
	},
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="vi">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script type="module" src="{{.Script}}"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;padding:1.5rem;background:#f6f7f9;color:#1f2933}
.controls{display:flex;flex-wrap:wrap;gap:.75rem;margin-bottom:1rem}
.card{background:#fff;border-radius:8px;padding:1rem;margin-bottom:1.5rem;box-shadow:0 1px 3px rgba(0,0,0,.08)}
.modern-table{width:100%;border-collapse:collapse;font-size:.9rem}
.modern-table th,.modern-table td{padding:.4rem .6rem;border-bottom:1px solid #e4e7eb;text-align:right}
.modern-table th:first-child,.modern-table td:first-child{text-align:left}
.depth-0{font-weight:600}.depth-1 td:first-child{padding-left:1.5rem}.depth-2 td:first-child{padding-left:3rem}
.depth-3 td:first-child{padding-left:4.5rem}.depth-4 td:first-child{padding-left:6rem}
.grand-total{background:#eef2f7;font-weight:700}
.up{color:#0a7d32}.down{color:#c62828}.flat{color:#616e7c}
.error{color:#c62828}.loading{color:#616e7c}
</style>
</head>
<body data-signals="{order: 'parent,child', sort: 'totalRevenue', dir: 'desc', hideUnknown: false, mode: 'day_adjacent', date: '', week: ''}"
      data-on-load="@get('/sse/refresh-all')">
<h1>{{.Title}}</h1>

<section class="card">
<div class="controls">
<label>Phân cấp
<select data-bind="order">{{range .Orderings}}<option value="{{.Value}}">{{.Label}}</option>{{end}}</select>
</label>
<label>Sắp xếp
<select data-bind="sort">{{range .SortKeys}}<option value="{{.Value}}">{{.Label}}</option>{{end}}</select>
</label>
<label>Chiều
<select data-bind="dir"><option value="desc">Giảm dần</option><option value="asc">Tăng dần</option></select>
</label>
<label><input type="checkbox" data-bind="hideUnknown"> Ẩn nhóm không xác định</label>
<button data-on-click="@get('/sse/summary?order=' + $order + '&sort=' + $sort + '&dir=' + $dir + '&hideUnknown=' + $hideUnknown)">Cập nhật</button>
</div>
<div id="summary-content"><p class="loading">Đang tải dữ liệu...</p></div>
</section>

<section class="card">
<div class="controls">
<label>Kỳ so sánh
<select data-bind="mode">{{range .Modes}}<option value="{{.Value}}">{{.Label}}</option>{{end}}</select>
</label>
<label>Ngày <input type="date" data-bind="date"></label>
<label>Tuần <input type="number" min="1" max="5" data-bind="week"></label>
<button data-on-click="@get('/sse/comparison?order=' + $order + '&mode=' + $mode + '&date=' + $date + '&week=' + $week)">So sánh</button>
</div>
<div id="comparison-content"><p class="loading">Đang tải dữ liệu...</p></div>
</section>
</body>
</html>
`))

// Dashboard renders the page shell.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return dashboardTemplate.Execute(w, page)
	})
}
