package models

import (
	"strings"
	"time"
)

// Transaction is one line of a sales export. Fields holds the raw cell
// values keyed by the export's column header; historical exports name the
// same logical column differently, so reads go through Value with an alias
// list.
type Transaction struct {
	Fields map[string]string `json:"fields"`
	Date   time.Time         `json:"date"`
}

// Column alias lists, most recent header first.
var (
	ColProductCode  = []string{"Nhóm hàng", "Mã nhóm hàng", "product_code"}
	ColIndustryCode = []string{"Mã ngành hàng", "Ngành hàng", "industry_code"}
	ColManufacturer = []string{"Hãng", "Nhà sản xuất", "manufacturer"}
	ColCreator      = []string{"Người tạo", "Nhân viên tạo", "creator"}
	ColProductName  = []string{"Tên sản phẩm", "Sản phẩm", "product_name"}
	ColPrice        = []string{"Giá bán_1", "Giá bán", "Doanh thu", "price"}
	ColQuantity     = []string{"Số lượng", "SL", "quantity"}
	ColCancelStatus = []string{"Trạng thái hủy", "cancel_status"}
	ColReturnStatus = []string{
		"Tình trạng nhập trả của sản phẩm đổi với sản phẩm chính",
		"Trạng thái nhập trả",
		"return_status",
	}
	ColPaymentStatus = []string{"Trạng thái thu tiền", "payment_status"}
	ColExportType    = []string{"Hình thức xuất", "export_type"}
	ColWarehouse     = []string{"Mã kho tạo", "Kho tạo", "warehouse"}
	ColCreatedAt     = []string{"Ngày tạo", "Thời gian tạo", "created_at"}
)

// GetValue returns the first non-blank value among the aliases. A blank cell
// under an earlier alias falls through to the later ones.
func GetValue(fields map[string]string, aliases ...string) (string, bool) {
	for _, key := range aliases {
		if v, ok := fields[key]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

func (t Transaction) Value(aliases []string) (string, bool) {
	return GetValue(t.Fields, aliases...)
}

// Text is Value with the missing case collapsed to "".
func (t Transaction) Text(aliases []string) string {
	v, _ := GetValue(t.Fields, aliases...)
	return v
}
