package summary

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"sales-dashboard/internal/models"
)

const (
	statusNotCancelled = "chưa hủy"
	statusNotReturned  = "chưa trả"
	statusCollected    = "đã thu"
)

// Export types (hình thức xuất) for hand-off collections. These rows are
// counted but never summed.
var thuHoExportTypes = newSet(
	"Xuất dịch vụ thu hộ bảo hiểm",
	"Xuất dịch vụ thu hộ cước",
	"Xuất dịch vụ thu hộ khoản vay",
	"Xuất thu hộ",
)

var installmentExportTypes = newSet(
	"Xuất bán hàng trả góp Online",
	"Xuất bán hàng trả góp online giá rẻ",
	"Xuất bán hàng trả góp tại siêu thị",
	"Xuất bán hàng trả góp qua thẻ tín dụng",
	"Xuất bán trả góp ưu đãi cho nhân viên",
	"Xuất bán hàng trả chậm",
)

// IsValidSale reports whether a row is a completed sale: not cancelled, not
// returned and paid.
func IsValidSale(tx models.Transaction) bool {
	return normalize(tx.Text(models.ColCancelStatus)) == statusNotCancelled &&
		normalize(tx.Text(models.ColReturnStatus)) == statusNotReturned &&
		normalize(tx.Text(models.ColPaymentStatus)) == statusCollected
}

// IsThuHo reports whether the row is a hand-off (thu hộ) collection.
func IsThuHo(tx models.Transaction) bool {
	return thuHoExportTypes.has(normalize(tx.Text(models.ColExportType)))
}

func IsInstallment(tx models.Transaction) bool {
	return installmentExportTypes.has(normalize(tx.Text(models.ColExportType)))
}

// eligible splits rows into valid, non thu hộ sales and the thu hộ count.
func eligible(rows []models.Transaction) ([]models.Transaction, int) {
	out := make([]models.Transaction, 0, len(rows))
	thuHo := 0
	for _, tx := range rows {
		if !IsValidSale(tx) {
			continue
		}
		if IsThuHo(tx) {
			thuHo++
			continue
		}
		out = append(out, tx)
	}
	return out, thuHo
}

// normalize folds export strings that differ only by spacing, case or
// Unicode composition.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

type stringSet map[string]struct{}

func newSet(values ...string) stringSet {
	s := make(stringSet, len(values))
	for _, v := range values {
		s[normalize(v)] = struct{}{}
	}
	return s
}

func (s stringSet) has(v string) bool {
	_, ok := s[v]
	return ok
}
