package summary

import (
	"strconv"
	"time"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/taxonomy"
)

var hcm = time.FixedZone("ICT", 7*60*60)

func testTaxonomy() *taxonomy.Config {
	cfg := taxonomy.New()
	cfg.SetProduct("P1", "ICT", "Smartphone")
	cfg.SetProduct("P2", "Bảo hiểm", "Bảo hiểm gói")
	cfg.SetProduct("P3", "Phụ kiện", "Tai nghe")
	cfg.SetProduct("P4", "Laptop", "Laptop")
	cfg.SetProduct("P5", "Gia dụng", "Nồi cơm")
	return cfg
}

type rowOption func(map[string]string)

func with(col []string, v string) rowOption {
	return func(f map[string]string) { f[col[0]] = v }
}

func installment() rowOption {
	return with(models.ColExportType, "Xuất bán hàng trả góp tại siêu thị")
}

func sale(code string, qty, price float64, opts ...rowOption) models.Transaction {
	f := map[string]string{
		models.ColProductCode[0]:   code,
		models.ColQuantity[0]:      strconv.FormatFloat(qty, 'f', -1, 64),
		models.ColPrice[0]:         strconv.FormatFloat(price, 'f', -1, 64),
		models.ColCancelStatus[0]:  "Chưa hủy",
		models.ColReturnStatus[0]:  "Chưa trả",
		models.ColPaymentStatus[0]: "Đã thu",
		models.ColExportType[0]:    "Xuất bán hàng tại siêu thị",
		models.ColCreator[0]:       "12345 - Nguyễn Văn An",
		models.ColManufacturer[0]:  "Samsung",
		models.ColProductName[0]:   "Galaxy A55",
		models.ColWarehouse[0]:     "KHO-01",
	}
	for _, opt := range opts {
		opt(f)
	}
	return models.Transaction{Fields: f, Date: time.Date(2024, 5, 10, 9, 30, 0, 0, hcm)}
}

func at(tx models.Transaction, t time.Time) models.Transaction {
	tx.Date = t
	return tx
}

// mixedRows is a deterministic dataset touching every dimension.
func mixedRows() []models.Transaction {
	codes := []string{"P1", "P2", "P3", "P4", "P5", "UNMAPPED"}
	makers := []string{"Samsung", "Apple", "Xiaomi", ""}
	creators := []string{"12345 - Nguyễn Văn An", "23456 - Trần Thị Bình", "34567 - Lê Minh Châu"}
	products := []string{"Galaxy A55", "iPhone 15", "Redmi Note 13", ""}

	var rows []models.Transaction
	for i := range 60 {
		opts := []rowOption{
			with(models.ColManufacturer, makers[i%len(makers)]),
			with(models.ColCreator, creators[(i/2)%len(creators)]),
			with(models.ColProductName, products[(i/3)%len(products)]),
		}
		if i%4 == 0 {
			opts = append(opts, installment())
		}
		qty := float64(i%3 + 1)
		price := float64((i%7 + 1) * 100000)
		rows = append(rows, sale(codes[i%len(codes)], qty, price, opts...))
	}
	return rows
}
