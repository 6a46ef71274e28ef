package summary

import (
	"math"
	"strconv"
	"strings"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/taxonomy"
)

// ParseNumericOrZero parses a cell as a float. Empty, malformed, NaN and
// infinite values all yield 0.
func ParseNumericOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Metrics are the per-row amounts a row contributes to every node on its
// path. Revenue is the line price, which is already net of discount and
// covers the whole line.
type Metrics struct {
	Quantity         float64
	Revenue          float64
	RevenueQD        float64
	ConversionFactor float64
	Installment      bool
}

func ExtractMetrics(tx models.Transaction, cfg *taxonomy.Config) Metrics {
	m := Metrics{
		Quantity:         ParseNumericOrZero(tx.Text(models.ColQuantity)),
		Revenue:          ParseNumericOrZero(tx.Text(models.ColPrice)),
		ConversionFactor: taxonomy.DefaultFactor,
		Installment:      IsInstallment(tx),
	}
	if cfg != nil {
		m.ConversionFactor = cfg.ConversionFactor(
			strings.TrimSpace(tx.Text(models.ColIndustryCode)),
			productCode(tx),
		)
	}
	m.RevenueQD = m.Revenue * m.ConversionFactor
	return m
}

// Totals are the summed raw components of a node. Ratios are always derived
// from these, never stored.
type Totals struct {
	TotalQuantity  float64 `json:"totalQuantity"`
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalRevenueQD float64 `json:"totalRevenueQD"`
	TotalTraGop    float64 `json:"totalTraGop"`
}

func (t *Totals) Add(m Metrics) {
	t.TotalQuantity += m.Quantity
	t.TotalRevenue += m.Revenue
	t.TotalRevenueQD += m.RevenueQD
	if m.Installment {
		t.TotalTraGop += m.Revenue
	}
}

func (t *Totals) Merge(o Totals) {
	t.TotalQuantity += o.TotalQuantity
	t.TotalRevenue += o.TotalRevenue
	t.TotalRevenueQD += o.TotalRevenueQD
	t.TotalTraGop += o.TotalTraGop
}

// AvgOrderValue is revenue per unit sold, 0 without quantity.
func (t Totals) AvgOrderValue() float64 {
	if t.TotalQuantity == 0 {
		return 0
	}
	return t.TotalRevenue / t.TotalQuantity
}

// InstallmentPercent is the share of revenue sold on installment, 0..100.
func (t Totals) InstallmentPercent() float64 {
	if t.TotalRevenue == 0 {
		return 0
	}
	return t.TotalTraGop / t.TotalRevenue * 100
}

// HQQD is the uplift of converted revenue over raw revenue, in percent.
func (t Totals) HQQD() float64 {
	if t.TotalRevenue == 0 {
		return 0
	}
	return (t.TotalRevenueQD - t.TotalRevenue) / t.TotalRevenue * 100
}

func productCode(tx models.Transaction) string {
	return strings.TrimSpace(tx.Text(models.ColProductCode))
}
