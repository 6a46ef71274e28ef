package summary

import (
	"fmt"
	"strings"
	"unicode"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/taxonomy"
)

// Bucket names for rows whose dimension value cannot be resolved.
const (
	UnknownKey          = "Không xác định"
	UnknownManufacturer = "Không rõ"
	UnknownCreator      = "Không rõ"
	BadProductName      = "Sản phẩm lỗi tên"
)

type Dimension uint8

const (
	DimParent Dimension = iota
	DimChild
	DimManufacturer
	DimCreator
	DimProduct

	numDimensions = int(DimProduct) + 1
)

var dimensionNames = [numDimensions]string{
	DimParent:       "parent",
	DimChild:        "child",
	DimManufacturer: "manufacturer",
	DimCreator:      "creator",
	DimProduct:      "product",
}

// AllDimensions in their default drill-down order.
var AllDimensions = []Dimension{DimParent, DimChild, DimManufacturer, DimCreator, DimProduct}

func (d Dimension) String() string {
	if int(d) < numDimensions {
		return dimensionNames[d]
	}
	return fmt.Sprintf("Dimension(%d)", d)
}

func (d Dimension) valid() bool {
	return int(d) < numDimensions
}

func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parent":
		return DimParent, nil
	case "child", "subgroup":
		return DimChild, nil
	case "manufacturer":
		return DimManufacturer, nil
	case "creator":
		return DimCreator, nil
	case "product":
		return DimProduct, nil
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

// ParseOrder parses a comma separated drill-down order. Every dimension may
// appear at most once.
func ParseOrder(s string) ([]Dimension, error) {
	parts := strings.Split(s, ",")
	order := make([]Dimension, 0, len(parts))
	var seen [numDimensions]bool
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		d, err := ParseDimension(p)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			return nil, fmt.Errorf("dimension %q repeated in order", d)
		}
		seen[d] = true
		order = append(order, d)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("empty drill-down order")
	}
	return order, nil
}

// Resolve maps a row to its key for one dimension. It never returns "".
func Resolve(tx models.Transaction, cfg *taxonomy.Config, d Dimension) string {
	switch d {
	case DimParent:
		if v, ok := cfg.Parent(productCode(tx)); ok {
			return v
		}
		return UnknownKey
	case DimChild:
		if v, ok := cfg.Subgroup(productCode(tx)); ok {
			return v
		}
		return UnknownKey
	case DimManufacturer:
		if v := strings.TrimSpace(tx.Text(models.ColManufacturer)); v != "" {
			return v
		}
		return UnknownManufacturer
	case DimCreator:
		return AbbreviateName(tx.Text(models.ColCreator))
	case DimProduct:
		if v := strings.TrimSpace(tx.Text(models.ColProductName)); v != "" {
			return v
		}
		return BadProductName
	}
	return UnknownKey
}

// AbbreviateName shortens an employee label. The export writes creators as
// "<id> - <full name>"; the result keeps the given name (last word) in full,
// prefixed by the initial of the middle name, and the id as a suffix:
// "12345 - Nguyễn Văn An" becomes "V. An - 12345".
func AbbreviateName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownCreator
	}

	id, name := "", raw
	if left, right, ok := strings.Cut(raw, " - "); ok && isDigits(strings.TrimSpace(left)) {
		id, name = strings.TrimSpace(left), strings.TrimSpace(right)
	}

	words := strings.Fields(name)
	var short string
	switch len(words) {
	case 0:
		short = UnknownCreator
	case 1:
		short = words[0]
	default:
		last := words[len(words)-1]
		initial := []rune(words[len(words)-2])[0]
		short = string(unicode.ToUpper(initial)) + ". " + last
	}

	if id != "" {
		return short + " - " + id
	}
	return short
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
