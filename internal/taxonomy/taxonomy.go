package taxonomy

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/unicode/norm"
)

const DefaultFactor = 1.0

// Config is the product taxonomy: product code to parent industry, product
// code to subgroup, and the legacy conversion factor table keyed by raw
// industry code and product code.
type Config struct {
	ChildToParent     map[string]string
	ChildToSubgroup   map[string]string
	ConversionFactors map[string]map[string]float64
}

// parentFactors is checked before the legacy table. Keys are normalised
// industry names.
var parentFactors = map[string]float64{
	"phụ kiện": 3.37,
	"wearable": 3.0,
	"đồng hồ":  3.0,
	"laptop":   1.2,
	"tablet":   1.2,
	"gia dụng": 1.85,
	"sim":      5.45,
	"bảo hiểm": 4.18,
	"it":       2.0,
	"thẻ cào":  1.0,
	"ict":      1.0,
	"ce":       1.0,
}

func New() *Config {
	return &Config{
		ChildToParent:     make(map[string]string),
		ChildToSubgroup:   make(map[string]string),
		ConversionFactors: make(map[string]map[string]float64),
	}
}

// Parent returns the industry name of a product code. A nil Config knows
// no products.
func (c *Config) Parent(productCode string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.ChildToParent[productCode]
	return v, ok && v != ""
}

func (c *Config) Subgroup(productCode string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.ChildToSubgroup[productCode]
	return v, ok && v != ""
}

// ConversionFactor resolves the hệ số quy đổi for a row: the parent
// industry name table first, then the legacy industry/product table, then
// DefaultFactor.
func (c *Config) ConversionFactor(industryCode, productCode string) float64 {
	if parent, ok := c.Parent(productCode); ok {
		if f, ok := parentFactors[normalize(parent)]; ok {
			return f
		}
	}
	if c == nil {
		return DefaultFactor
	}
	if byProduct, ok := c.ConversionFactors[industryCode]; ok {
		if f, ok := byProduct[productCode]; ok {
			return f
		}
	}
	return DefaultFactor
}

// SetProduct registers a product code under an industry and subgroup.
func (c *Config) SetProduct(code, parent, subgroup string) {
	if parent != "" {
		c.ChildToParent[code] = parent
	}
	if subgroup != "" {
		c.ChildToSubgroup[code] = subgroup
	}
}

func (c *Config) SetFactor(industryCode, productCode string, factor float64) {
	byProduct, ok := c.ConversionFactors[industryCode]
	if !ok {
		byProduct = make(map[string]float64)
		c.ConversionFactors[industryCode] = byProduct
	}
	byProduct[productCode] = factor
}

func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ChildToParent)
}

type productEntry struct {
	Code     string `mapstructure:"code"`
	Industry string `mapstructure:"industry"`
	Subgroup string `mapstructure:"subgroup"`
}

type factorEntry struct {
	Industry string  `mapstructure:"industry"`
	Product  string  `mapstructure:"product"`
	Factor   float64 `mapstructure:"factor"`
}

// Load reads a taxonomy file (YAML, JSON or TOML, chosen by extension).
// Entries are lists rather than maps because viper lower-cases map keys and
// product codes are case sensitive.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}

	var products []productEntry
	if err := v.UnmarshalKey("products", &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	var factors []factorEntry
	if err := v.UnmarshalKey("conversion_factors", &factors); err != nil {
		return nil, fmt.Errorf("decode conversion_factors: %w", err)
	}

	cfg := New()
	for i, p := range products {
		code := strings.TrimSpace(p.Code)
		if code == "" {
			return nil, fmt.Errorf("products[%d]: empty code", i)
		}
		cfg.SetProduct(code, strings.TrimSpace(p.Industry), strings.TrimSpace(p.Subgroup))
	}
	for i, f := range factors {
		if f.Factor <= 0 {
			return nil, fmt.Errorf("conversion_factors[%d]: factor must be positive, got %v", i, f.Factor)
		}
		cfg.SetFactor(strings.TrimSpace(f.Industry), strings.TrimSpace(f.Product), f.Factor)
	}
	return cfg, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
