package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var filterValidator = validator.New(validator.WithRequiredStructEnabled())

// SortKey orders rows of product-based reports
type SortKey string

const (
	SortByName           SortKey = "name"
	SortByMargin         SortKey = "margin"
	SortByMarginPercent  SortKey = "margin-percent"
	SortByRevenue        SortKey = "revenue"
	SortByProfit         SortKey = "profit"
	SortByInventoryValue SortKey = "inventory-value"
	SortByQuantity       SortKey = "quantity"
)

// ProductFilter narrows the product snapshot for catalog-based reports.
// Empty id lists select everything.
type ProductFilter struct {
	Categories    []uuid.UUID `json:"categories"`
	Subcategories []uuid.UUID `json:"subcategories"`
	Brands        []uuid.UUID `json:"brands"`
	SortBy        SortKey     `json:"sortBy" validate:"omitempty,oneof=name margin margin-percent revenue profit inventory-value quantity"`
}

// Matches reports whether the product passes every non-empty id list
func (f ProductFilter) Matches(p Product) bool {
	return matchID(f.Categories, p.CategoryID) &&
		matchID(f.Subcategories, p.SubcategoryID) &&
		matchID(f.Brands, p.BrandID)
}

func matchID(ids []uuid.UUID, id *uuid.UUID) bool {
	if len(ids) == 0 {
		return true
	}
	if id == nil {
		return false
	}
	for _, candidate := range ids {
		if candidate == *id {
			return true
		}
	}
	return false
}

// SalesPeriod selects a time window for sales reports
type SalesPeriod string

const (
	SalesPeriod30Days   SalesPeriod = "30"
	SalesPeriod60Days   SalesPeriod = "60"
	SalesPeriod90Days   SalesPeriod = "90"
	SalesPeriodYTD      SalesPeriod = "ytd"
	SalesPeriodThisYear SalesPeriod = "this-year"
	SalesPeriodLastYear SalesPeriod = "last-year"
)

// UnmarshalJSON accepts the period as a string or a bare number of days
func (p *SalesPeriod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = SalesPeriod(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("period must be a string or number, got %s", string(b))
	}
	*p = SalesPeriod(strconv.Itoa(n))
	return nil
}

// SalesPeriodFilter configures time-windowed sales reports
type SalesPeriodFilter struct {
	Period SalesPeriod `json:"period" validate:"omitempty,oneof=30 60 90 ytd this-year last-year"`
}

// Window resolves the period to a half-open [from, to) range in loc, relative to now
func (f SalesPeriodFilter) Window(now time.Time, loc *time.Location) (from, to time.Time) {
	local := now.In(loc)
	startOfTomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	startOfYear := time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc)

	switch f.Period {
	case SalesPeriod60Days:
		return startOfTomorrow.AddDate(0, 0, -60), startOfTomorrow
	case SalesPeriod90Days:
		return startOfTomorrow.AddDate(0, 0, -90), startOfTomorrow
	case SalesPeriodYTD:
		return startOfYear, startOfTomorrow
	case SalesPeriodThisYear:
		return startOfYear, startOfYear.AddDate(1, 0, 0)
	case SalesPeriodLastYear:
		return startOfYear.AddDate(-1, 0, 0), startOfYear
	}
	return startOfTomorrow.AddDate(0, 0, -30), startOfTomorrow
}

// Label returns a human-readable description of the period
func (f SalesPeriodFilter) Label() string {
	switch f.Period {
	case SalesPeriod60Days:
		return "Last 60 days"
	case SalesPeriod90Days:
		return "Last 90 days"
	case SalesPeriodYTD:
		return "Year to date"
	case SalesPeriodThisYear:
		return "This year"
	case SalesPeriodLastYear:
		return "Last year"
	}
	return "Last 30 days"
}

// ParseProductFilter decodes and validates a product filter configuration
func ParseProductFilter(raw []byte) (ProductFilter, error) {
	var f ProductFilter
	if err := decodeFilter(raw, &f); err != nil {
		return ProductFilter{}, err
	}
	return f, nil
}

// ParseSalesPeriodFilter decodes and validates a sales period filter configuration
func ParseSalesPeriodFilter(raw []byte) (SalesPeriodFilter, error) {
	var f SalesPeriodFilter
	if err := decodeFilter(raw, &f); err != nil {
		return SalesPeriodFilter{}, err
	}
	return f, nil
}

func decodeFilter(raw []byte, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	// filter configs saved as a JSON-encoded string
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return fmt.Errorf("decode filter config: %w", err)
		}
		return decodeFilter([]byte(inner), dst)
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("decode filter config: %w", err)
	}
	if err := filterValidator.Struct(dst); err != nil {
		return fmt.Errorf("validate filter config: %w", err)
	}
	return nil
}
