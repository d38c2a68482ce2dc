package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders numbers, money and dates for one locale and currency
type Formatter struct {
	printer  *message.Printer
	currency currency.Unit
}

// NewFormatter creates a formatter for a BCP 47 locale and an ISO 4217 currency code
func NewFormatter(locale, currencyCode string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", currencyCode, err)
	}
	return &Formatter{printer: message.NewPrinter(tag), currency: unit}, nil
}

// Money formats d with two decimals prefixed by the currency code
func (f *Formatter) Money(d decimal.Decimal) string {
	v, _ := d.Round(2).Float64()
	return f.printer.Sprintf("%s %v", f.currency, number.Decimal(v, number.Scale(2)))
}

// Percent formats a percentage value with one decimal
func (f *Formatter) Percent(d decimal.Decimal) string {
	v, _ := d.Round(1).Float64()
	return f.printer.Sprintf("%v%%", number.Decimal(v, number.Scale(1)))
}

// Quantity formats a quantity with at most two decimals
func (f *Formatter) Quantity(d decimal.Decimal) string {
	v, _ := d.Float64()
	return f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

// Count formats an integer with grouping
func (f *Formatter) Count(n int) string {
	return f.printer.Sprintf("%v", number.Decimal(n))
}

// Date formats t as a long calendar date
func (f *Formatter) Date(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
