// Package display converts model amounts (AUD '000) to the currency the
// user picked and formats them for the dashboard.
package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Currency is a display currency.
type Currency string

const (
	AUD Currency = "AUD"
	THB Currency = "THB"
)

// FX rate bounds in THB per 1 AUD.
const (
	MinFXRate = 10.0
	MaxFXRate = 50.0
)

// ParseCurrency accepts "AUD" or "THB" in any case; empty means AUD.
func ParseCurrency(raw string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", AUD:
		return AUD, nil
	case THB:
		return THB, nil
	}
	return "", fmt.Errorf("currency must be AUD or THB, got %q", raw)
}

// Converter moves amounts between AUD '000 and the display currency.
type Converter struct {
	Currency Currency
	FXRate   float64
}

// NewConverter validates the FX rate for THB. The rate is ignored for AUD.
func NewConverter(currency Currency, fxRate float64) (Converter, error) {
	if currency == THB && (math.IsNaN(fxRate) || fxRate < MinFXRate || fxRate > MaxFXRate) {
		return Converter{}, fmt.Errorf("fx_rate must be between %g and %g", MinFXRate, MaxFXRate)
	}
	return Converter{Currency: currency, FXRate: fxRate}, nil
}

func (c Converter) multiplier() float64 {
	if c.Currency == THB {
		return c.FXRate
	}
	return 1
}

// ToDisplay converts an AUD '000 amount into the display currency.
func (c Converter) ToDisplay(aud float64) float64 {
	return aud * c.multiplier()
}

// FromDisplay converts a display-currency amount back into AUD '000.
func (c Converter) FromDisplay(amount float64) float64 {
	return amount / c.multiplier()
}

// Unit is the column label, e.g. "AUD'000".
func (c Converter) Unit() string {
	if c.Currency == THB {
		return "THB'000"
	}
	return "AUD'000"
}

// maxExactInt is 2^63; rounded values at or beyond it do not fit an int64.
const maxExactInt = 1 << 63

// Amount formats a display-currency amount rounded to whole thousands with
// thousands separators, e.g. -1,406.
func Amount(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	r := math.Round(v)
	if math.Abs(r) >= maxExactInt {
		return humanize.CommafWithDigits(r, 0)
	}
	return humanize.Comma(int64(r))
}

// Percent formats a fraction as a percentage, e.g. 0.17 as "17%".
func Percent(fraction float64) string {
	return humanize.FtoaWithDigits(fraction*100, 2) + "%"
}
