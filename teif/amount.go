package teif

import (
	"time"

	"github.com/shopspring/decimal"
)

// Monetary values carry up to 5 decimals internally and are displayed at 3
// (TND millimes) in documents.
const (
	InternalPrecision = 5
	DisplayPrecision  = 3
)

// RoundAmount rounds half away from zero at the given decimal precision.
// Scaled decimal rounding is used so that values like 1.0005 do not fall prey
// to binary float truncation.
func RoundAmount(x float64, decimals int) float64 {
	v, _ := decimal.NewFromFloat(x).Round(int32(decimals)).Float64()
	return v
}

// FormatAmount renders a monetary value with exactly three decimals, the form
// required inside TEIF Moa elements and the QR payload.
func FormatAmount(x float64) string {
	return decimal.NewFromFloat(x).Round(DisplayPrecision).StringFixed(DisplayPrecision)
}

// FormatRate renders a fractional tax rate (0-1) as a percentage with one
// decimal, e.g. 0.19 -> "19.0".
func FormatRate(rate float64) string {
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(100)).Round(1).StringFixed(1)
}

// FormatPercent renders a percentage value (0-100) with one decimal.
func FormatPercent(pct float64) string {
	return decimal.NewFromFloat(pct).Round(1).StringFixed(1)
}

// FormatQuantity renders a quantity with three decimals.
func FormatQuantity(q float64) string {
	return decimal.NewFromFloat(q).Round(DisplayPrecision).StringFixed(DisplayPrecision)
}

// FormatTTNDate converts an ISO YYYY-MM-DD date to the 6-digit ddMMyy form
// used throughout TEIF Dtm sections. Empty input yields an empty string.
// Malformed or calendar-invalid input also yields an empty string: this fails
// closed rather than emitting a degraded date into a fiscal document.
func FormatTTNDate(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return ""
	}
	return t.Format("020106")
}
