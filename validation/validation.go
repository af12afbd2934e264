// Package validation collects field-level checks shared by the HTTP handlers.
package validation

import (
	"regexp"
	"strings"
	"time"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// ISODate checks a YYYY-MM-DD calendar date. Empty values pass; pair with
// Required when the date is mandatory.
func ISODate(field, value string, v Violations) {
	if value == "" {
		return
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		v[field] = "invalid_date"
	}
}

var docNumberRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/_.-]*$`)

// DocumentNumber checks the shape of an invoice number: alphanumeric with
// the separators TTN accepts, no whitespace.
func DocumentNumber(field, value string, v Violations) {
	if value == "" {
		return
	}
	if len(value) > 70 || !docNumberRe.MatchString(value) {
		v[field] = "invalid_document_number"
	}
}

// Digits checks an all-digit value of exactly n characters (RIB, postal
// account). Empty values pass.
func Digits(field, value string, n int, v Violations) {
	if value == "" {
		return
	}
	if len(value) != n {
		v[field] = "invalid_length"
		return
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			v[field] = "digits_only"
			return
		}
	}
}

// OneOf checks membership in an allowed code set. Empty values pass.
func OneOf(field, value string, allowed []string, v Violations) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "unknown_code"
}
