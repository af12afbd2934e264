// Package rib validates Tunisian bank account numbers (relevé d'identité
// bancaire): 20 digits embedding a MOD-97 check pair.
package rib

// Result is the structured outcome of a validation. Validation failures are
// reported here, never as errors; callers decide whether to block submission.
type Result struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// Validate checks a Tunisian RIB. The first two digits are the check pair;
// the remaining eighteen digits followed by the check pair, read as one large
// number, must leave a remainder r modulo 97 with check == 98 - r.
//
// The input is used as-is: callers must strip whitespace and separators
// beforehand.
func Validate(rib string) Result {
	if rib == "" {
		return Result{Error: "RIB is required"}
	}
	if len(rib) != 20 {
		return Result{Error: "RIB must be exactly 20 digits"}
	}
	for _, r := range rib {
		if r < '0' || r > '9' {
			return Result{Error: "RIB must be exactly 20 digits"}
		}
	}

	// Iterative remainder keeps the 20-digit value out of integer-overflow
	// territory.
	rearranged := rib[2:] + rib[:2]
	remainder := 0
	for _, r := range rearranged {
		remainder = (remainder*10 + int(r-'0')) % 97
	}

	check := (98 - remainder) % 100
	expected := string([]byte{byte('0' + check/10), byte('0' + check%10)})
	if rib[:2] != expected {
		return Result{Error: "Invalid RIB checksum"}
	}
	return Result{IsValid: true}
}
