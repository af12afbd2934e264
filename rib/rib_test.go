package rib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Reference RIBs with a correct MOD-97 check pair.
var validRIBs = []string{
	"87040351200035123456",
	"69100060350061234567",
	"44070001002345678901",
}

func TestValidateAcceptsKnownGood(t *testing.T) {
	for _, r := range validRIBs {
		res := Validate(r)
		assert.True(t, res.IsValid, "rib %s: %s", r, res.Error)
		assert.Empty(t, res.Error)
	}
}

func TestValidateRejectsShape(t *testing.T) {
	tests := []string{
		"",
		"1234",
		"123456789012345678901",  // 21 digits
		"8704035120003512345a",   // non-digit
		"87 04035120003512345",   // whitespace is the caller's problem
	}
	for _, r := range tests {
		res := Validate(r)
		assert.False(t, res.IsValid, "rib %q", r)
		assert.NotEmpty(t, res.Error)
	}
}

// Flipping any single digit breaks the checksum: increments propagate into
// the MOD-97 remainder for every position.
func TestValidateRejectsSingleDigitFlips(t *testing.T) {
	ref := validRIBs[0]
	for i := 0; i < len(ref); i++ {
		flipped := []byte(ref)
		flipped[i] = '0' + (flipped[i]-'0'+1)%10
		res := Validate(string(flipped))
		assert.False(t, res.IsValid, "flip at %d produced %s", i, flipped)
	}
}

func TestValidateRejectsBadChecksum(t *testing.T) {
	res := Validate("00000000000000000000")
	assert.False(t, res.IsValid)
	assert.Equal(t, "Invalid RIB checksum", res.Error)
}
