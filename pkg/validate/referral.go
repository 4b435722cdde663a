package validate

import (
	"github.com/ShiraazMoollatjie/goluhn"
)

const ReferralCodeLength = 8

// IsReferralCode reports whether s has the shape of an issued code: 8 digits ending in a Luhn check digit.
func IsReferralCode(s string) bool {
	if len(s) != ReferralCodeLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return goluhn.Validate(s) == nil
}

func NewReferralCode() string {
	return goluhn.Generate(ReferralCodeLength)
}
