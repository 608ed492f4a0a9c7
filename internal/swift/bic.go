// Package swift implements BIC validation, MT103 construction, and the
// SWIFT cross-border transfer lifecycle.
package swift

import (
	"regexp"
	"strings"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

var (
	bicBankCodeRe = regexp.MustCompile(`^[A-Z]{4}$`)
	bicLocationRe = regexp.MustCompile(`^[A-Z0-9]{2}$`)
	bicBranchRe   = regexp.MustCompile(`^[A-Z0-9]{3}$`)
)

// knownCountryCodes is the closed set of ISO 3166-1 alpha-2 codes SWIFT
// routing accepts here; validation is structural well-formedness plus a
// known-set check, not a live registry lookup.
var knownCountryCodes = map[string]bool{
	"DE": true, "FR": true, "ES": true, "IT": true, "NL": true, "BE": true,
	"GB": true, "US": true, "CH": true, "AT": true, "PT": true, "IE": true,
	"TR": true, "PL": true, "SE": true, "NO": true, "DK": true, "FI": true,
}

// BIC is a validated, normalized Bank Identifier Code, always stored in
// its 11-character form; an 8-character code gains the XXX branch suffix.
type BIC string

// ParseBIC validates raw against the SWIFT BIC grammar: bank code (4
// letters) + country code (2 letters, in knownCountryCodes) + location code
// (2 alphanumeric) + optional branch code (3 alphanumeric).
func ParseBIC(raw string) (BIC, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))

	if len(s) != 8 && len(s) != 11 {
		return "", ErrInvalidBIC(raw, "length must be 8 or 11")
	}

	bank, country, location := s[0:4], s[4:6], s[6:8]

	if !bicBankCodeRe.MatchString(bank) {
		return "", ErrInvalidBIC(raw, "bank code must be 4 letters")
	}

	if !knownCountryCodes[country] {
		return "", ErrInvalidBIC(raw, "country code "+country+" is not recognized")
	}

	if !bicLocationRe.MatchString(location) {
		return "", ErrInvalidBIC(raw, "location code must be 2 alphanumeric characters")
	}

	if len(s) == 11 {
		branch := s[8:11]
		if !bicBranchRe.MatchString(branch) {
			return "", ErrInvalidBIC(raw, "branch code must be 3 alphanumeric characters")
		}

		return BIC(s), nil
	}

	return BIC(s + "XXX"), nil
}

func ErrInvalidBIC(raw, reason string) *apperr.Error {
	return apperr.New(apperr.KindValidation, "SwiftBIC", "INVALID_BIC", "Invalid BIC",
		"BIC "+raw+" is invalid: "+reason)
}
