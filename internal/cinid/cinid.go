// Package cinid validates Moroccan national identity card (CIN) data
// extracted by OCR. Like package banking it is pure: status decisions are
// a function of the fields and the processing time only.
package cinid

import (
	"regexp"
	"strings"
	"time"

	"ribscan/internal/models"
)

// numberRe is the CIN format: one or two letters then 3 to 8 digits
// (e.g. A40020, BJ488277).
var numberRe = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{3,8}$`)

// nameRe allows letters (any script), spaces and hyphens.
var nameRe = regexp.MustCompile(`^[\p{L}\s-]+$`)

var dateLayouts = []string{"02/01/2006", "02.01.2006", "02-01-2006"}

// CleanNumber strips everything but letters and digits and uppercases,
// e.g. "BJ 42-99" -> "BJ4299".
func CleanNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// ValidName reports whether a manually entered name contains only
// letters, spaces and hyphens.
func ValidName(s string) bool {
	return nameRe.MatchString(s)
}

// ParseDate parses a card date, trying DD/MM/YYYY, DD.MM.YYYY and
// DD-MM-YYYY in that order. The letter O is a frequent OCR stand-in for
// zero and is fixed up before parsing.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.NewReplacer("O", "0", "o", "0").Replace(s))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Fields carries the extracted values Validate decides on.
type Fields struct {
	Number       string
	FirstName    string
	LastName     string
	ValidityDate string
}

// Validate assigns a card its status:
//
//	missing or malformed CIN number        -> ERROR
//	missing or too-short name              -> SUSPICIOUS
//	validity date absent or unparsable     -> SUSPICIOUS
//	validity date before now               -> EXPIRED
//	otherwise                              -> VALID
func Validate(f Fields, now time.Time) models.CardStatus {
	num := CleanNumber(f.Number)
	if num == "" || !numberRe.MatchString(num) {
		return models.CardStatusError
	}

	if f.FirstName == "" || f.LastName == "" || len(f.LastName) < 2 {
		return models.CardStatusSuspicious
	}

	expiry, ok := ParseDate(f.ValidityDate)
	if !ok {
		return models.CardStatusSuspicious
	}
	if expiry.Before(now.Truncate(24 * time.Hour)) {
		return models.CardStatusExpired
	}
	return models.CardStatusValid
}
