// Package banking holds the pure RIB validation pipeline: OCR digit
// cleanup, identifier recovery from raw text and status classification.
// Everything here is deterministic over its inputs; the current bank
// directory is always passed in explicitly so callers stay testable.
package banking

import (
	"sort"
	"strings"
)

// RIBLength is the fixed length of a Moroccan RIB.
const RIBLength = 24

// ocrConfusables maps letters Tesseract and vision models commonly read
// in place of digits on low-quality scans.
var ocrConfusables = map[rune]rune{
	'O': '0', 'D': '0',
	'B': '8',
	'I': '1', 'L': '1',
	'S': '5',
	'Z': '2',
}

// Directory is a snapshot of the registered banks, keyed by 3-digit code.
type Directory map[string]string

// Codes returns the registered codes in ascending order, so scans over the
// directory are deterministic.
func (d Directory) Codes() []string {
	codes := make([]string, 0, len(d))
	for code := range d {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeRIB strips everything but digits.
func NormalizeRIB(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeOCRDigits uppercases the input, replaces confusable letters with
// the digits they usually stand for, then strips everything else.
func SanitizeOCRDigits(s string) string {
	up := strings.ToUpper(s)
	var b strings.Builder
	b.Grow(len(up))
	for _, r := range up {
		if d, ok := ocrConfusables[r]; ok {
			r = d
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanRIB is the two-tier normalizer: the cheap digit strip first, and
// only when that does not land on exactly 24 digits the substitution pass
// over the raw input. Clean inputs never pay for the second pass.
func CleanRIB(s string) string {
	clean := NormalizeRIB(s)
	if len(clean) != RIBLength {
		clean = SanitizeOCRDigits(s)
	}
	return clean
}

// ValidRIB reports whether rib is exactly 24 digits with a registered bank
// prefix. The modulo-97 key check is intentionally absent: the reference
// directory is the only authority on validity.
func ValidRIB(rib string, dir Directory) bool {
	if len(rib) != RIBLength || NormalizeRIB(rib) != rib {
		return false
	}
	_, ok := dir[rib[:3]]
	return ok
}

// ResolveBankName returns a display name for the slip's bank: the
// registered name when the prefix is known, otherwise the model-reported
// name flagged as unverified, otherwise a generic placeholder.
func ResolveBankName(rib string, dir Directory, aiBankName string) string {
	clean := NormalizeRIB(rib)
	if len(clean) >= 3 {
		code := clean[:3]
		if name, ok := dir[code]; ok {
			return name
		}
		if len(aiBankName) > 2 {
			return aiBankName + " (Code " + code + " inconnu)"
		}
	}
	return "Banque Inconnue"
}
