package banking

import (
	"regexp"
	"strings"
	"unicode"
)

// ibanPrefixRe matches an IBAN-style header: two country letters followed
// by the two check digits, e.g. "MA64". OCR sometimes splits the pair with
// a space.
var ibanPrefixRe = regexp.MustCompile(`[A-Z]{2}\s?\d{2}`)

// RecoverRIB tries to rebuild a 24-digit RIB out of the raw recognized
// text when the extraction model returned a malformed one. Two strategies
// run in order, first hit wins:
//
//  1. scan for an IBAN-style prefix and take the first 24 digits that
//     follow it, ignoring interleaved whitespace;
//  2. scan the sanitized digit string for a registered bank code and take
//     the 24-digit window starting at it.
//
// Returns "" when neither strategy yields a full RIB.
func RecoverRIB(rawText string, dir Directory) string {
	if rib := recoverAfterIBANPrefix(rawText); rib != "" {
		return rib
	}
	return recoverFromBankCode(rawText, dir)
}

func recoverAfterIBANPrefix(rawText string) string {
	up := strings.ToUpper(rawText)
	for _, loc := range ibanPrefixRe.FindAllStringIndex(up, -1) {
		var b strings.Builder
		for _, r := range up[loc[1]:] {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
				if b.Len() == RIBLength {
					return b.String()
				}
				continue
			}
			if unicode.IsSpace(r) {
				continue
			}
			break
		}
	}
	return ""
}

func recoverFromBankCode(rawText string, dir Directory) string {
	digits := SanitizeOCRDigits(rawText)
	if len(digits) < RIBLength {
		return ""
	}
	for _, code := range dir.Codes() {
		if idx := strings.Index(digits, code); idx >= 0 && len(digits)-idx >= RIBLength {
			return digits[idx : idx+RIBLength]
		}
	}
	return ""
}
