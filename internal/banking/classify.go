package banking

import (
	"strings"
	"unicode"

	"ribscan/internal/models"
)

// InSourceText reports whether the extracted value literally appears in
// the recognized source text, comparing alphanumerics only. This is the
// guard against the extraction model inventing an identifier that is not
// on the document.
func InSourceText(value, rawText string) bool {
	if value == "" {
		return false
	}
	return strings.Contains(alnumUpper(rawText), alnumUpper(value))
}

// alnumUpper keeps ASCII letters and digits only, so accented characters
// interleaved by OCR do not break the digit-run comparison.
func alnumUpper(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// ClassifySlip assigns the terminal status of a freshly extracted slip.
// duplicate must reflect the records already committed in the same period
// (excluding the record itself on reprocessing).
func ClassifySlip(rib string, dir Directory, duplicate bool, rawText string) models.SlipStatus {
	if rib == "" {
		return models.SlipStatusError
	}
	if !ValidRIB(rib, dir) {
		return models.SlipStatusError
	}
	if duplicate {
		return models.SlipStatusDuplicate
	}
	if !InSourceText(rib, rawText) {
		return models.SlipStatusSuspicious
	}
	return models.SlipStatusSuccess
}

// ClassifySlipEdit is the manual-correction variant: the operator has the
// document in front of them, so the source-consistency check is skipped.
func ClassifySlipEdit(rib string, dir Directory, duplicate bool) models.SlipStatus {
	if rib == "" || !ValidRIB(rib, dir) {
		return models.SlipStatusError
	}
	if duplicate {
		return models.SlipStatusDuplicate
	}
	return models.SlipStatusSuccess
}
