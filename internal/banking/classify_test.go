package banking

import (
	"testing"

	"ribscan/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestInSourceText(t *testing.T) {
	raw := "RIB: 007 640 000123456789012345\nTitulaire: EL AMRANI"

	assert.True(t, InSourceText("007640000123456789012345", raw))
	assert.True(t, InSourceText("el amrani", raw), "case and separators ignored")
	assert.False(t, InSourceText("230640000123456789012345", raw))
	assert.False(t, InSourceText("", raw))

	// OCR sometimes interleaves accented junk into the digit run
	assert.True(t, InSourceText("007640000123456789012345", "RIB 007é640 000123456789012345"))
}

func TestClassifySlip(t *testing.T) {
	dir := testDirectory()
	rib := "007640000123456789012345"
	raw := "RIB 007 640 000123456789012345"

	tests := []struct {
		name      string
		rib       string
		duplicate bool
		rawText   string
		want      models.SlipStatus
	}{
		{"valid rib present in source", rib, false, raw, models.SlipStatusSuccess},
		{"empty rib", "", false, raw, models.SlipStatusError},
		{"wrong length", rib[:23], false, raw, models.SlipStatusError},
		{"unregistered prefix", "999640000123456789012345", false, raw, models.SlipStatusError},
		{"duplicate beats source check", rib, true, "unrelated text", models.SlipStatusDuplicate},
		{"valid but absent from source", rib, false, "texte sans identifiant", models.SlipStatusSuspicious},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySlip(tt.rib, dir, tt.duplicate, tt.rawText))
		})
	}
}

func TestClassifySlipEdit(t *testing.T) {
	dir := testDirectory()
	rib := "007640000123456789012345"

	// no source text requirement on manual edits
	assert.Equal(t, models.SlipStatusSuccess, ClassifySlipEdit(rib, dir, false))
	assert.Equal(t, models.SlipStatusDuplicate, ClassifySlipEdit(rib, dir, true))
	assert.Equal(t, models.SlipStatusError, ClassifySlipEdit("", dir, false))
	assert.Equal(t, models.SlipStatusError, ClassifySlipEdit("999640000123456789012345", dir, false))
}
