package banking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverRIB(t *testing.T) {
	dir := testDirectory()

	t.Run("iban prefix with spaced digit groups", func(t *testing.T) {
		raw := "Relevé d'Identité Bancaire\nMA64 007 640 0001234567890123456 78"
		assert.Equal(t, "007640000123456789012345", RecoverRIB(raw, dir))
	})

	t.Run("iban prefix split by space", func(t *testing.T) {
		raw := "IBAN: MA 64 230640000123456789012345"
		assert.Equal(t, "230640000123456789012345", RecoverRIB(raw, dir))
	})

	t.Run("prefix run interrupted before 24 digits", func(t *testing.T) {
		// a letter cuts the digit run, and no bank code window exists
		raw := "MA64 99964000012 X 3456789012345"
		assert.Equal(t, "", RecoverRIB(raw, dir))
	})

	t.Run("bank code window without iban header", func(t *testing.T) {
		raw := "Compte: 011 780 000987654321098765 Agence Casablanca"
		assert.Equal(t, "011780000987654321098765", RecoverRIB(raw, dir))
	})

	t.Run("bank code window with confusable letters", func(t *testing.T) {
		raw := "RIB O11 78O 000987654321098765"
		assert.Equal(t, "011780000987654321098765", RecoverRIB(raw, dir))
	})

	t.Run("code present but window too short", func(t *testing.T) {
		assert.Equal(t, "", RecoverRIB("code 007 12345", dir))
	})

	t.Run("nothing recoverable", func(t *testing.T) {
		assert.Equal(t, "", RecoverRIB("Bulletin de paie sans aucun numéro", dir))
	})
}
