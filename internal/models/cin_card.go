package models

import (
	"time"

	"github.com/google/uuid"
)

type CardStatus string

const (
	CardStatusPending    CardStatus = "PENDING"
	CardStatusValid      CardStatus = "VALID"
	CardStatusExpired    CardStatus = "EXPIRED"
	CardStatusError      CardStatus = "ERROR"
	CardStatusSuspicious CardStatus = "SUSPICIOUS"
)

// CINCard is one uploaded national identity card. Dates stay in their
// string form (DD/MM/YYYY as printed on the card) so a bad OCR read is
// visible to the reviewer instead of being lost in a failed parse.
type CINCard struct {
	ID       uuid.UUID `db:"id"`
	PeriodID uuid.UUID `db:"period_id"`
	FileName string    `db:"file_name"`

	CINNumber    string `db:"cin_number"`
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	BirthDate    string `db:"birth_date"`
	ValidityDate string `db:"validity_date"`
	Address      string `db:"address"`

	RawText             string     `db:"raw_text"`
	Status              CardStatus `db:"status"`
	IsManuallyCorrected bool       `db:"is_manually_corrected"`
	CreatedAt           time.Time  `db:"created_at"`
}
