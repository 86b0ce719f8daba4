package models

import (
	"time"

	"github.com/google/uuid"
)

type SlipStatus string

const (
	SlipStatusPending    SlipStatus = "PENDING"
	SlipStatusSuccess    SlipStatus = "SUCCESS"
	SlipStatusError      SlipStatus = "ERROR"
	SlipStatusDuplicate  SlipStatus = "DUPLICATE"
	SlipStatusSuspicious SlipStatus = "SUSPICIOUS"
)

// RIBSlip is one uploaded bank-slip document together with the fields
// extracted from it. RIB is the 24-digit Moroccan account identifier; the
// first 3 digits encode the issuing bank.
type RIBSlip struct {
	ID       uuid.UUID `db:"id"`
	PeriodID uuid.UUID `db:"period_id"`
	FileName string    `db:"file_name"`

	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	RIB        string `db:"rib"`
	AIBankName string `db:"ai_bank_name"`

	// RawText keeps the recognized source text (truncated) so records can
	// be reprocessed without another OCR pass.
	RawText             string     `db:"raw_text"`
	Status              SlipStatus `db:"status"`
	IsManuallyCorrected bool       `db:"is_manually_corrected"`
	CreatedAt           time.Time  `db:"created_at"`
}
