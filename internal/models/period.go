package models

import (
	"time"

	"github.com/google/uuid"
)

// Period groups uploaded documents into an administrative batch (e.g. a
// payroll month). A locked period rejects every further mutation of the
// records it owns.
type Period struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	IsLocked  bool      `db:"is_locked"`
	CreatedAt time.Time `db:"created_at"`
}
