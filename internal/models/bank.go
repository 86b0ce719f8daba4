package models

// Bank is one entry of the mutable bank directory. Code is the 3-digit
// prefix a valid RIB starts with.
type Bank struct {
	Code string `db:"code"`
	Name string `db:"name"`
}
