package repository

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPeriodLocked is returned when a mutation targets a record of a
	// locked period.
	ErrPeriodLocked = errors.New("period is locked")
)

// psql builds every query with Postgres placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// lockPeriod reads the period's lock flag inside tx, holding a share lock
// on the row so a concurrent lock toggle cannot slip between the check and
// the write that follows.
func lockPeriod(ctx context.Context, tx pgx.Tx, periodID uuid.UUID) error {
	sql, args, err := psql.Select("is_locked").
		From("periods").
		Where(squirrel.Eq{"id": periodID}).
		Suffix("FOR SHARE").
		ToSql()
	if err != nil {
		return err
	}

	var locked bool
	if err := tx.QueryRow(ctx, sql, args...).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if locked {
		return ErrPeriodLocked
	}
	return nil
}
