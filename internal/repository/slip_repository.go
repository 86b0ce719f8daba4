package repository

import (
	"context"
	"errors"
	"fmt"

	"ribscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slipColumns = "id, period_id, file_name, first_name, last_name, rib, ai_bank_name, raw_text, status, is_manually_corrected, created_at"

type SlipRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSlipRepository(db *pgxpool.Pool, logger *zap.Logger) *SlipRepository {
	return &SlipRepository{db: db, logger: logger}
}

func scanSlip(row pgx.Row) (*models.RIBSlip, error) {
	var s models.RIBSlip
	err := row.Scan(
		&s.ID, &s.PeriodID, &s.FileName,
		&s.FirstName, &s.LastName, &s.RIB, &s.AIBankName,
		&s.RawText, &s.Status, &s.IsManuallyCorrected, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateInPeriod inserts the slip in the same transaction that verifies
// the owning period is not locked.
func (r *SlipRepository) CreateInPeriod(ctx context.Context, slip *models.RIBSlip) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockPeriod(ctx, tx, slip.PeriodID); err != nil {
		return err
	}

	sql, args, err := psql.Insert("rib_slips").
		Columns("id", "period_id", "file_name", "first_name", "last_name", "rib", "ai_bank_name", "raw_text", "status", "is_manually_corrected", "created_at").
		Values(slip.ID, slip.PeriodID, slip.FileName, slip.FirstName, slip.LastName, slip.RIB, slip.AIBankName, slip.RawText, slip.Status, slip.IsManuallyCorrected, slip.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert rib slip: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *SlipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RIBSlip, error) {
	sql, args, err := psql.Select(slipColumns).
		From("rib_slips").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanSlip(r.db.QueryRow(ctx, sql, args...))
}

func (r *SlipRepository) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error) {
	return r.list(ctx, squirrel.Eq{"period_id": periodID})
}

// ListForRetry returns the period's records eligible for bulk
// reprocessing, oldest first so retry order matches upload order.
// Records without usable raw text (empty, or holding only a stored
// failure reason) are excluded: bulk retry reuses text, it does not
// re-OCR.
func (r *SlipRepository) ListForRetry(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{
			"period_id": periodID,
			"status":    []models.SlipStatus{models.SlipStatusError, models.SlipStatusSuspicious},
		},
		squirrel.NotEq{"raw_text": ""},
		squirrel.NotLike{"raw_text": "Error:%"},
	})
}

func (r *SlipRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.RIBSlip, error) {
	sql, args, err := psql.Select(slipColumns).
		From("rib_slips").
		Where(where).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slips []*models.RIBSlip
	for rows.Next() {
		slip, err := scanSlip(rows)
		if err != nil {
			return nil, err
		}
		slips = append(slips, slip)
	}
	return slips, rows.Err()
}

// HasDuplicate reports whether another slip in the period carries the same
// RIB. excludeID skips the record being edited or reprocessed.
func (r *SlipRepository) HasDuplicate(ctx context.Context, periodID uuid.UUID, rib string, excludeID uuid.UUID) (bool, error) {
	if rib == "" {
		return false, nil
	}
	sql, args, err := psql.Select("1").
		From("rib_slips").
		Where(squirrel.Eq{"period_id": periodID, "rib": rib}).
		Where(squirrel.NotEq{"id": excludeID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateInPeriod rewrites the slip's extracted fields, gated by the period
// lock like CreateInPeriod.
func (r *SlipRepository) UpdateInPeriod(ctx context.Context, slip *models.RIBSlip) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockPeriod(ctx, tx, slip.PeriodID); err != nil {
		return err
	}

	sql, args, err := psql.Update("rib_slips").
		Set("first_name", slip.FirstName).
		Set("last_name", slip.LastName).
		Set("rib", slip.RIB).
		Set("ai_bank_name", slip.AIBankName).
		Set("raw_text", slip.RawText).
		Set("status", slip.Status).
		Set("is_manually_corrected", slip.IsManuallyCorrected).
		Where(squirrel.Eq{"id": slip.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update rib slip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// DeleteInPeriod removes one slip, gated by the period lock, and returns
// the removed row so the caller can clean up its stored file.
func (r *SlipRepository) DeleteInPeriod(ctx context.Context, id uuid.UUID) (*models.RIBSlip, error) {
	slip, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockPeriod(ctx, tx, slip.PeriodID); err != nil {
		return nil, err
	}

	sql, args, err := psql.Delete("rib_slips").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}
	return slip, tx.Commit(ctx)
}

// DeleteAllInPeriod removes every slip of the period and returns the
// removed rows for file cleanup.
func (r *SlipRepository) DeleteAllInPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error) {
	slips, err := r.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockPeriod(ctx, tx, periodID); err != nil {
		return nil, err
	}

	sql, args, err := psql.Delete("rib_slips").Where(squirrel.Eq{"period_id": periodID}).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}
	return slips, tx.Commit(ctx)
}
