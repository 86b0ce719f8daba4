package repository

import (
	"context"
	"errors"

	"ribscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PeriodRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPeriodRepository(db *pgxpool.Pool, logger *zap.Logger) *PeriodRepository {
	return &PeriodRepository{db: db, logger: logger}
}

func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	sql, args, err := psql.Insert("periods").
		Columns("id", "name", "is_locked", "created_at").
		Values(period.ID, period.Name, period.IsLocked, period.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *PeriodRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Period, error) {
	sql, args, err := psql.Select("id", "name", "is_locked", "created_at").
		From("periods").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var p models.Period
	err = r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.Name, &p.IsLocked, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PeriodRepository) List(ctx context.Context) ([]*models.Period, error) {
	sql, args, err := psql.Select("id", "name", "is_locked", "created_at").
		From("periods").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []*models.Period
	for rows.Next() {
		var p models.Period
		if err := rows.Scan(&p.ID, &p.Name, &p.IsLocked, &p.CreatedAt); err != nil {
			return nil, err
		}
		periods = append(periods, &p)
	}
	return periods, rows.Err()
}

// ToggleLock flips the lock flag and returns the updated period.
func (r *PeriodRepository) ToggleLock(ctx context.Context, id uuid.UUID) (*models.Period, error) {
	sql, args, err := psql.Update("periods").
		Set("is_locked", squirrel.Expr("NOT is_locked")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, name, is_locked, created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	var p models.Period
	err = r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.Name, &p.IsLocked, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the period; owned records go with it via ON DELETE
// CASCADE.
func (r *PeriodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Delete("periods").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
