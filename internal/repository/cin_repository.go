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

const cardColumns = "id, period_id, file_name, cin_number, first_name, last_name, birth_date, validity_date, address, raw_text, status, is_manually_corrected, created_at"

type CardRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCardRepository(db *pgxpool.Pool, logger *zap.Logger) *CardRepository {
	return &CardRepository{db: db, logger: logger}
}

func scanCard(row pgx.Row) (*models.CINCard, error) {
	var c models.CINCard
	err := row.Scan(
		&c.ID, &c.PeriodID, &c.FileName,
		&c.CINNumber, &c.FirstName, &c.LastName, &c.BirthDate, &c.ValidityDate, &c.Address,
		&c.RawText, &c.Status, &c.IsManuallyCorrected, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CardRepository) CreateInPeriod(ctx context.Context, card *models.CINCard) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockPeriod(ctx, tx, card.PeriodID); err != nil {
		return err
	}

	sql, args, err := psql.Insert("cin_cards").
		Columns("id", "period_id", "file_name", "cin_number", "first_name", "last_name", "birth_date", "validity_date", "address", "raw_text", "status", "is_manually_corrected", "created_at").
		Values(card.ID, card.PeriodID, card.FileName, card.CINNumber, card.FirstName, card.LastName, card.BirthDate, card.ValidityDate, card.Address, card.RawText, card.Status, card.IsManuallyCorrected, card.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cin card: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CINCard, error) {
	sql, args, err := psql.Select(cardColumns).
		From("cin_cards").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanCard(r.db.QueryRow(ctx, sql, args...))
}

func (r *CardRepository) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error) {
	return r.list(ctx, squirrel.Eq{"period_id": periodID})
}

// ListForRetry excludes records without usable raw text, same as the
// slip repository: bulk retry reuses text, it does not re-OCR.
func (r *CardRepository) ListForRetry(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{
			"period_id": periodID,
			"status":    []models.CardStatus{models.CardStatusError, models.CardStatusSuspicious},
		},
		squirrel.NotEq{"raw_text": ""},
		squirrel.NotLike{"raw_text": "Error:%"},
	})
}

func (r *CardRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.CINCard, error) {
	sql, args, err := psql.Select(cardColumns).
		From("cin_cards").
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

	var cards []*models.CINCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *CardRepository) UpdateInPeriod(ctx context.Context, card *models.CINCard) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockPeriod(ctx, tx, card.PeriodID); err != nil {
		return err
	}

	sql, args, err := psql.Update("cin_cards").
		Set("cin_number", card.CINNumber).
		Set("first_name", card.FirstName).
		Set("last_name", card.LastName).
		Set("birth_date", card.BirthDate).
		Set("validity_date", card.ValidityDate).
		Set("address", card.Address).
		Set("raw_text", card.RawText).
		Set("status", card.Status).
		Set("is_manually_corrected", card.IsManuallyCorrected).
		Where(squirrel.Eq{"id": card.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update cin card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *CardRepository) DeleteInPeriod(ctx context.Context, id uuid.UUID) (*models.CINCard, error) {
	card, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockPeriod(ctx, tx, card.PeriodID); err != nil {
		return nil, err
	}

	sql, args, err := psql.Delete("cin_cards").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}
	return card, tx.Commit(ctx)
}

func (r *CardRepository) DeleteAllInPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error) {
	cards, err := r.ListByPeriod(ctx, periodID)
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

	sql, args, err := psql.Delete("cin_cards").Where(squirrel.Eq{"period_id": periodID}).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}
	return cards, tx.Commit(ctx)
}
