package repository

import (
	"context"
	"errors"

	"ribscan/internal/banking"
	"ribscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrBankExists is returned when a directory code is registered twice.
var ErrBankExists = errors.New("bank code already registered")

type BankRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBankRepository(db *pgxpool.Pool, logger *zap.Logger) *BankRepository {
	return &BankRepository{db: db, logger: logger}
}

func (r *BankRepository) List(ctx context.Context) ([]*models.Bank, error) {
	sql, args, err := psql.Select("code", "name").From("banks").OrderBy("code ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banks []*models.Bank
	for rows.Next() {
		var b models.Bank
		if err := rows.Scan(&b.Code, &b.Name); err != nil {
			return nil, err
		}
		banks = append(banks, &b)
	}
	return banks, rows.Err()
}

// Directory loads the current registered-code snapshot the validation
// pipeline works against.
func (r *BankRepository) Directory(ctx context.Context) (banking.Directory, error) {
	banks, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	dir := make(banking.Directory, len(banks))
	for _, b := range banks {
		dir[b.Code] = b.Name
	}
	return dir, nil
}

func (r *BankRepository) Create(ctx context.Context, bank *models.Bank) error {
	sql, args, err := psql.Insert("banks").
		Columns("code", "name").
		Values(bank.Code, bank.Name).
		Suffix("ON CONFLICT (code) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBankExists
	}
	return nil
}

func (r *BankRepository) Delete(ctx context.Context, code string) error {
	sql, args, err := psql.Delete("banks").Where(squirrel.Eq{"code": code}).ToSql()
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

func (r *BankRepository) GetByCode(ctx context.Context, code string) (*models.Bank, error) {
	sql, args, err := psql.Select("code", "name").From("banks").Where(squirrel.Eq{"code": code}).ToSql()
	if err != nil {
		return nil, err
	}

	var b models.Bank
	err = r.db.QueryRow(ctx, sql, args...).Scan(&b.Code, &b.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
