package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"ribscan/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrEmptyPeriodName = errors.New("period name is empty")

// PeriodRepo extends the read-only PeriodStore with the mutations the
// period service needs.
type PeriodRepo interface {
	PeriodStore
	Create(ctx context.Context, period *models.Period) error
	List(ctx context.Context) ([]*models.Period, error)
	ToggleLock(ctx context.Context, id uuid.UUID) (*models.Period, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PeriodService struct {
	periods PeriodRepo
	slips   SlipStore
	cards   CardStore
	files   BlobStore
	logger  *zap.Logger
}

func NewPeriodService(periods PeriodRepo, slips SlipStore, cards CardStore, files BlobStore, logger *zap.Logger) *PeriodService {
	return &PeriodService{periods: periods, slips: slips, cards: cards, files: files, logger: logger}
}

func (s *PeriodService) Create(ctx context.Context, name string) (*models.Period, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyPeriodName
	}

	period := &models.Period{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.periods.Create(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

func (s *PeriodService) Get(ctx context.Context, id uuid.UUID) (*models.Period, error) {
	return s.periods.GetByID(ctx, id)
}

func (s *PeriodService) List(ctx context.Context) ([]*models.Period, error) {
	return s.periods.List(ctx)
}

// ToggleLock flips the period between open and locked. A locked period
// rejects every record mutation until unlocked.
func (s *PeriodService) ToggleLock(ctx context.Context, id uuid.UUID) (*models.Period, error) {
	return s.periods.ToggleLock(ctx, id)
}

// Delete removes the period, its records (via cascade) and their stored
// files. Works on locked periods too: deleting the period is the
// administrative way out.
func (s *PeriodService) Delete(ctx context.Context, id uuid.UUID) error {
	slips, err := s.slips.ListByPeriod(ctx, id)
	if err != nil {
		return err
	}
	cards, err := s.cards.ListByPeriod(ctx, id)
	if err != nil {
		return err
	}

	if err := s.periods.Delete(ctx, id); err != nil {
		return err
	}

	for _, slip := range slips {
		s.files.Delete(slip.FileName)
	}
	for _, card := range cards {
		s.files.Delete(card.FileName)
	}
	return nil
}

// BankCount is one row of the per-bank distribution, sorted by volume.
type BankCount struct {
	Bank  string `json:"bank"`
	Count int    `json:"count"`
}

// PeriodStats summarizes a period's slips for the review dashboard.
// SUCCESS and DUPLICATE rows carry a usable RIB; ERROR and SUSPICIOUS
// rows need human attention.
type PeriodStats struct {
	TotalFiles       int         `json:"total_files"`
	ValidRIBs        int         `json:"valid_ribs"`
	Discrepancies    int         `json:"discrepancies"`
	BankDistribution []BankCount `json:"bank_distribution"`
}

func (s *PeriodService) Stats(ctx context.Context, id uuid.UUID) (*PeriodStats, error) {
	if _, err := s.periods.GetByID(ctx, id); err != nil {
		return nil, err
	}

	slips, err := s.slips.ListByPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &PeriodStats{TotalFiles: len(slips)}
	byBank := make(map[string]int)
	for _, slip := range slips {
		switch slip.Status {
		case models.SlipStatusSuccess, models.SlipStatusDuplicate:
			stats.ValidRIBs++
			byBank[slip.AIBankName]++
		case models.SlipStatusError, models.SlipStatusSuspicious:
			stats.Discrepancies++
		}
	}

	stats.BankDistribution = make([]BankCount, 0, len(byBank))
	for bank, count := range byBank {
		stats.BankDistribution = append(stats.BankDistribution, BankCount{Bank: bank, Count: count})
	}
	sort.Slice(stats.BankDistribution, func(i, j int) bool {
		a, b := stats.BankDistribution[i], stats.BankDistribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Bank < b.Bank
	})
	return stats, nil
}
