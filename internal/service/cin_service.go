package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ribscan/internal/cinid"
	"ribscan/internal/models"
	"ribscan/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CardStore is the persistence surface the identity-card pipeline needs.
type CardStore interface {
	CreateInPeriod(ctx context.Context, card *models.CINCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CINCard, error)
	ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error)
	ListForRetry(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error)
	UpdateInPeriod(ctx context.Context, card *models.CINCard) error
	DeleteInPeriod(ctx context.Context, id uuid.UUID) (*models.CINCard, error)
	DeleteAllInPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error)
}

// CardEdit carries the reviewer's manual corrections.
type CardEdit struct {
	CINNumber    string
	FirstName    string
	LastName     string
	BirthDate    string
	ValidityDate string
	Address      string
}

type CardService struct {
	cards     CardStore
	periods   PeriodStore
	extractor TextExtractor
	llm       FieldExtractor
	files     BlobStore
	workers   int
	logger    *zap.Logger
}

func NewCardService(
	cards CardStore,
	periods PeriodStore,
	extractor TextExtractor,
	llm FieldExtractor,
	files BlobStore,
	workers int,
	logger *zap.Logger,
) *CardService {
	if workers < 1 {
		workers = 1
	}
	return &CardService{
		cards:     cards,
		periods:   periods,
		extractor: extractor,
		llm:       llm,
		files:     files,
		workers:   workers,
		logger:    logger,
	}
}

type cardCandidate struct {
	file       UploadedFile
	storedName string
	rawText    string
	extraction *CardExtraction
	failure    error
}

// UploadCards mirrors the slip pipeline: bounded parallel extraction, then
// sequential validation and persistence in upload order.
func (s *CardService) UploadCards(ctx context.Context, periodID uuid.UUID, files []UploadedFile) ([]*models.CINCard, error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.IsLocked {
		return nil, repository.ErrPeriodLocked
	}

	candidates := make([]cardCandidate, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			candidates[i] = s.extractCard(gctx, periodID, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]*models.CINCard, 0, len(candidates))
	for _, cand := range candidates {
		card, err := s.persistCandidate(ctx, periodID, cand)
		if err != nil {
			return results, err
		}
		results = append(results, card)
	}
	return results, nil
}

func (s *CardService) extractCard(ctx context.Context, periodID uuid.UUID, file UploadedFile) cardCandidate {
	cand := cardCandidate{file: file}

	cand.storedName = CardFileName(periodID, file.Name)
	if err := s.files.Save(cand.storedName, file.Content); err != nil {
		cand.failure = fmt.Errorf("store %s: %w", file.Name, err)
		return cand
	}

	cand.rawText = s.extractor.ExtractText(ctx, file.Content, contentTypeFor(file.Name))
	cand.extraction = s.llm.ExtractCardFields(ctx, cand.rawText)
	return cand
}

func (s *CardService) persistCandidate(ctx context.Context, periodID uuid.UUID, cand cardCandidate) (*models.CINCard, error) {
	card := &models.CINCard{
		ID:        uuid.New(),
		PeriodID:  periodID,
		FileName:  cand.storedName,
		Status:    models.CardStatusError,
		CreatedAt: time.Now(),
	}

	switch {
	case cand.failure != nil:
		s.logger.Warn("card extraction failed", zap.String("file", cand.file.Name), zap.Error(cand.failure))
		card.RawText = "Error: " + cand.failure.Error()
	case cand.extraction.Failed():
		card.RawText = truncateText(cand.rawText, maxStoredRawText)
		if card.RawText == "" {
			card.RawText = "Error: " + cand.extraction.FailureReason
		}
	default:
		s.fillFromExtraction(card, cand.rawText, cand.extraction)
	}

	if err := s.cards.CreateInPeriod(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardService) fillFromExtraction(card *models.CINCard, rawText string, ext *CardExtraction) {
	card.CINNumber = ext.Number
	card.FirstName = ext.FirstName
	card.LastName = ext.LastName
	card.BirthDate = ext.BirthDate
	card.ValidityDate = ext.ValidityDate
	card.Address = ext.Address
	card.RawText = truncateText(rawText, maxStoredRawText)
	card.Status = cinid.Validate(cinid.Fields{
		Number:       ext.Number,
		FirstName:    ext.FirstName,
		LastName:     ext.LastName,
		ValidityDate: ext.ValidityDate,
	}, time.Now())
}

// UpdateCard applies a reviewer's manual correction and revalidates.
func (s *CardService) UpdateCard(ctx context.Context, id uuid.UUID, edit CardEdit) (*models.CINCard, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	card.CINNumber = cinid.CleanNumber(edit.CINNumber)
	card.FirstName = strings.ToUpper(strings.TrimSpace(edit.FirstName))
	card.LastName = strings.ToUpper(strings.TrimSpace(edit.LastName))
	card.BirthDate = strings.TrimSpace(edit.BirthDate)
	card.ValidityDate = strings.TrimSpace(edit.ValidityDate)
	card.Address = strings.TrimSpace(edit.Address)
	card.Status = cinid.Validate(cinid.Fields{
		Number:       card.CINNumber,
		FirstName:    card.FirstName,
		LastName:     card.LastName,
		ValidityDate: card.ValidityDate,
	}, time.Now())
	card.IsManuallyCorrected = true

	if err := s.cards.UpdateInPeriod(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardService) ListCards(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error) {
	return s.cards.ListByPeriod(ctx, periodID)
}

func (s *CardService) DeleteCard(ctx context.Context, id uuid.UUID) error {
	card, err := s.cards.DeleteInPeriod(ctx, id)
	if err != nil {
		return err
	}
	s.files.Delete(card.FileName)
	return nil
}

func (s *CardService) DeleteAllCards(ctx context.Context, periodID uuid.UUID) (int, error) {
	cards, err := s.cards.DeleteAllInPeriod(ctx, periodID)
	if err != nil {
		return 0, err
	}
	for _, card := range cards {
		s.files.Delete(card.FileName)
	}
	return len(cards), nil
}

// RetryCard reruns extraction for one record, reusing stored text when
// usable and re-OCRing the stored file otherwise.
func (s *CardService) RetryCard(ctx context.Context, id uuid.UUID) (*models.CINCard, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	period, err := s.periods.GetByID(ctx, card.PeriodID)
	if err != nil {
		return nil, err
	}
	if period.IsLocked {
		return nil, repository.ErrPeriodLocked
	}
	return s.reprocessCard(ctx, card)
}

func (s *CardService) reprocessCard(ctx context.Context, card *models.CINCard) (*models.CINCard, error) {
	rawText := card.RawText
	if strings.HasPrefix(rawText, "Error:") {
		rawText = ""
	}

	switch DecideReprocess(len(rawText), s.files.Exists(card.FileName)) {
	case ReprocessSkip:
		return nil, fmt.Errorf("%s: no source file and no usable text", card.FileName)
	case ReprocessReExtract:
		content, err := s.files.Read(card.FileName)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", card.FileName, err)
		}
		rawText = s.extractor.ExtractText(ctx, content, contentTypeFor(card.FileName))
		if len(strings.TrimSpace(rawText)) < minUsableRawText {
			// Keep whatever text was recovered but leave the record's
			// status and fields as they were.
			card.RawText = truncateText(rawText, maxStoredRawText)
			if err := s.cards.UpdateInPeriod(ctx, card); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%s: extraction produced no usable text", card.FileName)
		}
	}

	ext := s.llm.ExtractCardFields(ctx, rawText)
	if ext.Failed() {
		card.RawText = truncateText(rawText, maxStoredRawText)
		card.Status = models.CardStatusError
	} else {
		s.fillFromExtraction(card, rawText, ext)
	}
	card.IsManuallyCorrected = false

	if err := s.cards.UpdateInPeriod(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// RetryPeriod reprocesses every failed or suspicious card of the period,
// isolating per-record failures.
func (s *CardService) RetryPeriod(ctx context.Context, periodID uuid.UUID) (processed, failed int, err error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return 0, 0, err
	}
	if period.IsLocked {
		return 0, 0, repository.ErrPeriodLocked
	}

	cards, err := s.cards.ListForRetry(ctx, periodID)
	if err != nil {
		return 0, 0, err
	}

	for _, card := range cards {
		if _, rerr := s.reprocessCard(ctx, card); rerr != nil {
			s.logger.Warn("card retry failed", zap.String("file", card.FileName), zap.Error(rerr))
			failed++
			continue
		}
		processed++
	}
	return processed, failed, nil
}
