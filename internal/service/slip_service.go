package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ribscan/internal/banking"
	"ribscan/internal/models"
	"ribscan/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SlipStore is the persistence surface the slip pipeline needs.
type SlipStore interface {
	CreateInPeriod(ctx context.Context, slip *models.RIBSlip) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RIBSlip, error)
	ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error)
	ListForRetry(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error)
	HasDuplicate(ctx context.Context, periodID uuid.UUID, rib string, excludeID uuid.UUID) (bool, error)
	UpdateInPeriod(ctx context.Context, slip *models.RIBSlip) error
	DeleteInPeriod(ctx context.Context, id uuid.UUID) (*models.RIBSlip, error)
	DeleteAllInPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error)
}

// UploadedFile is one file of an upload batch, already read into memory.
type UploadedFile struct {
	Name    string
	Content []byte
}

// SlipEdit carries the reviewer's manual corrections.
type SlipEdit struct {
	FirstName string
	LastName  string
	RIB       string
}

type SlipService struct {
	slips     SlipStore
	periods   PeriodStore
	banks     DirectorySource
	extractor TextExtractor
	llm       FieldExtractor
	files     BlobStore
	workers   int
	logger    *zap.Logger
}

func NewSlipService(
	slips SlipStore,
	periods PeriodStore,
	banks DirectorySource,
	extractor TextExtractor,
	llm FieldExtractor,
	files BlobStore,
	workers int,
	logger *zap.Logger,
) *SlipService {
	if workers < 1 {
		workers = 1
	}
	return &SlipService{
		slips:     slips,
		periods:   periods,
		banks:     banks,
		extractor: extractor,
		llm:       llm,
		files:     files,
		workers:   workers,
		logger:    logger,
	}
}

// slipCandidate holds the per-file extraction result before the sequential
// classification pass.
type slipCandidate struct {
	file       UploadedFile
	storedName string
	rawText    string
	extraction *SlipExtraction
	failure    error
}

// UploadSlips runs the batch through the pipeline: bounded parallel
// OCR + model extraction, then sequential classification and persistence
// in upload order so duplicate detection is deterministic.
func (s *SlipService) UploadSlips(ctx context.Context, periodID uuid.UUID, files []UploadedFile) ([]*models.RIBSlip, error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.IsLocked {
		return nil, repository.ErrPeriodLocked
	}

	directory, err := s.banks.Directory(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]slipCandidate, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			candidates[i] = s.extractSlip(gctx, periodID, file, directory)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]*models.RIBSlip, 0, len(candidates))
	for _, cand := range candidates {
		slip, err := s.persistCandidate(ctx, periodID, cand, directory)
		if err != nil {
			return results, err
		}
		results = append(results, slip)
	}
	return results, nil
}

func (s *SlipService) extractSlip(ctx context.Context, periodID uuid.UUID, file UploadedFile, directory banking.Directory) slipCandidate {
	cand := slipCandidate{file: file}

	cand.storedName = SlipFileName(periodID, file.Name)
	if err := s.files.Save(cand.storedName, file.Content); err != nil {
		cand.failure = fmt.Errorf("store %s: %w", file.Name, err)
		return cand
	}

	cand.rawText = s.extractor.ExtractText(ctx, file.Content, contentTypeFor(file.Name))
	cand.extraction = s.llm.ExtractSlipFields(ctx, cand.rawText, directory)
	return cand
}

// persistCandidate classifies one extraction result and writes it. Failures
// of a single file never abort the batch; they are recorded as ERROR rows.
func (s *SlipService) persistCandidate(ctx context.Context, periodID uuid.UUID, cand slipCandidate, directory banking.Directory) (*models.RIBSlip, error) {
	slip := &models.RIBSlip{
		ID:        uuid.New(),
		PeriodID:  periodID,
		FileName:  cand.storedName,
		Status:    models.SlipStatusError,
		CreatedAt: time.Now(),
	}

	switch {
	case cand.failure != nil:
		s.logger.Warn("slip extraction failed", zap.String("file", cand.file.Name), zap.Error(cand.failure))
		slip.RawText = "Error: " + cand.failure.Error()
	case cand.extraction.Failed():
		slip.RawText = truncateText(cand.rawText, maxStoredRawText)
		if slip.RawText == "" {
			slip.RawText = "Error: " + cand.extraction.FailureReason
		}
	default:
		s.fillFromExtraction(ctx, slip, cand.rawText, cand.extraction, directory, uuid.Nil)
	}

	if err := s.slips.CreateInPeriod(ctx, slip); err != nil {
		return nil, err
	}
	return slip, nil
}

// fillFromExtraction applies recovery, duplicate detection and
// classification to an extraction result. excludeID is uuid.Nil on first
// ingest and the record's own ID on reprocessing.
func (s *SlipService) fillFromExtraction(ctx context.Context, slip *models.RIBSlip, rawText string, ext *SlipExtraction, directory banking.Directory, excludeID uuid.UUID) {
	rib := ext.RIB
	if len(rib) != banking.RIBLength {
		if recovered := banking.RecoverRIB(rawText, directory); recovered != "" {
			s.logger.Info("rib recovered from raw text",
				zap.String("file", slip.FileName),
				zap.String("model_rib", rib))
			rib = recovered
		}
	}

	duplicate, err := s.slips.HasDuplicate(ctx, slip.PeriodID, rib, excludeID)
	if err != nil {
		s.logger.Warn("duplicate check failed", zap.Error(err))
	}

	slip.FirstName = ext.FirstName
	slip.LastName = ext.LastName
	slip.RIB = rib
	slip.AIBankName = banking.ResolveBankName(rib, directory, ext.BankName)
	slip.RawText = truncateText(rawText, maxStoredRawText)
	slip.Status = banking.ClassifySlip(rib, directory, duplicate, rawText)
}

// UpdateSlip applies a reviewer's manual correction and reclassifies
// without the raw-text presence check, since the human saw the document.
func (s *SlipService) UpdateSlip(ctx context.Context, id uuid.UUID, edit SlipEdit) (*models.RIBSlip, error) {
	slip, err := s.slips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	directory, err := s.banks.Directory(ctx)
	if err != nil {
		return nil, err
	}

	rib := banking.CleanRIB(edit.RIB)
	duplicate, err := s.slips.HasDuplicate(ctx, slip.PeriodID, rib, slip.ID)
	if err != nil {
		return nil, err
	}

	slip.FirstName = strings.ToUpper(strings.TrimSpace(edit.FirstName))
	slip.LastName = strings.ToUpper(strings.TrimSpace(edit.LastName))
	slip.RIB = rib
	slip.AIBankName = banking.ResolveBankName(rib, directory, slip.AIBankName)
	slip.Status = banking.ClassifySlipEdit(rib, directory, duplicate)
	slip.IsManuallyCorrected = true

	if err := s.slips.UpdateInPeriod(ctx, slip); err != nil {
		return nil, err
	}
	return slip, nil
}

func (s *SlipService) ListSlips(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error) {
	return s.slips.ListByPeriod(ctx, periodID)
}

// DeleteSlip removes the record and its stored file.
func (s *SlipService) DeleteSlip(ctx context.Context, id uuid.UUID) error {
	slip, err := s.slips.DeleteInPeriod(ctx, id)
	if err != nil {
		return err
	}
	s.files.Delete(slip.FileName)
	return nil
}

// DeleteAllSlips clears the period's records and their stored files.
func (s *SlipService) DeleteAllSlips(ctx context.Context, periodID uuid.UUID) (int, error) {
	slips, err := s.slips.DeleteAllInPeriod(ctx, periodID)
	if err != nil {
		return 0, err
	}
	for _, slip := range slips {
		s.files.Delete(slip.FileName)
	}
	return len(slips), nil
}

// RetrySlip reruns extraction for one record. The stored raw text is reused
// when usable; otherwise the original file is re-read and re-OCRed. Manual
// corrections are discarded since the pipeline output replaces them.
func (s *SlipService) RetrySlip(ctx context.Context, id uuid.UUID) (*models.RIBSlip, error) {
	slip, err := s.slips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	period, err := s.periods.GetByID(ctx, slip.PeriodID)
	if err != nil {
		return nil, err
	}
	if period.IsLocked {
		return nil, repository.ErrPeriodLocked
	}

	directory, err := s.banks.Directory(ctx)
	if err != nil {
		return nil, err
	}
	return s.reprocessSlip(ctx, slip, directory)
}

func (s *SlipService) reprocessSlip(ctx context.Context, slip *models.RIBSlip, directory banking.Directory) (*models.RIBSlip, error) {
	rawText := slip.RawText
	if strings.HasPrefix(rawText, "Error:") {
		rawText = ""
	}

	switch DecideReprocess(len(rawText), s.files.Exists(slip.FileName)) {
	case ReprocessSkip:
		return nil, fmt.Errorf("%s: no source file and no usable text", slip.FileName)
	case ReprocessReExtract:
		content, err := s.files.Read(slip.FileName)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", slip.FileName, err)
		}
		rawText = s.extractor.ExtractText(ctx, content, contentTypeFor(slip.FileName))
		if len(strings.TrimSpace(rawText)) < minUsableRawText {
			// Keep whatever text was recovered but leave the record's
			// status and fields as they were.
			slip.RawText = truncateText(rawText, maxStoredRawText)
			if err := s.slips.UpdateInPeriod(ctx, slip); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%s: extraction produced no usable text", slip.FileName)
		}
	}

	ext := s.llm.ExtractSlipFields(ctx, rawText, directory)
	if ext.Failed() {
		slip.RawText = truncateText(rawText, maxStoredRawText)
		slip.Status = models.SlipStatusError
	} else {
		s.fillFromExtraction(ctx, slip, rawText, ext, directory, slip.ID)
	}
	slip.IsManuallyCorrected = false

	if err := s.slips.UpdateInPeriod(ctx, slip); err != nil {
		return nil, err
	}
	return slip, nil
}

// RetryPeriod reprocesses every failed or suspicious record of the period.
// Each record is isolated; one failure does not stop the sweep.
func (s *SlipService) RetryPeriod(ctx context.Context, periodID uuid.UUID) (processed, failed int, err error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return 0, 0, err
	}
	if period.IsLocked {
		return 0, 0, repository.ErrPeriodLocked
	}

	directory, err := s.banks.Directory(ctx)
	if err != nil {
		return 0, 0, err
	}

	slips, err := s.slips.ListForRetry(ctx, periodID)
	if err != nil {
		return 0, 0, err
	}

	for _, slip := range slips {
		if _, rerr := s.reprocessSlip(ctx, slip, directory); rerr != nil {
			s.logger.Warn("slip retry failed", zap.String("file", slip.FileName), zap.Error(rerr))
			failed++
			continue
		}
		processed++
	}
	return processed, failed, nil
}
