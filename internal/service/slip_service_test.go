package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"ribscan/internal/banking"
	"ribscan/internal/models"
	"ribscan/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSlipStore struct {
	slips   map[uuid.UUID]*models.RIBSlip
	created []*models.RIBSlip
	updated []*models.RIBSlip
}

func newStubSlipStore() *stubSlipStore {
	return &stubSlipStore{slips: make(map[uuid.UUID]*models.RIBSlip)}
}

func (s *stubSlipStore) CreateInPeriod(ctx context.Context, slip *models.RIBSlip) error {
	cp := *slip
	s.slips[slip.ID] = &cp
	s.created = append(s.created, &cp)
	return nil
}

func (s *stubSlipStore) GetByID(ctx context.Context, id uuid.UUID) (*models.RIBSlip, error) {
	if slip, ok := s.slips[id]; ok {
		cp := *slip
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubSlipStore) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error) {
	var out []*models.RIBSlip
	for _, slip := range s.created {
		if slip.PeriodID == periodID {
			out = append(out, slip)
		}
	}
	return out, nil
}

func (s *stubSlipStore) ListForRetry(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error) {
	var out []*models.RIBSlip
	for _, slip := range s.created {
		if slip.PeriodID != periodID {
			continue
		}
		if slip.Status != models.SlipStatusError && slip.Status != models.SlipStatusSuspicious {
			continue
		}
		if slip.RawText == "" || strings.HasPrefix(slip.RawText, "Error:") {
			continue
		}
		cp := *slip
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubSlipStore) HasDuplicate(ctx context.Context, periodID uuid.UUID, rib string, excludeID uuid.UUID) (bool, error) {
	if rib == "" {
		return false, nil
	}
	for _, slip := range s.slips {
		if slip.PeriodID == periodID && slip.RIB == rib && slip.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubSlipStore) UpdateInPeriod(ctx context.Context, slip *models.RIBSlip) error {
	if _, ok := s.slips[slip.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *slip
	s.slips[slip.ID] = &cp
	s.updated = append(s.updated, &cp)
	return nil
}

func (s *stubSlipStore) DeleteInPeriod(ctx context.Context, id uuid.UUID) (*models.RIBSlip, error) {
	slip, ok := s.slips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.slips, id)
	return slip, nil
}

func (s *stubSlipStore) DeleteAllInPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.RIBSlip, error) {
	var out []*models.RIBSlip
	for id, slip := range s.slips {
		if slip.PeriodID == periodID {
			out = append(out, slip)
			delete(s.slips, id)
		}
	}
	return out, nil
}

type stubPeriodStore struct {
	periods map[uuid.UUID]*models.Period
}

func (s *stubPeriodStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Period, error) {
	if p, ok := s.periods[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

type stubDirectory struct{ dir banking.Directory }

func (s *stubDirectory) Directory(ctx context.Context) (banking.Directory, error) {
	return s.dir, nil
}

// stubExtractor returns canned raw text keyed by file content.
type stubExtractor struct {
	texts map[string]string
}

func (s *stubExtractor) ExtractText(ctx context.Context, content []byte, contentType string) string {
	return s.texts[string(content)]
}

// stubLLM returns canned extractions keyed by raw text.
type stubLLM struct {
	slips map[string]*SlipExtraction
	cards map[string]*CardExtraction
}

func (s *stubLLM) ExtractSlipFields(ctx context.Context, rawText string, banks banking.Directory) *SlipExtraction {
	if ext, ok := s.slips[rawText]; ok {
		cp := *ext
		return &cp
	}
	return &SlipExtraction{FailureReason: "no canned extraction"}
}

func (s *stubLLM) ExtractCardFields(ctx context.Context, rawText string) *CardExtraction {
	if ext, ok := s.cards[rawText]; ok {
		cp := *ext
		return &cp
	}
	return &CardExtraction{FailureReason: "no canned extraction"}
}

type stubBlobStore struct {
	files   map[string][]byte
	deleted []string
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{files: make(map[string][]byte)}
}

func (s *stubBlobStore) Save(name string, content []byte) error {
	s.files[name] = content
	return nil
}

func (s *stubBlobStore) Read(name string) ([]byte, error) {
	if content, ok := s.files[name]; ok {
		return content, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubBlobStore) Exists(name string) bool {
	_, ok := s.files[name]
	return ok
}

func (s *stubBlobStore) Delete(name string) {
	delete(s.files, name)
	s.deleted = append(s.deleted, name)
}

type slipFixture struct {
	svc      *SlipService
	store    *stubSlipStore
	periods  *stubPeriodStore
	blob     *stubBlobStore
	llm      *stubLLM
	periodID uuid.UUID
}

func newSlipFixture(t *testing.T) *slipFixture {
	t.Helper()
	periodID := uuid.New()
	store := newStubSlipStore()
	periods := &stubPeriodStore{periods: map[uuid.UUID]*models.Period{
		periodID: {ID: periodID, Name: "Août 2026", CreatedAt: time.Now()},
	}}
	blob := newStubBlobStore()
	extractor := &stubExtractor{texts: map[string]string{
		"doc-a": "RIB: 007 640 000123456789012345 Titulaire YOUSSEF EL AMRANI",
		"doc-b": "RIB: 230 450 000987654321098765 Titulaire SARA BENNANI",
		"doc-c": "RIB: 007 640 000123456789012345 Titulaire copie",
	}}
	llm := &stubLLM{slips: map[string]*SlipExtraction{
		extractor.texts["doc-a"]: {RIB: "007640000123456789012345", FirstName: "YOUSSEF", LastName: "EL AMRANI", BankName: "Attijariwafa"},
		extractor.texts["doc-b"]: {RIB: "230450000987654321098765", FirstName: "SARA", LastName: "BENNANI", BankName: "CIH"},
		extractor.texts["doc-c"]: {RIB: "007640000123456789012345", FirstName: "KARIM", LastName: "ALAOUI", BankName: "Attijariwafa"},
	}}
	dir := &stubDirectory{dir: banking.Directory{"007": "Attijariwafa Bank", "230": "CIH Bank"}}

	svc := NewSlipService(store, periods, dir, extractor, llm, blob, 2, zap.NewNop())
	return &slipFixture{svc: svc, store: store, periods: periods, blob: blob, llm: llm, periodID: periodID}
}

func TestUploadSlips(t *testing.T) {
	f := newSlipFixture(t)

	slips, err := f.svc.UploadSlips(context.Background(), f.periodID, []UploadedFile{
		{Name: "a.pdf", Content: []byte("doc-a")},
		{Name: "b.pdf", Content: []byte("doc-b")},
	})
	require.NoError(t, err)
	require.Len(t, slips, 2)

	assert.Equal(t, models.SlipStatusSuccess, slips[0].Status)
	assert.Equal(t, "007640000123456789012345", slips[0].RIB)
	assert.Equal(t, "Attijariwafa Bank", slips[0].AIBankName, "directory name wins over model name")
	assert.Equal(t, models.SlipStatusSuccess, slips[1].Status)

	assert.Len(t, f.store.created, 2)
	assert.Len(t, f.blob.files, 2, "source files stored")
}

func TestUploadSlipsDuplicateOrder(t *testing.T) {
	f := newSlipFixture(t)

	slips, err := f.svc.UploadSlips(context.Background(), f.periodID, []UploadedFile{
		{Name: "a.pdf", Content: []byte("doc-a")},
		{Name: "copy.pdf", Content: []byte("doc-c")},
	})
	require.NoError(t, err)
	require.Len(t, slips, 2)

	// first upload of the RIB wins, the repeat is flagged
	assert.Equal(t, models.SlipStatusSuccess, slips[0].Status)
	assert.Equal(t, models.SlipStatusDuplicate, slips[1].Status)
}

func TestUploadSlipsLockedPeriod(t *testing.T) {
	f := newSlipFixture(t)
	f.periods.periods[f.periodID].IsLocked = true

	_, err := f.svc.UploadSlips(context.Background(), f.periodID, []UploadedFile{
		{Name: "a.pdf", Content: []byte("doc-a")},
	})
	assert.ErrorIs(t, err, repository.ErrPeriodLocked)
	assert.Empty(t, f.store.created)
}

func TestUploadSlipsModelFailureIsolated(t *testing.T) {
	f := newSlipFixture(t)

	slips, err := f.svc.UploadSlips(context.Background(), f.periodID, []UploadedFile{
		{Name: "junk.pdf", Content: []byte("unreadable")},
		{Name: "b.pdf", Content: []byte("doc-b")},
	})
	require.NoError(t, err)
	require.Len(t, slips, 2)

	assert.Equal(t, models.SlipStatusError, slips[0].Status)
	assert.Equal(t, models.SlipStatusSuccess, slips[1].Status, "one bad file does not sink the batch")
}

func TestUploadSlipsRecoversMalformedRIB(t *testing.T) {
	f := newSlipFixture(t)
	raw := "MA64 007 640 000123456789012345 Titulaire YOUSSEF"
	f.svc.extractor.(*stubExtractor).texts["doc-r"] = raw
	// model dropped digits, but the document text still carries the RIB
	f.llm.slips[raw] = &SlipExtraction{RIB: "00764000", FirstName: "YOUSSEF", LastName: "EL AMRANI", BankName: "Attijariwafa"}

	slips, err := f.svc.UploadSlips(context.Background(), f.periodID, []UploadedFile{
		{Name: "r.pdf", Content: []byte("doc-r")},
	})
	require.NoError(t, err)
	require.Len(t, slips, 1)

	assert.Equal(t, "007640000123456789012345", slips[0].RIB)
	assert.Equal(t, models.SlipStatusSuccess, slips[0].Status)
}

func TestUpdateSlip(t *testing.T) {
	f := newSlipFixture(t)
	slips, err := f.svc.UploadSlips(context.Background(), f.periodID, []UploadedFile{
		{Name: "junk.pdf", Content: []byte("unreadable")},
	})
	require.NoError(t, err)
	require.Equal(t, models.SlipStatusError, slips[0].Status)

	updated, err := f.svc.UpdateSlip(context.Background(), slips[0].ID, SlipEdit{
		FirstName: "karim",
		LastName:  "alaoui",
		RIB:       "230 450 000111222333444555",
	})
	require.NoError(t, err)

	assert.Equal(t, "KARIM", updated.FirstName)
	assert.Equal(t, "ALAOUI", updated.LastName)
	assert.Equal(t, "230450000111222333444555", updated.RIB)
	assert.Equal(t, models.SlipStatusSuccess, updated.Status, "manual edit skips the source text check")
	assert.True(t, updated.IsManuallyCorrected)
}

func TestUpdateSlipToDuplicate(t *testing.T) {
	f := newSlipFixture(t)
	slips, err := f.svc.UploadSlips(context.Background(), f.periodID, []UploadedFile{
		{Name: "a.pdf", Content: []byte("doc-a")},
		{Name: "junk.pdf", Content: []byte("unreadable")},
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateSlip(context.Background(), slips[1].ID, SlipEdit{
		RIB: slips[0].RIB,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SlipStatusDuplicate, updated.Status)
}

func TestRetrySlipNoFileNoText(t *testing.T) {
	f := newSlipFixture(t)
	slips, err := f.svc.UploadSlips(context.Background(), f.periodID, []UploadedFile{
		{Name: "junk.pdf", Content: []byte("unreadable")},
	})
	require.NoError(t, err)
	f.blob.Delete(slips[0].FileName)

	_, err = f.svc.RetrySlip(context.Background(), slips[0].ID)
	assert.Error(t, err)
}

func TestRetrySlipReusesStoredText(t *testing.T) {
	f := newSlipFixture(t)
	raw := "RIB: 007 640 000123456789012345 Titulaire YOUSSEF EL AMRANI"

	// seed a suspicious record whose stored text is long enough to reuse
	id := uuid.New()
	f.store.slips[id] = &models.RIBSlip{
		ID:                  id,
		PeriodID:            f.periodID,
		FileName:            "gone.pdf",
		RawText:             raw,
		Status:              models.SlipStatusSuspicious,
		IsManuallyCorrected: true,
	}

	updated, err := f.svc.RetrySlip(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, models.SlipStatusSuccess, updated.Status)
	assert.Equal(t, "007640000123456789012345", updated.RIB)
	assert.False(t, updated.IsManuallyCorrected, "reprocessing discards the manual flag")
}

func TestRetryPeriodIsolatesFailures(t *testing.T) {
	f := newSlipFixture(t)
	raw := "RIB: 007 640 000123456789012345 Titulaire YOUSSEF EL AMRANI"

	good := uuid.New()
	f.store.slips[good] = &models.RIBSlip{ID: good, PeriodID: f.periodID, FileName: "good.pdf", RawText: raw, Status: models.SlipStatusSuspicious}
	f.store.created = append(f.store.created, f.store.slips[good])

	// short raw text, no source file on disk: nothing to reprocess with
	bad := uuid.New()
	f.store.slips[bad] = &models.RIBSlip{ID: bad, PeriodID: f.periodID, FileName: "bad.pdf", RawText: "RIB 007", Status: models.SlipStatusError}
	f.store.created = append(f.store.created, f.store.slips[bad])

	processed, failed, err := f.svc.RetryPeriod(context.Background(), f.periodID)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, failed)
}

func TestRetryPeriodSkipsRecordsWithoutText(t *testing.T) {
	f := newSlipFixture(t)

	id := uuid.New()
	f.store.slips[id] = &models.RIBSlip{ID: id, PeriodID: f.periodID, FileName: "bad.pdf", RawText: "Error: storage failed", Status: models.SlipStatusError}
	f.store.created = append(f.store.created, f.store.slips[id])
	// a stored file exists, but bulk retry must not spend an OCR call on it
	f.blob.files["bad.pdf"] = []byte("doc-a")

	processed, failed, err := f.svc.RetryPeriod(context.Background(), f.periodID)
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Zero(t, failed)
	assert.Empty(t, f.store.updated)
}

func TestRetrySlipAbortKeepsStatus(t *testing.T) {
	f := newSlipFixture(t)

	id := uuid.New()
	f.store.slips[id] = &models.RIBSlip{ID: id, PeriodID: f.periodID, FileName: "scan.pdf", RawText: "Error: unreadable", Status: models.SlipStatusSuspicious}
	// the stored file yields no text either
	f.blob.files["scan.pdf"] = []byte("blank")

	_, err := f.svc.RetrySlip(context.Background(), id)
	require.Error(t, err)

	kept, gerr := f.store.GetByID(context.Background(), id)
	require.NoError(t, gerr)
	assert.Equal(t, models.SlipStatusSuspicious, kept.Status, "aborted retry leaves the status alone")
	assert.Empty(t, kept.RawText)
}

func TestDeleteSlipRemovesFile(t *testing.T) {
	f := newSlipFixture(t)
	slips, err := f.svc.UploadSlips(context.Background(), f.periodID, []UploadedFile{
		{Name: "a.pdf", Content: []byte("doc-a")},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSlip(context.Background(), slips[0].ID))
	assert.Contains(t, f.blob.deleted, slips[0].FileName)
}
