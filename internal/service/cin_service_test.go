package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"ribscan/internal/models"
	"ribscan/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCardStore struct {
	cards   map[uuid.UUID]*models.CINCard
	created []*models.CINCard
	updated []*models.CINCard
}

func newStubCardStore() *stubCardStore {
	return &stubCardStore{cards: make(map[uuid.UUID]*models.CINCard)}
}

func (s *stubCardStore) CreateInPeriod(ctx context.Context, card *models.CINCard) error {
	cp := *card
	s.cards[card.ID] = &cp
	s.created = append(s.created, &cp)
	return nil
}

func (s *stubCardStore) GetByID(ctx context.Context, id uuid.UUID) (*models.CINCard, error) {
	if card, ok := s.cards[id]; ok {
		cp := *card
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubCardStore) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error) {
	var out []*models.CINCard
	for _, card := range s.created {
		if card.PeriodID == periodID {
			out = append(out, card)
		}
	}
	return out, nil
}

func (s *stubCardStore) ListForRetry(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error) {
	var out []*models.CINCard
	for _, card := range s.created {
		if card.PeriodID != periodID {
			continue
		}
		if card.Status != models.CardStatusError && card.Status != models.CardStatusSuspicious {
			continue
		}
		if card.RawText == "" || strings.HasPrefix(card.RawText, "Error:") {
			continue
		}
		cp := *card
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubCardStore) UpdateInPeriod(ctx context.Context, card *models.CINCard) error {
	if _, ok := s.cards[card.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *card
	s.cards[card.ID] = &cp
	s.updated = append(s.updated, &cp)
	return nil
}

func (s *stubCardStore) DeleteInPeriod(ctx context.Context, id uuid.UUID) (*models.CINCard, error) {
	card, ok := s.cards[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.cards, id)
	return card, nil
}

func (s *stubCardStore) DeleteAllInPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.CINCard, error) {
	var out []*models.CINCard
	for id, card := range s.cards {
		if card.PeriodID == periodID {
			out = append(out, card)
			delete(s.cards, id)
		}
	}
	return out, nil
}

type cardFixture struct {
	svc      *CardService
	store    *stubCardStore
	periods  *stubPeriodStore
	blob     *stubBlobStore
	llm      *stubLLM
	periodID uuid.UUID
}

func newCardFixture(t *testing.T) *cardFixture {
	t.Helper()
	periodID := uuid.New()
	store := newStubCardStore()
	periods := &stubPeriodStore{periods: map[uuid.UUID]*models.Period{
		periodID: {ID: periodID, Name: "Août 2026", CreatedAt: time.Now()},
	}}
	blob := newStubBlobStore()

	validUntil := time.Now().AddDate(2, 0, 0).Format("02/01/2006")
	extractor := &stubExtractor{texts: map[string]string{
		"cin-ok":      "ROYAUME DU MAROC CARTE NATIONALE BJ488277 YOUSSEF EL AMRANI",
		"cin-expired": "ROYAUME DU MAROC CARTE NATIONALE A40020 SARA BENNANI",
	}}
	llm := &stubLLM{cards: map[string]*CardExtraction{
		extractor.texts["cin-ok"]: {
			Number: "BJ488277", FirstName: "YOUSSEF", LastName: "EL AMRANI",
			BirthDate: "12/05/1990", ValidityDate: validUntil, Address: "HAY RIAD, RABAT",
		},
		extractor.texts["cin-expired"]: {
			Number: "A40020", FirstName: "SARA", LastName: "BENNANI",
			BirthDate: "01/02/1985", ValidityDate: "10/10/2019",
		},
	}}

	svc := NewCardService(store, periods, extractor, llm, blob, 2, zap.NewNop())
	return &cardFixture{svc: svc, store: store, periods: periods, blob: blob, llm: llm, periodID: periodID}
}

func TestUploadCards(t *testing.T) {
	f := newCardFixture(t)

	cards, err := f.svc.UploadCards(context.Background(), f.periodID, []UploadedFile{
		{Name: "cin1.jpg", Content: []byte("cin-ok")},
		{Name: "cin2.jpg", Content: []byte("cin-expired")},
	})
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.Equal(t, models.CardStatusValid, cards[0].Status)
	assert.Equal(t, "BJ488277", cards[0].CINNumber)
	assert.Equal(t, models.CardStatusExpired, cards[1].Status)
	assert.Len(t, f.blob.files, 2)
}

func TestUploadCardsLockedPeriod(t *testing.T) {
	f := newCardFixture(t)
	f.periods.periods[f.periodID].IsLocked = true

	_, err := f.svc.UploadCards(context.Background(), f.periodID, []UploadedFile{
		{Name: "cin1.jpg", Content: []byte("cin-ok")},
	})
	assert.ErrorIs(t, err, repository.ErrPeriodLocked)
}

func TestUploadCardsModelFailure(t *testing.T) {
	f := newCardFixture(t)

	cards, err := f.svc.UploadCards(context.Background(), f.periodID, []UploadedFile{
		{Name: "blur.jpg", Content: []byte("unreadable")},
	})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, models.CardStatusError, cards[0].Status)
}

func TestUpdateCard(t *testing.T) {
	f := newCardFixture(t)
	cards, err := f.svc.UploadCards(context.Background(), f.periodID, []UploadedFile{
		{Name: "blur.jpg", Content: []byte("unreadable")},
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateCard(context.Background(), cards[0].ID, CardEdit{
		CINNumber:    "bj 129-044",
		FirstName:    "nadia",
		LastName:     "cherkaoui",
		BirthDate:    "22/07/1992",
		ValidityDate: "01/01/2031",
		Address:      "  GUELIZ, MARRAKECH ",
	})
	require.NoError(t, err)

	assert.Equal(t, "BJ129044", updated.CINNumber)
	assert.Equal(t, "NADIA", updated.FirstName)
	assert.Equal(t, "CHERKAOUI", updated.LastName)
	assert.Equal(t, "GUELIZ, MARRAKECH", updated.Address)
	assert.Equal(t, models.CardStatusValid, updated.Status)
	assert.True(t, updated.IsManuallyCorrected)
}

func TestRetryCardReExtractsFromFile(t *testing.T) {
	f := newCardFixture(t)

	// ERROR record whose stored file is still on disk and now readable
	id := uuid.New()
	f.store.cards[id] = &models.CINCard{
		ID:       id,
		PeriodID: f.periodID,
		FileName: "retry.jpg",
		RawText:  "Error: model unavailable",
		Status:   models.CardStatusError,
	}
	f.blob.files["retry.jpg"] = []byte("cin-ok")

	updated, err := f.svc.RetryCard(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, models.CardStatusValid, updated.Status)
	assert.Equal(t, "BJ488277", updated.CINNumber)
	assert.False(t, updated.IsManuallyCorrected)
}

func TestRetryCardNothingToWorkWith(t *testing.T) {
	f := newCardFixture(t)

	id := uuid.New()
	f.store.cards[id] = &models.CINCard{
		ID:       id,
		PeriodID: f.periodID,
		FileName: "gone.jpg",
		RawText:  "short",
		Status:   models.CardStatusError,
	}

	_, err := f.svc.RetryCard(context.Background(), id)
	assert.Error(t, err)
	assert.Empty(t, f.store.updated, "record untouched when retry cannot run")
}

func TestRetryCardAbortKeepsStatus(t *testing.T) {
	f := newCardFixture(t)

	id := uuid.New()
	f.store.cards[id] = &models.CINCard{
		ID:       id,
		PeriodID: f.periodID,
		FileName: "scan.jpg",
		RawText:  "",
		Status:   models.CardStatusSuspicious,
	}
	// the stored file yields no text either
	f.blob.files["scan.jpg"] = []byte("blank")

	_, err := f.svc.RetryCard(context.Background(), id)
	require.Error(t, err)

	kept, gerr := f.store.GetByID(context.Background(), id)
	require.NoError(t, gerr)
	assert.Equal(t, models.CardStatusSuspicious, kept.Status, "aborted retry leaves the status alone")
}

func TestDeleteAllCardsCleansFiles(t *testing.T) {
	f := newCardFixture(t)
	cards, err := f.svc.UploadCards(context.Background(), f.periodID, []UploadedFile{
		{Name: "cin1.jpg", Content: []byte("cin-ok")},
		{Name: "cin2.jpg", Content: []byte("cin-expired")},
	})
	require.NoError(t, err)

	deleted, err := f.svc.DeleteAllCards(context.Background(), f.periodID)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Len(t, f.blob.deleted, len(cards))
	assert.Empty(t, f.blob.files)
}
