package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdeck/backend/internal/docmodel"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/models"
	"github.com/civicdeck/backend/internal/server/repositories/cards"
)

func TestFedOfficialCardInput(t *testing.T) {
	rec := docmodel.Record{
		"id":             "fo-1",
		"propublica_id":  "K000377",
		"first_name":     "Laura",
		"last_name":      "Kelly",
		"memberScores":   `{"social": 12.5, "economic": -3, "international": 40}`,
		"congressData":   `{"depiction": {"imageUrl": "https://img.test/k000377.jpg"}}`,
		"proPublicaData": `{"title": "Senator"}`,
	}

	in := fedOfficialCardInput(rec)
	assert.Equal(t, "fo-1", in.ID)
	assert.Equal(t, "K000377", in.ExternalID)
	assert.Equal(t, "Laura Kelly", *in.Title)
	assert.Equal(t, "https://img.test/k000377.jpg", *in.ImageURL)
	assert.Equal(t, "Senator", *in.JobTitle)
	assert.Equal(t, 12.5, *in.SocialScore)
	assert.Equal(t, -3.0, *in.EconomicScore)
	assert.Equal(t, 40.0, *in.InternationalScore)
}

func TestFedOfficialCardInput_MissingPayloads(t *testing.T) {
	in := fedOfficialCardInput(docmodel.Record{"id": "fo-2", "last_name": "Cortez"})
	assert.Equal(t, "Cortez", *in.Title)
	assert.Nil(t, in.SocialScore)
	assert.Nil(t, in.ImageURL)
	assert.Nil(t, in.JobTitle)
}

func TestFedBillCardInput(t *testing.T) {
	rec := docmodel.Record{
		"id":           "hr-1234-118",
		"billNumber":   "1234",
		"billType":     "hr",
		"congress":     "118",
		"billCategory": `{"category": "economic", "score": 35}`,
		"billSummary":  `{"summary": "Raises the widget tariff."}`,
	}

	in := fedBillCardInput(rec)
	assert.Equal(t, "Bill hr.1234[118th]", *in.Title)
	assert.Equal(t, "Raises the widget tariff.", *in.Description)
	require.NotNil(t, in.EconomicScore)
	assert.Equal(t, 35.0, *in.EconomicScore)
	assert.Nil(t, in.SocialScore)
	assert.Nil(t, in.InternationalScore)
}

func TestBillScores_ForeignMapsToInternational(t *testing.T) {
	rec := docmodel.Record{"billCategory": `{"category": "foreign", "score": -10}`}
	scores := billScores(rec, "billCategory")
	require.NotNil(t, scores.International)
	assert.Equal(t, -10.0, *scores.International)
}

func TestStateOfficialCardInput(t *testing.T) {
	rec := docmodel.Record{
		"id":              "so-1",
		"refId":           "ocd-person/1234",
		"state":           "KS",
		"name":            "Pat Roberts",
		"current_chamber": "upper",
		"image":           "https://img.test/so-1.jpg",
		"memberScores":    `{"social": 5}`,
	}

	in := stateOfficialCardInput(rec)
	assert.Equal(t, "KS", *in.State)
	assert.Equal(t, "Pat Roberts", *in.Title)
	assert.Equal(t, "Senator", *in.JobTitle)
	assert.Equal(t, 5.0, *in.SocialScore)
	assert.Nil(t, in.EconomicScore)
}

func TestStateBillCardInput(t *testing.T) {
	rec := docmodel.Record{
		"id":           "ks-sb-99",
		"state":        "KS",
		"billNumber":   "SB 99",
		"billCategory": `{"category": "social", "score": 20}`,
		"billSummary":  `{"summary": "School funding."}`,
	}

	in := stateBillCardInput(rec)
	assert.Equal(t, "KS", *in.State)
	assert.Equal(t, "SB 99", *in.Title)
	assert.Equal(t, "School funding.", *in.Description)
	assert.Equal(t, 20.0, *in.SocialScore)
}

func TestSyncFedOfficials(t *testing.T) {
	repo := &fakeCardsRepo{}
	s := NewCardsService(nil, &fakeRepoManager{cards: repo}, logging.NopLogger{})

	records := []docmodel.Record{
		{"id": "fo-1", "first_name": "Laura", "last_name": "Kelly"},
		{"id": "fo-2", "first_name": "Jerry", "last_name": "Moran"},
	}
	require.NoError(t, s.SyncFedOfficials(context.Background(), records))

	require.Len(t, repo.batches, 1)
	assert.Len(t, repo.batches[0], 2)
	assert.Equal(t, models.CardTypeFedOfficial, repo.batchType)
	assert.Equal(t, cards.BulkBestEffort, repo.batchMode)
}

func TestSyncStateBills_EmptyIsNoop(t *testing.T) {
	repo := &fakeCardsRepo{}
	s := NewCardsService(nil, &fakeRepoManager{cards: repo}, logging.NopLogger{})

	require.NoError(t, s.SyncStateBills(context.Background(), nil))
	assert.Empty(t, repo.batches)
}

func TestSyncFedBills_RepoError(t *testing.T) {
	repo := &fakeCardsRepo{err: assert.AnError}
	s := NewCardsService(nil, &fakeRepoManager{cards: repo}, logging.NopLogger{})

	err := s.SyncFedBills(context.Background(), []docmodel.Record{{"id": "hr-1"}})
	assert.ErrorContains(t, err, "sync FedBill cards")
}
