// Package services contains server-side business logic: feed assembly,
// swipe recording, card synchronization, and hydration scheduling.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/civicdeck/backend/internal/docmodel"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/models"
	"github.com/civicdeck/backend/internal/server/repositories/cards"
	"github.com/civicdeck/backend/internal/server/repositories/repomanager"
)

// CardsService turns catalog documents into relational cards and manages
// their review lifecycle.
type CardsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewCardsService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *CardsService {
	return &CardsService{db: db, repomanager: m, log: log}
}

// SyncFedOfficials inserts cards for federal official documents. Existing
// cards are left untouched.
func (s *CardsService) SyncFedOfficials(ctx context.Context, records []docmodel.Record) error {
	inputs := make([]cards.Input, 0, len(records))
	for _, rec := range records {
		inputs = append(inputs, fedOfficialCardInput(rec))
	}
	return s.createBatch(ctx, inputs, models.CardTypeFedOfficial)
}

// SyncFedBills inserts cards for federal bill documents.
func (s *CardsService) SyncFedBills(ctx context.Context, records []docmodel.Record) error {
	inputs := make([]cards.Input, 0, len(records))
	for _, rec := range records {
		inputs = append(inputs, fedBillCardInput(rec))
	}
	return s.createBatch(ctx, inputs, models.CardTypeFedBill)
}

// SyncStateOfficials inserts cards for state official documents.
func (s *CardsService) SyncStateOfficials(ctx context.Context, records []docmodel.Record) error {
	inputs := make([]cards.Input, 0, len(records))
	for _, rec := range records {
		inputs = append(inputs, stateOfficialCardInput(rec))
	}
	return s.createBatch(ctx, inputs, models.CardTypeStateOfficial)
}

// SyncStateBills inserts cards for state bill documents.
func (s *CardsService) SyncStateBills(ctx context.Context, records []docmodel.Record) error {
	inputs := make([]cards.Input, 0, len(records))
	for _, rec := range records {
		inputs = append(inputs, stateBillCardInput(rec))
	}
	return s.createBatch(ctx, inputs, models.CardTypeStateBill)
}

func (s *CardsService) createBatch(ctx context.Context, inputs []cards.Input, cardType models.CardType) error {
	if len(inputs) == 0 {
		return nil
	}
	repo := s.repomanager.Cards(s.db, s.log)
	if err := repo.CreateBatch(ctx, inputs, cardType, cards.BulkBestEffort); err != nil {
		return fmt.Errorf("sync %s cards: %w", cardType, err)
	}
	s.log.Info(ctx, "cards synced", "card_type", string(cardType), "count", len(inputs))
	return nil
}

// UpdateCards applies partial updates to existing cards.
func (s *CardsService) UpdateCards(ctx context.Context, patches []cards.Patch) error {
	return s.repomanager.Cards(s.db, s.log).UpdateByID(ctx, patches)
}

// MarkReviewed promotes unreviewed cards right-swiped by a reviewer.
func (s *CardsService) MarkReviewed(ctx context.Context) (int64, error) {
	return s.repomanager.Cards(s.db, s.log).MarkReviewed(ctx)
}

// SetTopicCreated flags that a discussion topic now exists for the card.
func (s *CardsService) SetTopicCreated(ctx context.Context, cardID string) error {
	return s.repomanager.Cards(s.db, s.log).SetTopicCreated(ctx, cardID)
}

// GetByID returns one card.
func (s *CardsService) GetByID(ctx context.Context, cardID string) (*models.Card, error) {
	return s.repomanager.Cards(s.db, s.log).GetByID(ctx, cardID)
}

// axisScores is the shape of the memberScores payload on official documents.
type axisScores struct {
	Social        *float64 `json:"social"`
	Economic      *float64 `json:"economic"`
	International *float64 `json:"international"`
}

// billCategory is the shape of the billCategory payload on bill documents.
// The score applies only to the named axis.
type billCategory struct {
	Category string   `json:"category"`
	Score    *float64 `json:"score"`
}

func recString(rec docmodel.Record, field string) string {
	s, _ := rec[field].(string)
	return s
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseJSONField decodes a JSON-string field into dest. Empty and malformed
// payloads are skipped.
func parseJSONField(rec docmodel.Record, field string, dest any) bool {
	raw := recString(rec, field)
	if raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}

func officialScores(rec docmodel.Record) axisScores {
	var scores axisScores
	parseJSONField(rec, "memberScores", &scores)
	return scores
}

func billScores(rec docmodel.Record, field string) axisScores {
	var cat billCategory
	if !parseJSONField(rec, field, &cat) {
		return axisScores{}
	}
	switch cat.Category {
	case "social":
		return axisScores{Social: cat.Score}
	case "economic":
		return axisScores{Economic: cat.Score}
	case "international", "foreign":
		return axisScores{International: cat.Score}
	}
	return axisScores{}
}

func fedOfficialCardInput(rec docmodel.Record) cards.Input {
	scores := officialScores(rec)

	name := strings.TrimSpace(recString(rec, "first_name") + " " + recString(rec, "last_name"))

	var congressData struct {
		Depiction struct {
			ImageURL string `json:"imageUrl"`
		} `json:"depiction"`
	}
	parseJSONField(rec, "congressData", &congressData)

	var proPublica struct {
		Title string `json:"title"`
	}
	parseJSONField(rec, "proPublicaData", &proPublica)

	return cards.Input{
		ID:                 recString(rec, docmodel.FieldID),
		ExternalID:         recString(rec, "propublica_id"),
		Title:              strPtr(name),
		ImageURL:           strPtr(congressData.Depiction.ImageURL),
		JobTitle:           strPtr(proPublica.Title),
		SocialScore:        scores.Social,
		EconomicScore:      scores.Economic,
		InternationalScore: scores.International,
	}
}

func fedBillCardInput(rec docmodel.Record) cards.Input {
	scores := billScores(rec, "billCategory")

	var summary struct {
		Summary string `json:"summary"`
	}
	parseJSONField(rec, "billSummary", &summary)

	id := recString(rec, docmodel.FieldID)
	title := fmt.Sprintf("Bill %s.%s[%sth]",
		recString(rec, "billType"), recString(rec, "billNumber"), recString(rec, "congress"))

	return cards.Input{
		ID:                 id,
		ExternalID:         id,
		Title:              strPtr(title),
		Description:        strPtr(summary.Summary),
		SocialScore:        scores.Social,
		EconomicScore:      scores.Economic,
		InternationalScore: scores.International,
	}
}

// chamberJobTitles maps an OpenStates chamber to the card job title.
var chamberJobTitles = map[string]string{
	"upper": "Senator",
	"lower": "Representative",
}

func stateOfficialCardInput(rec docmodel.Record) cards.Input {
	scores := officialScores(rec)

	return cards.Input{
		ID:                 recString(rec, docmodel.FieldID),
		ExternalID:         recString(rec, "refId"),
		State:              strPtr(recString(rec, "state")),
		Title:              strPtr(recString(rec, "name")),
		Description:        strPtr(recString(rec, "biography")),
		ImageURL:           strPtr(recString(rec, "image")),
		JobTitle:           strPtr(chamberJobTitles[recString(rec, "current_chamber")]),
		SocialScore:        scores.Social,
		EconomicScore:      scores.Economic,
		InternationalScore: scores.International,
	}
}

func stateBillCardInput(rec docmodel.Record) cards.Input {
	scores := billScores(rec, "billCategory")

	var summary struct {
		Summary string `json:"summary"`
	}
	parseJSONField(rec, "billSummary", &summary)

	id := recString(rec, docmodel.FieldID)
	return cards.Input{
		ID:                 id,
		ExternalID:         id,
		State:              strPtr(recString(rec, "state")),
		Title:              strPtr(recString(rec, "billNumber")),
		Description:        strPtr(summary.Summary),
		SocialScore:        scores.Social,
		EconomicScore:      scores.Economic,
		InternationalScore: scores.International,
	}
}
