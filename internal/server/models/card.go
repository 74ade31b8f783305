package models

// CardType is the kind of content a card fronts.
type CardType string

const (
	CardTypeFedOfficial   CardType = "FedOfficial"
	CardTypeFedBill       CardType = "FedBill"
	CardTypeStateOfficial CardType = "StateOfficial"
	CardTypeStateBill     CardType = "StateBill"
)

// cardTypeIDs are the seeded card_type table rows.
var cardTypeIDs = map[CardType]int{
	CardTypeFedOfficial:   1,
	CardTypeFedBill:       3,
	CardTypeStateOfficial: 4,
	CardTypeStateBill:     5,
}

// ID returns the card_type row id, 0 for an unknown type.
func (t CardType) ID() int { return cardTypeIDs[t] }

// IsOfficial reports whether the type fronts a person rather than a bill.
// Official cards carry topic and job_title columns.
func (t CardType) IsOfficial() bool {
	return t == CardTypeFedOfficial || t == CardTypeStateOfficial
}

// IsState reports whether the type is state-scoped and carries the state
// column.
func (t CardType) IsState() bool {
	return t == CardTypeStateOfficial || t == CardTypeStateBill
}

// Card is a row in the cards table. Score and text columns are pointers:
// NULL means the axis or attribute does not apply to this card.
type Card struct {
	ID                 string
	ExternalID         string
	CardTypeID         int
	State              *string
	SocialScore        *float64
	EconomicScore      *float64
	InternationalScore *float64
	Title              *string
	Description        *string
	ImageURL           *string
	Topic              *string
	JobTitle           *string
	Priority           int
	IsReviewed         bool
}

// CardPoll aggregates swipe counts for one card.
type CardPoll struct {
	CardID      string
	TotalSwipes int64
	LeftSwipes  int64
	RightSwipes int64
}
