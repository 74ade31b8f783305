package models

import "time"

// Action is what the user did with a card.
type Action string

const (
	ActionLeft  Action = "left"
	ActionRight Action = "right"
	ActionWatch Action = "watch"
)

// Deduplicated reports whether the action keeps at most one active row per
// (user, card). Watch actions append history instead.
func (a Action) Deduplicated() bool { return a == ActionLeft || a == ActionRight }

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return a == ActionLeft || a == ActionRight || a == ActionWatch
}

// Swipe is a row in the user_swipes table.
type Swipe struct {
	UserID    string
	CardID    string
	Action    Action
	Timestamp time.Time
}

// SwipeDetail is a swipe joined with its card, as returned to clients.
// Scores are +50-shifted into the 0..100 range; nil means the card has no
// score on that axis.
type SwipeDetail struct {
	Action             Action
	Timestamp          time.Time
	CardType           string
	CardID             string
	ExternalID         string
	SocialScore        *float64
	EconomicScore      *float64
	InternationalScore *float64
	Title              *string
	Description        *string
}

// FeedCard is one entry of a user's feed.
type FeedCard struct {
	ID         string
	ExternalID string
	State      *string
	CardType   string
}
