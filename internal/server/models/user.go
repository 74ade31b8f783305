package models

// User is a row in the users table. The primary identity is the external
// auth provider's subject id (cognito_user_id).
type User struct {
	CognitoUserID string
	Username      string
	StreetAddress string
	State         string
	City          string
	Zipcode       string
	Gender        string
	Age           int
	Lat           float64
	Lng           float64
	GooglePlaceID string
	Name          string
	DateOfBirth   string
	Avatar        string

	InterestedInSocial               bool
	InterestedInEconomic             bool
	InterestedInInternational        bool
	InterestedInLocalCandidates      bool
	InterestedInStateCandidates      bool
	InterestedInFederalCandidates    bool
	InterestedInMunicipalLegislation bool
	InterestedInStateLegislation     bool
	InterestedInFederalLegislation   bool

	HasSeenTutorial bool
	IsReviewer      bool
}

// UserProfile is a User plus the per-axis average scores derived from their
// swipe history. Averages are shifted into the 0..100 range (+50) and
// default to 50 when the user has no scoring swipes.
type UserProfile struct {
	User
	AverageSocialScore        float64
	AverageEconomicScore      float64
	AverageInternationalScore float64
}
