package brief

import "time"

// Status tracks a brief through the concierge lifecycle. Transitions are
// forward-only; see statusRank.
type Status string

const (
	StatusSourcing    Status = "sourcing"
	StatusOffers      Status = "offers"
	StatusNegotiation Status = "negotiation"
	StatusContract    Status = "contract"
	StatusDone        Status = "done"
)

var statusRank = map[Status]int{
	StatusSourcing:    0,
	StatusOffers:      1,
	StatusNegotiation: 2,
	StatusContract:    3,
	StatusDone:        4,
}

// ValidStatus reports whether s is one of the defined lifecycle statuses.
func ValidStatus(s Status) bool {
	_, ok := statusRank[s]
	return ok
}

// ValidTransition reports whether moving from -> to is allowed. Equal and
// forward moves are accepted, backward moves are not.
func ValidTransition(from, to Status) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr >= fr
}

// Brief is the domain representation of a buyer's car search request.
// It mirrors the briefs table and carries no JSON annotations so it can be
// reused by different presentation layers.
type Brief struct {
	ID                 string
	BuyerUserID        string
	Status             Status
	Zip                string
	PaymentType        string
	BudgetCeiling      int64
	Makes              []string
	Models             []string
	Trims              []string
	Colors             []string
	MustHaves          []string
	TimelinePreference string
	DownPayment        int64
	MonthlyBudget      int64
	TermMonths         int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TimelineEvent captures an immutable lifecycle milestone for a brief.
type TimelineEvent struct {
	ID        int64
	BriefID   string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Timeline event types written by this module.
const (
	EventBriefCreated        = "brief_created"
	EventStatusChanged       = "status_changed"
	EventDiscoveryFailed     = "discovery_failed"
	EventAutomationCompleted = "automation_completed"
	EventQuotePublished      = "quote_published"
	EventQuoteAccepted       = "quote_accepted"
)

// Filters narrows brief listings.
type Filters struct {
	BuyerUserID string
	Status      Status
	Zip         string
	Page        int
	PageSize    int
}
