package prospect

import (
	"strings"
	"time"
)

// Status tracks outreach progress on a dealer prospect.
type Status string

const (
	StatusPending   Status = "pending"
	StatusContacted Status = "contacted"
	StatusDeclined  Status = "declined"
)

// ValidStatus reports whether s is a defined prospect status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusContacted, StatusDeclined:
		return true
	default:
		return false
	}
}

// DealerProspect mirrors the dealer_prospects table. DealerKey is the
// normalized dealership identity; (BriefID, DealerKey) is unique so discovery
// upserts instead of duplicating.
type DealerProspect struct {
	ID        string
	BriefID   string
	DealerKey string
	Name      string
	Address   string
	City      string
	State     string
	Zip       string
	Email     *string
	Phone     *string
	Status    Status
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Candidate is a dealership returned by the external candidate finder.
type Candidate struct {
	Name    string
	Address string
	City    string
	State   string
	Zip     string
	Email   string
	Phone   string
}

// DealerQuery scopes one candidate-finder call.
type DealerQuery struct {
	Zip               string
	DriveHours        float64
	Brands            []string
	Limit             int
	AdditionalContext string
}

// DealerKey normalizes a candidate's identity so repeated discovery runs map
// the same dealership onto one prospect row.
func DealerKey(c Candidate) string {
	var b strings.Builder
	for _, r := range strings.ToLower(c.Name + "|" + c.City + "|" + c.State) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '|':
			b.WriteRune(r)
		}
	}
	return b.String()
}
