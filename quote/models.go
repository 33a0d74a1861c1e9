package quote

import "time"

// Status represents the lifecycle of a quote worked up by ops review.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPublished  Status = "published"
	StatusSuperseded Status = "superseded"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
)

// Record mirrors the quotes table.
type Record struct {
	ID             string
	BriefID        string
	Status         Status
	Confidence     float64
	Price          int64
	MonthlyPayment int64
	TermMonths     int
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CreateParams struct {
	BriefID        string
	Confidence     float64
	Price          int64
	MonthlyPayment int64
	TermMonths     int
	Notes          *string
}
