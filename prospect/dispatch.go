package prospect

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"dealbrief/brief"
)

// EmailSender delivers a quote-request email and returns a provider message reference.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) (string, error)
}

// SMSSender delivers a quote-request text and returns a provider message reference.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

type SentRecord struct {
	ProspectID string
	Dealer     string
	Channel    string // "email" or "sms"
	To         string
	Subject    string
	MessageRef string
}

type FailedRecord struct {
	ProspectID string
	Dealer     string
	Reason     string
}

type DispatchResult struct {
	Sent   []SentRecord
	Failed []FailedRecord
}

// Dispatcher fans quote requests out to a brief's pending prospects. Each
// prospect is attempted independently; one failure never aborts the siblings,
// and a prospect only leaves pending once its send succeeded. Re-invoking is
// idempotent per prospect because contacted rows are no longer selected.
type Dispatcher struct {
	repo   Repository
	briefs BriefReader
	email  EmailSender
	sms    SMSSender
	limit  int
}

const defaultSendConcurrency = 4

func NewDispatcher(repo Repository, briefs BriefReader, email EmailSender, sms SMSSender) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		briefs: briefs,
		email:  email,
		sms:    sms,
		limit:  defaultSendConcurrency,
	}
}

// WithConcurrency bounds the send fan-out.
func (d *Dispatcher) WithConcurrency(n int) *Dispatcher {
	if n > 0 {
		d.limit = n
	}
	return d
}

// SendQuoteRequests composes and sends one quote request per pending prospect
// of the brief. No send is retried within a single call.
func (d *Dispatcher) SendQuoteRequests(ctx context.Context, briefID string) (DispatchResult, error) {
	b, err := d.briefs.GetByID(ctx, briefID)
	if err != nil {
		return DispatchResult{}, err
	}

	pending, err := d.repo.ListPending(ctx, briefID)
	if err != nil {
		return DispatchResult{}, err
	}

	type slot struct {
		sent   *SentRecord
		failed *FailedRecord
	}
	slots := make([]slot, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)
	for i, p := range pending {
		g.Go(func() error {
			rec, reason := d.sendOne(gctx, b, p)
			if reason != "" {
				slots[i].failed = &FailedRecord{ProspectID: p.ID, Dealer: p.Name, Reason: reason}
				return nil
			}
			slots[i].sent = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DispatchResult{}, fmt.Errorf("prospect: dispatch: %w", err)
	}

	result := DispatchResult{Sent: []SentRecord{}, Failed: []FailedRecord{}}
	for _, s := range slots {
		switch {
		case s.sent != nil:
			result.Sent = append(result.Sent, *s.sent)
		case s.failed != nil:
			result.Failed = append(result.Failed, *s.failed)
		}
	}
	return result, nil
}

// sendOne attempts a single prospect over its preferred channel. The returned
// reason is empty on success.
func (d *Dispatcher) sendOne(ctx context.Context, b brief.Brief, p DealerProspect) (*SentRecord, string) {
	subject, body := ComposeQuoteRequest(b, p)

	var (
		channel string
		to      string
		ref     string
		err     error
	)
	switch {
	case p.Email != nil:
		if d.email == nil {
			return nil, "email sender not configured"
		}
		channel, to = "email", *p.Email
		ref, err = d.email.SendEmail(ctx, EmailMessage{To: to, Subject: subject, Body: body})
	case p.Phone != nil:
		if d.sms == nil {
			return nil, "sms sender not configured"
		}
		channel, to = "sms", *p.Phone
		ref, err = d.sms.SendSMS(ctx, to, ComposeQuoteRequestSMS(b, p))
	default:
		return nil, "no contact channel"
	}
	if err != nil {
		return nil, err.Error()
	}

	// The message is already out; a failure to record it leaves the prospect
	// pending and a retry may send again (at-least-once).
	if err := d.repo.MarkContacted(ctx, p.ID); err != nil {
		return nil, fmt.Sprintf("record contact: %v", err)
	}

	return &SentRecord{
		ProspectID: p.ID,
		Dealer:     p.Name,
		Channel:    channel,
		To:         to,
		Subject:    subject,
		MessageRef: ref,
	}, ""
}

// ComposeQuoteRequest renders the email subject and body for one dealership
// from the brief's vehicle and budget criteria.
func ComposeQuoteRequest(b brief.Brief, p DealerProspect) (subject, body string) {
	vehicle := vehicleSummary(b)
	subject = fmt.Sprintf("Quote request: %s", vehicle)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s,\n\n", p.Name)
	fmt.Fprintf(&sb, "A buyer near %s is looking for a %s and would like your best out-the-door quote.\n\n", b.Zip, vehicle)
	fmt.Fprintf(&sb, "Budget ceiling: %s (%s)\n", formatMoney(b.BudgetCeiling), b.PaymentType)
	if len(b.Trims) > 0 {
		fmt.Fprintf(&sb, "Preferred trims: %s\n", strings.Join(b.Trims, ", "))
	}
	if len(b.Colors) > 0 {
		fmt.Fprintf(&sb, "Preferred colors: %s\n", strings.Join(b.Colors, ", "))
	}
	if len(b.MustHaves) > 0 {
		fmt.Fprintf(&sb, "Must-have features: %s\n", strings.Join(b.MustHaves, ", "))
	}
	if b.TimelinePreference != "" {
		fmt.Fprintf(&sb, "Purchase timeline: %s\n", b.TimelinePreference)
	}
	sb.WriteString("\nPlease reply with pricing, availability, and any applicable fees.\n")
	return subject, sb.String()
}

// ComposeQuoteRequestSMS renders the short-form variant for the SMS channel.
func ComposeQuoteRequestSMS(b brief.Brief, p DealerProspect) string {
	return fmt.Sprintf("Hi %s - buyer near %s seeks a %s, budget %s (%s). Can you share your best quote?",
		p.Name, b.Zip, vehicleSummary(b), formatMoney(b.BudgetCeiling), b.PaymentType)
}

func vehicleSummary(b brief.Brief) string {
	parts := make([]string, 0, len(b.Makes))
	for i, mk := range b.Makes {
		if i < len(b.Models) && b.Models[i] != "" {
			parts = append(parts, mk+" "+b.Models[i])
		} else {
			parts = append(parts, mk)
		}
	}
	if len(parts) == 0 {
		return "vehicle"
	}
	return strings.Join(parts, " or ")
}

func formatMoney(cents int64) string {
	dollars := cents / 100
	rem := cents % 100
	if rem == 0 {
		return fmt.Sprintf("$%d", dollars)
	}
	return fmt.Sprintf("$%d.%02d", dollars, rem)
}
