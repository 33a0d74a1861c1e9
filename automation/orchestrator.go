// Package automation coordinates the per-brief concierge workflow: discover
// dealer prospects, dispatch quote requests, and record the run on the
// brief's timeline.
package automation

import (
	"context"
	"errors"
	"log"
	"time"

	"dealbrief/brief"
	"dealbrief/prospect"
)

// BriefReader loads the brief under automation.
type BriefReader interface {
	GetByID(ctx context.Context, id string) (brief.Brief, error)
}

// Discoverer finds and persists dealer prospects for a brief.
type Discoverer interface {
	Discover(ctx context.Context, params prospect.DiscoverParams) (prospect.DiscoverResult, error)
}

// Sender dispatches quote requests to a brief's pending prospects.
type Sender interface {
	SendQuoteRequests(ctx context.Context, briefID string) (prospect.DispatchResult, error)
}

// TimelineAppender records automation milestones.
type TimelineAppender interface {
	Append(ctx context.Context, briefID, eventType string, payload map[string]any) (brief.TimelineEvent, error)
}

type RunParams struct {
	BriefID           string
	DriveHours        float64 // optional override, defaults to DefaultDriveHours
	Limit             int     // optional override
	AdditionalContext string
}

type Report struct {
	BriefID    string
	Discovered int
	Created    int
	Updated    int
	Contacted  int
	Failed     int
}

const (
	DefaultDriveHours = 2.0
	defaultRunTimeout = 5 * time.Minute
)

// Orchestrator runs the brief automation pipeline. Each run is request-scoped
// and synchronous; concurrent runs for the same brief are not mutually
// exclusive here, the (brief_id, dealer_key) uniqueness constraint and the
// contacted-skip in dispatch keep retries safe.
type Orchestrator struct {
	briefs     BriefReader
	discovery  Discoverer
	dispatcher Sender
	timeline   TimelineAppender
	timeout    time.Duration
}

func NewOrchestrator(briefs BriefReader, discovery Discoverer, dispatcher Sender, timeline TimelineAppender) *Orchestrator {
	return &Orchestrator{
		briefs:     briefs,
		discovery:  discovery,
		dispatcher: dispatcher,
		timeline:   timeline,
		timeout:    defaultRunTimeout,
	}
}

// WithTimeout bounds a single run; external providers can be slow.
func (o *Orchestrator) WithTimeout(d time.Duration) *Orchestrator {
	if d > 0 {
		o.timeout = d
	}
	return o
}

// Run executes lookup -> discover -> dispatch -> record for one brief.
// Individual send failures are reported in the summary event, not as a run
// failure; a discovery failure aborts before any outreach and is itself
// recorded on the timeline.
func (o *Orchestrator) Run(ctx context.Context, params RunParams) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	b, err := o.briefs.GetByID(ctx, params.BriefID)
	if err != nil {
		return Report{}, err
	}

	driveHours := params.DriveHours
	if driveHours == 0 {
		driveHours = DefaultDriveHours
	}
	brands := b.Makes
	if len(brands) > prospect.MaxBrands {
		brands = brands[:prospect.MaxBrands]
	}

	disc, err := o.discovery.Discover(ctx, prospect.DiscoverParams{
		BriefID:           b.ID,
		DriveHours:        driveHours,
		Brands:            brands,
		Limit:             params.Limit,
		AdditionalContext: params.AdditionalContext,
	})
	if err != nil {
		if _, tlErr := o.timeline.Append(ctx, b.ID, brief.EventDiscoveryFailed, map[string]any{
			"error": err.Error(),
		}); tlErr != nil {
			log.Printf("automation: record discovery failure for brief %s: %v", b.ID, tlErr)
		}
		return Report{}, err
	}

	report := Report{
		BriefID:    b.ID,
		Discovered: len(disc.Prospects),
		Created:    disc.Created,
		Updated:    disc.Updated,
	}

	disp, dispErr := o.dispatcher.SendQuoteRequests(ctx, b.ID)
	report.Contacted = len(disp.Sent)
	report.Failed = len(disp.Failed)

	// The summary event is written even when every send failed.
	if _, tlErr := o.timeline.Append(ctx, b.ID, brief.EventAutomationCompleted, map[string]any{
		"discovered": report.Discovered,
		"created":    report.Created,
		"updated":    report.Updated,
		"contacted":  report.Contacted,
		"failed":     report.Failed,
	}); tlErr != nil {
		log.Printf("automation: record summary for brief %s: %v", b.ID, tlErr)
	}

	if dispErr != nil {
		return Report{}, dispErr
	}
	return report, nil
}

// IsNotFound reports whether err maps to the missing-brief signal callers
// translate into a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, brief.ErrNotFound)
}
