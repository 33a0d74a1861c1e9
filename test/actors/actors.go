// Package actors holds the concurrent workloads for the concierge
// concurrency test. Each actor loops one domain operation against a shared
// brief until stopped, so the oracles can look for invariant violations under
// contention.
package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"dealbrief/brief"
	"dealbrief/prospect"
	"dealbrief/quote"
)

func pause(base, jitter int) {
	time.Sleep(time.Duration(base+rand.Intn(jitter)) * time.Millisecond)
}

func stopped(ctx context.Context, stop <-chan struct{}) (bool, error) {
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-stop:
		return true, nil
	default:
		return false, nil
	}
}

// Discoverer re-runs discovery for the same brief. Competing runs hit the
// (brief_id, dealer_key) constraint; counts may vary but rows must not
// duplicate.
func Discoverer(ctx context.Context, discovery *prospect.Discovery, briefID string, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		_, err := discovery.Discover(ctx, prospect.DiscoverParams{
			BriefID:    briefID,
			DriveHours: 2,
			Brands:     []string{"Toyota"},
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("discoverer: %w", err)
		}
		pause(10, 30)
	}
}

// QuoteSender re-dispatches quote requests. The contacted-skip makes repeats
// cheap; a prospect must never be selected again once contacted.
func QuoteSender(ctx context.Context, dispatcher *prospect.Dispatcher, briefID string, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		if _, err := dispatcher.SendQuoteRequests(ctx, briefID); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("quote sender: %w", err)
		}
		pause(20, 40)
	}
}

var allStatuses = []brief.Status{
	brief.StatusSourcing, brief.StatusOffers, brief.StatusNegotiation,
	brief.StatusContract, brief.StatusDone,
}

// StatusMover fires random transitions at the brief. Backward moves must be
// rejected, and the surviving status sequence must be forward-only.
func StatusMover(ctx context.Context, status *brief.StatusService, briefID, actorID string, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		next := allStatuses[rand.Intn(len(allStatuses))]
		_, err := status.Set(ctx, brief.TransitionParams{
			BriefID:    briefID,
			ActorID:    actorID,
			NextStatus: next,
		})
		if err != nil && !errors.Is(err, brief.ErrInvalidTransition) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("status mover: %w", err)
		}
		pause(15, 30)
	}
}

// QuotePublisher drafts and publishes quotes. Concurrent publishes must leave
// at most one published quote for the brief.
func QuotePublisher(ctx context.Context, quotes *quote.Service, briefID string, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		rec, err := quotes.Create(ctx, quote.CreateParams{
			BriefID:    briefID,
			Confidence: 0.5,
			Price:      int64(3_000_000 + rand.Intn(1_000_000)),
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("quote publisher create: %w", err)
		}
		if _, err := quotes.Publish(ctx, rec.ID); err != nil &&
			!errors.Is(err, quote.ErrBadStatus) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("quote publisher publish: %w", err)
		}
		pause(25, 50)
	}
}

// QuoteAccepter races to accept whatever is currently published. Only one
// acceptance per brief may ever win.
func QuoteAccepter(ctx context.Context, quotes *quote.Service, briefID string, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		records, err := quotes.List(ctx, briefID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("quote accepter list: %w", err)
		}
		for _, rec := range records {
			if rec.Status != quote.StatusPublished {
				continue
			}
			_, err := quotes.Accept(ctx, rec.ID)
			if err != nil &&
				!errors.Is(err, quote.ErrAcceptedExists) &&
				!errors.Is(err, quote.ErrBadStatus) &&
				!errors.Is(err, context.Canceled) {
				return fmt.Errorf("quote accepter: %w", err)
			}
			break
		}
		pause(30, 60)
	}
}
