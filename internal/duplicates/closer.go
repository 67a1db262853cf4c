// Package duplicates finds non-canonical issues matching a set of criteria
// and closes them, preserving a single canonical issue of record.
//
// Each candidate's comment-then-close sequence is isolated: one failure is
// logged and skipped without aborting the batch. Candidates are paced by a
// configurable policy (fixed delay by default) as simple rate-limit
// mitigation.
package duplicates

import (
	"context"
	"fmt"
	"log"

	"github.com/stackops/issueops/internal/finder"
	"github.com/stackops/issueops/internal/reconcile"
	"github.com/stackops/issueops/internal/tracker"
)

// Config controls a Closer.
type Config struct {
	// Pacer paces the per-candidate loop. Nil means a fixed DefaultDelay.
	Pacer Pacer
}

// DefaultConfig returns the default closer configuration: fixed 500ms pauses
// between candidates.
func DefaultConfig() Config {
	return Config{Pacer: FixedPacer{Interval: DefaultDelay}}
}

// Closer closes duplicate issues.
type Closer struct {
	store    tracker.SearchableIssueStore
	finder   *finder.Finder
	notifier *reconcile.Notifier
	pacer    Pacer
	logger   *log.Logger
}

// NewCloser creates a Closer. A nil logger means log.Default().
func NewCloser(store tracker.SearchableIssueStore, cfg Config, logger *log.Logger) (*Closer, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	f, err := finder.New(store, logger)
	if err != nil {
		return nil, err
	}
	n, err := reconcile.NewNotifier(store, logger)
	if err != nil {
		return nil, err
	}
	pacer := cfg.Pacer
	if pacer == nil {
		pacer = FixedPacer{Interval: DefaultDelay}
	}
	return &Closer{store: store, finder: f, notifier: n, pacer: pacer, logger: logger}, nil
}

// CloseDuplicates finds every issue matching criteria, excludes
// keepIssueNumber (the canonical issue), and for each remaining candidate
// posts a comment referencing the canonical issue and the reason, then closes
// it. Per-candidate failures are logged and skipped; the batch continues.
//
// The search is fail-open, so a search outage closes nothing. Returns the
// numbers successfully closed. The error is non-nil only when pacing is
// interrupted (context cancellation), in which case the returned slice covers
// the candidates processed so far.
func (c *Closer) CloseDuplicates(ctx context.Context, criteria tracker.SearchCriteria, keepIssueNumber int, reason string) ([]int, error) {
	candidates := c.finder.Find(ctx, criteria).IssuesOrEmpty()

	var targets []tracker.Issue
	for _, issue := range candidates {
		if issue.Number == keepIssueNumber {
			continue
		}
		targets = append(targets, issue)
	}
	c.logger.Printf("[CLOSE] %d duplicate candidate(s) for canonical issue #%d", len(targets), keepIssueNumber)

	var closed []int
	for i, issue := range targets {
		if i > 0 {
			if err := c.pacer.Pause(ctx); err != nil {
				return closed, fmt.Errorf("pacing interrupted: %w", err)
			}
		}
		if err := c.closeOne(ctx, issue, keepIssueNumber, reason); err != nil {
			c.logger.Printf("[CLOSE] failed to close issue #%d: %v (skipping)", issue.Number, err)
			continue
		}
		c.logger.Printf("[CLOSE] closed issue #%d as duplicate of #%d", issue.Number, keepIssueNumber)
		closed = append(closed, issue.Number)
	}
	return closed, nil
}

func (c *Closer) closeOne(ctx context.Context, issue tracker.Issue, keepIssueNumber int, reason string) error {
	body := fmt.Sprintf("Closing as a duplicate of #%d.\n\n**Reason:** %s", keepIssueNumber, reason)
	if err := c.notifier.Comment(ctx, issue.Number, body); err != nil {
		return err
	}
	closedState := tracker.IssueStateClosed
	if _, err := c.store.Update(ctx, issue.Number, tracker.IssueUpdate{State: &closedState}); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
