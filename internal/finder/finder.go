// Package finder locates candidate issues for the reconciliation components.
//
// The tracker exposes search-only lookup (no exact-key fetch), so finding "the
// canonical issue" means running a bounded search and filtering the results by
// title pattern client-side. Search failures follow an explicit fail-open
// policy: the default accessor degrades a failed search to an empty result
// set, which makes a transient search outage indistinguishable from "no
// existing issue" and therefore risks duplicate creation. Callers that cannot
// tolerate that risk opt into Strict().
package finder

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"github.com/stackops/issueops/internal/tracker"
)

// MaxResults caps every search. Results are sorted most-recently-updated
// first, so the cap keeps the newest candidates.
const MaxResults = 50

// Finder runs searches against the issue store.
type Finder struct {
	store  tracker.SearchableIssueStore
	logger *log.Logger
}

// New creates a Finder. A nil logger means log.Default().
func New(store tracker.SearchableIssueStore, logger *log.Logger) (*Finder, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Finder{store: store, logger: logger}, nil
}

// Result is the outcome of a search. It carries both the issues and any
// search error, forcing the caller to consciously choose between the
// fail-open default (IssuesOrEmpty) and fail-closed (Strict).
type Result struct {
	issues []tracker.Issue
	err    error
}

// IssuesOrEmpty returns the matched issues, degrading any search failure to
// an empty set. This is the fail-open default used by the reconciliation
// engine and the duplicate closer.
func (r Result) IssuesOrEmpty() []tracker.Issue {
	if r.err != nil {
		return nil
	}
	return r.issues
}

// Strict returns the matched issues or the search error. Callers that prefer
// aborting over risking a duplicate create use this.
func (r Result) Strict() ([]tracker.Issue, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.issues, nil
}

// Err exposes the underlying search error, if any, for logging.
func (r Result) Err() error {
	return r.err
}

// Find searches the store with the given criteria and applies the
// case-insensitive title filter client-side. A search failure is logged here
// and captured in the Result; it is not propagated as a hard error.
func (f *Finder) Find(ctx context.Context, criteria tracker.SearchCriteria) Result {
	matcher, err := compileTitlePattern(criteria)
	if err != nil {
		f.logger.Printf("[SEARCH] invalid title pattern %q: %v (degrading to empty result set)", criteria.TitlePattern, err)
		return Result{err: err}
	}

	issues, err := f.store.Search(ctx, criteria, MaxResults)
	if err != nil {
		f.logger.Printf("[SEARCH] search failed: %v (degrading to empty result set)", err)
		return Result{err: err}
	}

	if matcher == nil {
		f.logger.Printf("[SEARCH] %d candidate(s) for labels %v", len(issues), criteria.Labels)
		return Result{issues: issues}
	}

	var filtered []tracker.Issue
	for _, issue := range issues {
		if matcher.MatchString(issue.Title) {
			filtered = append(filtered, issue)
		}
	}
	f.logger.Printf("[SEARCH] %d of %d candidate(s) match title pattern %q", len(filtered), len(issues), criteria.TitlePattern)
	return Result{issues: filtered}
}

// compileTitlePattern builds the client-side title matcher. Literal patterns
// are escaped; regex patterns are compiled as given. Matching is always
// case-insensitive. Returns nil when no title filter applies.
func compileTitlePattern(criteria tracker.SearchCriteria) (*regexp.Regexp, error) {
	if criteria.TitlePattern == "" {
		return nil, nil
	}
	pattern := criteria.TitlePattern
	if !criteria.TitleIsRegex {
		pattern = regexp.QuoteMeta(pattern)
	}
	return regexp.Compile("(?i)" + pattern)
}
