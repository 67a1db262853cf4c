// Package tracker defines the issue data model and the store interface that
// the reconciliation components operate against. The production implementation
// talks to the GitHub Issues and Search APIs; tests use the in-memory fake in
// the trackertest subpackage.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// IssueState represents the lifecycle state of an issue, or the state filter
// applied to a search.
type IssueState string

const (
	// IssueStateOpen matches (or represents) open issues.
	IssueStateOpen IssueState = "open"
	// IssueStateClosed matches (or represents) closed issues.
	IssueStateClosed IssueState = "closed"
	// IssueStateAll matches issues in any state. Only meaningful as a search
	// filter; an issue itself is never in this state.
	IssueStateAll IssueState = "all"
)

// Issue is the tracker's view of a single issue. Identity is Number.
//
// Uniqueness of the canonical issue per (title pattern, label set) is a
// design intent, not a store-enforced constraint: it depends on the
// search-then-act sequence in the reconciliation engine being race-free,
// which it is not (see package reconcile).
type Issue struct {
	Number    int
	Title     string
	Body      string
	Labels    []string
	State     IssueState
	Author    string
	UpdatedAt time.Time
}

// IssueDraft is the desired content for an issue to be created or refreshed.
type IssueDraft struct {
	Title     string
	Body      string
	Labels    []string
	Assignees []string
}

// SearchCriteria selects candidate issues from the store.
//
// TitlePattern is applied client-side after the store query returns: when
// TitleIsRegex is false the pattern is treated as a literal string (escaped
// before compilation), otherwise it is compiled as-is. Matching is always
// case-insensitive. An empty pattern means no title filter.
type SearchCriteria struct {
	TitlePattern string
	TitleIsRegex bool
	Labels       []string
	State        IssueState
	Author       string
}

// IssueUpdate carries the fields to change on an existing issue. Nil fields
// are left untouched, mirroring the tracker API's partial-update semantics.
type IssueUpdate struct {
	Title     *string
	Body      *string
	Labels    *[]string
	Assignees *[]string
	State     *IssueState
}

// SearchableIssueStore is the remote tracker boundary. The store holds all
// state; there is no persisted local state anywhere in this module.
//
// Search returns candidates matching the criteria's repository scope, state,
// labels, and author, sorted by most-recently-updated first and capped at
// limit. Title filtering is NOT the store's job; callers filter client-side
// (see package finder). Search errors are returned to the caller, which
// decides whether to fail open.
type SearchableIssueStore interface {
	Search(ctx context.Context, criteria SearchCriteria, limit int) ([]Issue, error)
	Create(ctx context.Context, draft IssueDraft) (Issue, error)
	Update(ctx context.Context, number int, update IssueUpdate) (Issue, error)
	Comment(ctx context.Context, number int, body string) error
}

// RunContext identifies the repository being managed and the automation run
// performing the management. It is used to scope store queries and to build
// the provenance links stamped into issue bodies.
type RunContext struct {
	Owner     string
	Repo      string
	ServerURL string
	RunID     string
}

// Validate checks that the run context has the fields required to scope
// queries and build run links.
func (r RunContext) Validate() error {
	if r.Owner == "" || r.Repo == "" {
		return fmt.Errorf("run context requires owner and repo (got %q/%q)", r.Owner, r.Repo)
	}
	if r.ServerURL == "" {
		return fmt.Errorf("run context requires a server URL")
	}
	if r.RunID == "" {
		return fmt.Errorf("run context requires a run ID")
	}
	return nil
}

// RunURL returns the canonical link to the workflow run that produced this
// invocation.
func (r RunContext) RunURL() string {
	return fmt.Sprintf("%s/%s/%s/actions/runs/%s", r.ServerURL, r.Owner, r.Repo, r.RunID)
}

// SortedLabels returns a sorted copy of labels. Label sets are compared
// order-independently throughout this module.
func SortedLabels(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	sort.Strings(out)
	return out
}

// LabelsEqual reports whether two label sets contain the same labels,
// ignoring order.
func LabelsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := SortedLabels(a), SortedLabels(b)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// HasAllLabels reports whether the issue carries every label in want.
func (i Issue) HasAllLabels(want []string) bool {
	have := make(map[string]bool, len(i.Labels))
	for _, l := range i.Labels {
		have[l] = true
	}
	for _, l := range want {
		if !have[l] {
			return false
		}
	}
	return true
}
