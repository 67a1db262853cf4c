// Package trackertest provides an in-memory SearchableIssueStore for unit
// tests. It reproduces the store-side search semantics (state, label
// containment, author, most-recently-updated ordering, result cap) without
// network calls, and records every write so tests can assert exact call
// counts.
package trackertest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stackops/issueops/internal/tracker"
)

// FakeStore is an in-memory issue store. The zero value is not usable; use
// NewFakeStore.
type FakeStore struct {
	mu     sync.Mutex
	issues map[int]*tracker.Issue
	next   int
	clock  time.Time

	// Comments records posted comments by issue number.
	Comments map[int][]string

	// AssigneeUpdates records every assignee list passed to Update, by issue
	// number, so tests can assert the empty-assignees-omitted rule.
	AssigneeUpdates map[int][][]string

	// Call counters for asserting idempotence properties.
	SearchCalls  int
	CreateCalls  int
	UpdateCalls  int
	CommentCalls int

	// Error injection. SearchErr fails every search; the per-issue maps fail
	// only the targeted issue, which is how batch-isolation tests provoke a
	// mid-batch failure.
	SearchErr     error
	CreateErr     error
	UpdateErrFor  map[int]error
	CommentErrFor map[int]error
}

// Compile-time check that FakeStore implements SearchableIssueStore.
var _ tracker.SearchableIssueStore = (*FakeStore)(nil)

// NewFakeStore returns an empty store with a deterministic clock.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		issues:          make(map[int]*tracker.Issue),
		next:            1,
		clock:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Comments:        make(map[int][]string),
		AssigneeUpdates: make(map[int][][]string),
		UpdateErrFor:    make(map[int]error),
		CommentErrFor:   make(map[int]error),
	}
}

// Seed inserts an issue directly, bypassing call counters. Number must be
// unique. The issue's UpdatedAt is preserved if set; otherwise the fake's
// clock is advanced and used.
func (f *FakeStore) Seed(issue tracker.Issue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if issue.UpdatedAt.IsZero() {
		issue.UpdatedAt = f.tick()
	}
	if issue.State == "" {
		issue.State = tracker.IssueStateOpen
	}
	cp := issue
	f.issues[issue.Number] = &cp
	if issue.Number >= f.next {
		f.next = issue.Number + 1
	}
}

// Get returns a copy of the stored issue, for assertions.
func (f *FakeStore) Get(number int) (tracker.Issue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[number]
	if !ok {
		return tracker.Issue{}, false
	}
	return *issue, true
}

// tick advances the fake clock by one second so successive writes have
// distinct, ordered UpdatedAt values. Callers must hold mu.
func (f *FakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// Search filters by state, label containment, and author, sorts by
// most-recently-updated first, and caps at limit. Title patterns are ignored
// here; the finder applies them client-side, same as production.
func (f *FakeStore) Search(_ context.Context, criteria tracker.SearchCriteria, limit int) ([]tracker.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SearchCalls++
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}

	var matches []tracker.Issue
	for _, issue := range f.issues {
		if criteria.State != tracker.IssueStateAll && criteria.State != "" && issue.State != criteria.State {
			continue
		}
		if !issue.HasAllLabels(criteria.Labels) {
			continue
		}
		if criteria.Author != "" && issue.Author != criteria.Author {
			continue
		}
		matches = append(matches, *issue)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Create stores a new open issue and assigns the next number.
func (f *FakeStore) Create(_ context.Context, draft tracker.IssueDraft) (tracker.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return tracker.Issue{}, f.CreateErr
	}

	issue := tracker.Issue{
		Number:    f.next,
		Title:     draft.Title,
		Body:      draft.Body,
		Labels:    append([]string(nil), draft.Labels...),
		State:     tracker.IssueStateOpen,
		UpdatedAt: f.tick(),
	}
	f.next++
	cp := issue
	f.issues[issue.Number] = &cp
	return issue, nil
}

// Update applies non-nil fields to an existing issue.
func (f *FakeStore) Update(_ context.Context, number int, update tracker.IssueUpdate) (tracker.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	if err := f.UpdateErrFor[number]; err != nil {
		return tracker.Issue{}, err
	}
	issue, ok := f.issues[number]
	if !ok {
		return tracker.Issue{}, fmt.Errorf("issue #%d not found", number)
	}

	if update.Title != nil {
		issue.Title = *update.Title
	}
	if update.Body != nil {
		issue.Body = *update.Body
	}
	if update.Labels != nil {
		issue.Labels = append([]string(nil), (*update.Labels)...)
	}
	if update.Assignees != nil {
		f.AssigneeUpdates[number] = append(f.AssigneeUpdates[number], append([]string(nil), (*update.Assignees)...))
	}
	if update.State != nil {
		issue.State = *update.State
	}
	issue.UpdatedAt = f.tick()
	return *issue, nil
}

// Comment records a comment on an existing issue.
func (f *FakeStore) Comment(_ context.Context, number int, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CommentCalls++
	if err := f.CommentErrFor[number]; err != nil {
		return err
	}
	if _, ok := f.issues[number]; !ok {
		return fmt.Errorf("issue #%d not found", number)
	}
	f.Comments[number] = append(f.Comments[number], body)
	return nil
}

// WriteCalls returns the total number of write API calls (create + update +
// comment), for idempotence assertions.
func (f *FakeStore) WriteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CreateCalls + f.UpdateCalls + f.CommentCalls
}
