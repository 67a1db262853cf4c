package duplicates

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackops/issueops/internal/tracker"
	"github.com/stackops/issueops/internal/tracker/trackertest"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// countingPacer records how many pauses the closer inserts.
type countingPacer struct {
	pauses int
}

func (p *countingPacer) Pause(ctx context.Context) error {
	p.pauses++
	return ctx.Err()
}

func newTestCloser(t *testing.T, store tracker.SearchableIssueStore, pacer Pacer) *Closer {
	t.Helper()
	closer, err := NewCloser(store, Config{Pacer: pacer}, quietLogger())
	require.NoError(t, err)
	return closer
}

func seedDuplicates(store *trackertest.FakeStore, numbers ...int) {
	for _, n := range numbers {
		store.Seed(tracker.Issue{
			Number: n,
			Title:  "🚨 Deployment Failure: dev",
			Labels: []string{"deployment-failure"},
		})
	}
}

var sweepCriteria = tracker.SearchCriteria{
	Labels: []string{"deployment-failure"},
	State:  tracker.IssueStateOpen,
}

func TestCloseDuplicatesKeepsCanonicalIssue(t *testing.T) {
	store := trackertest.NewFakeStore()
	seedDuplicates(store, 1, 2, 3)
	closer := newTestCloser(t, store, &countingPacer{})

	closed, err := closer.CloseDuplicates(context.Background(), sweepCriteria, 2, "duplicate report")
	require.NoError(t, err)

	assert.NotContains(t, closed, 2, "the canonical issue must never be closed")
	assert.ElementsMatch(t, []int{1, 3}, closed)

	kept, ok := store.Get(2)
	require.True(t, ok)
	assert.Equal(t, tracker.IssueStateOpen, kept.State)
	for _, n := range []int{1, 3} {
		issue, ok := store.Get(n)
		require.True(t, ok)
		assert.Equal(t, tracker.IssueStateClosed, issue.State)
	}
}

func TestCloseDuplicatesCommentReferencesCanonicalAndReason(t *testing.T) {
	store := trackertest.NewFakeStore()
	seedDuplicates(store, 1, 2)
	closer := newTestCloser(t, store, &countingPacer{})

	_, err := closer.CloseDuplicates(context.Background(), sweepCriteria, 1, "superseded by the canonical issue")
	require.NoError(t, err)

	require.Len(t, store.Comments[2], 1)
	assert.Contains(t, store.Comments[2][0], "#1")
	assert.Contains(t, store.Comments[2][0], "superseded by the canonical issue")
}

func TestCloseDuplicatesIsolatesPerItemFailures(t *testing.T) {
	store := trackertest.NewFakeStore()
	seedDuplicates(store, 1, 2, 3, 4)
	// Candidate #2 fails on comment creation mid-batch.
	store.CommentErrFor[2] = errors.New("comment API down")
	closer := newTestCloser(t, store, &countingPacer{})

	closed, err := closer.CloseDuplicates(context.Background(), sweepCriteria, 4, "duplicate")
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{1, 3}, closed, "siblings of the failed candidate are still attempted")
	failed, ok := store.Get(2)
	require.True(t, ok)
	assert.Equal(t, tracker.IssueStateOpen, failed.State, "failed candidate stays open")
}

func TestCloseDuplicatesSkipsCloseWhenCommentFails(t *testing.T) {
	store := trackertest.NewFakeStore()
	seedDuplicates(store, 1, 2)
	store.CommentErrFor[2] = errors.New("comment API down")
	closer := newTestCloser(t, store, &countingPacer{})

	closed, err := closer.CloseDuplicates(context.Background(), sweepCriteria, 1, "duplicate")
	require.NoError(t, err)
	assert.Empty(t, closed)
	assert.Equal(t, 0, store.UpdateCalls, "no close without a successful comment")
}

func TestCloseDuplicatesPacesBetweenCandidates(t *testing.T) {
	store := trackertest.NewFakeStore()
	seedDuplicates(store, 1, 2, 3, 4)
	pacer := &countingPacer{}
	closer := newTestCloser(t, store, pacer)

	closed, err := closer.CloseDuplicates(context.Background(), sweepCriteria, 4, "duplicate")
	require.NoError(t, err)
	require.Len(t, closed, 3)
	assert.Equal(t, 2, pacer.pauses, "pauses go between candidates, not before the first")
}

func TestCloseDuplicatesSearchFailureClosesNothing(t *testing.T) {
	store := trackertest.NewFakeStore()
	seedDuplicates(store, 1, 2)
	store.SearchErr = errors.New("search API outage")
	closer := newTestCloser(t, store, &countingPacer{})

	closed, err := closer.CloseDuplicates(context.Background(), sweepCriteria, 1, "duplicate")
	require.NoError(t, err, "search failures are fail-open, not fatal")
	assert.Empty(t, closed)
	assert.Equal(t, 0, store.WriteCalls())
}

func TestCloseDuplicatesStopsWhenPacingInterrupted(t *testing.T) {
	store := trackertest.NewFakeStore()
	seedDuplicates(store, 1, 2, 3)

	ctx, cancel := context.WithCancel(context.Background())
	pacer := &cancelingPacer{cancel: cancel}
	closer := newTestCloser(t, store, pacer)

	closed, err := closer.CloseDuplicates(ctx, sweepCriteria, 3, "duplicate")
	require.Error(t, err)
	assert.Len(t, closed, 1, "candidates processed before cancellation are reported")
}

// cancelingPacer cancels the context on its first pause.
type cancelingPacer struct {
	cancel context.CancelFunc
}

func (p *cancelingPacer) Pause(ctx context.Context) error {
	p.cancel()
	return ctx.Err()
}

func TestNewCloserDefaults(t *testing.T) {
	closer, err := NewCloser(trackertest.NewFakeStore(), Config{}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, FixedPacer{Interval: DefaultDelay}, closer.pacer)

	_, err = NewCloser(nil, DefaultConfig(), nil)
	assert.Error(t, err)
}
