package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackops/issueops/internal/tracker"
	"github.com/stackops/issueops/internal/tracker/trackertest"
)

func TestNotifierComment(t *testing.T) {
	store := trackertest.NewFakeStore()
	store.Seed(tracker.Issue{Number: 3, Title: "t"})

	n, err := NewNotifier(store, quietLogger())
	require.NoError(t, err)

	require.NoError(t, n.Comment(context.Background(), 3, "status refreshed"))
	assert.Equal(t, []string{"status refreshed"}, store.Comments[3])
}

func TestNotifierCommentFailurePropagates(t *testing.T) {
	store := trackertest.NewFakeStore()
	store.Seed(tracker.Issue{Number: 3, Title: "t"})
	store.CommentErrFor[3] = errors.New("comment API down")

	n, err := NewNotifier(store, quietLogger())
	require.NoError(t, err)

	err = n.Comment(context.Background(), 3, "ignored")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.CommentErrFor[3])
}

func TestNewNotifierRequiresStore(t *testing.T) {
	_, err := NewNotifier(nil, nil)
	assert.Error(t, err)
}
