package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGitHubStore(t *testing.T, handler http.Handler) *GitHubStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewGitHubStoreWithHTTPClient(server.Client(), server.URL, RunContext{
		Owner:     "acme",
		Repo:      "platform",
		ServerURL: "https://github.com",
		RunID:     "12345",
	})
	require.NoError(t, err)
	return store
}

func TestGitHubStoreSearch(t *testing.T) {
	var gotQuery, gotSort, gotOrder string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/search/issues", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = q.Get("q")
		gotSort = q.Get("sort")
		gotOrder = q.Get("order")
		fmt.Fprint(w, `{
			"total_count": 2,
			"incomplete_results": false,
			"items": [
				{
					"number": 7,
					"title": "🚨 Deployment Failure: dev",
					"body": "details",
					"state": "open",
					"user": {"login": "ci-bot"},
					"labels": [{"name": "deployment-failure"}, {"name": "infrastructure"}],
					"updated_at": "2024-03-15T10:30:00Z"
				},
				{
					"number": 8,
					"title": "some pull request",
					"state": "open",
					"pull_request": {"url": "https://example.test/pr/8"}
				}
			]
		}`)
	})
	store := testGitHubStore(t, mux)

	issues, err := store.Search(context.Background(), SearchCriteria{
		State:  IssueStateOpen,
		Labels: []string{"deployment-failure"},
	}, 50)
	require.NoError(t, err)

	assert.Equal(t, `repo:acme/platform is:issue state:open label:"deployment-failure"`, gotQuery)
	assert.Equal(t, "updated", gotSort)
	assert.Equal(t, "desc", gotOrder)

	// Pull requests in the search results are dropped.
	require.Len(t, issues, 1)
	assert.Equal(t, 7, issues[0].Number)
	assert.Equal(t, "ci-bot", issues[0].Author)
	assert.Equal(t, []string{"deployment-failure", "infrastructure"}, issues[0].Labels)
	assert.Equal(t, IssueStateOpen, issues[0].State)
	assert.False(t, issues[0].UpdatedAt.IsZero())
}

func TestGitHubStoreCreate(t *testing.T) {
	var gotBody map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/acme/platform/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number": 42, "title": "t", "body": "b", "state": "open"}`)
	})
	store := testGitHubStore(t, mux)

	issue, err := store.Create(context.Background(), IssueDraft{
		Title:  "t",
		Body:   "b",
		Labels: []string{"l"},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, issue.Number)

	assert.Equal(t, "t", gotBody["title"])
	assert.Equal(t, "b", gotBody["body"])
	_, hasAssignees := gotBody["assignees"]
	assert.False(t, hasAssignees, "empty assignees must not be sent")
}

func TestGitHubStoreUpdateAndComment(t *testing.T) {
	var editBody map[string]interface{}
	var commentBody map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/acme/platform/issues/7", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&editBody))
		fmt.Fprint(w, `{"number": 7, "title": "t", "state": "closed"}`)
	})
	mux.HandleFunc("/api/v3/repos/acme/platform/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&commentBody))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 1}`)
	})
	store := testGitHubStore(t, mux)
	ctx := context.Background()

	closed := IssueStateClosed
	issue, err := store.Update(ctx, 7, IssueUpdate{State: &closed})
	require.NoError(t, err)
	assert.Equal(t, IssueStateClosed, issue.State)
	assert.Equal(t, "closed", editBody["state"])
	_, hasTitle := editBody["title"]
	assert.False(t, hasTitle, "nil fields must not be sent")

	require.NoError(t, store.Comment(ctx, 7, "closing as duplicate"))
	assert.Equal(t, "closing as duplicate", commentBody["body"])
}

func TestGitHubStoreSearchErrorPropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/search/issues", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	store := testGitHubStore(t, mux)

	_, err := store.Search(context.Background(), SearchCriteria{State: IssueStateOpen}, 50)
	assert.Error(t, err)
}
