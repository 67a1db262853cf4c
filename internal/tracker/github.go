package tracker

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/go-github/v72/github"
)

// GitHubStore implements SearchableIssueStore against the GitHub Issues and
// Search APIs using the go-github library.
type GitHubStore struct {
	client *github.Client
	run    RunContext
	logger *log.Logger
}

// Compile-time check that GitHubStore implements SearchableIssueStore.
var _ SearchableIssueStore = (*GitHubStore)(nil)

// NewGitHubStore creates a store scoped to the repository in run, using the
// provided OAuth token. An empty token creates an unauthenticated client
// (limited to 60 req/hour), which is only useful for local experimentation.
func NewGitHubStore(token string, run RunContext, logger *log.Logger) (*GitHubStore, error) {
	if err := run.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run context: %w", err)
	}
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubStore{client: client, run: run, logger: orDefault(logger)}, nil
}

// NewGitHubStoreWithHTTPClient creates a store backed by a custom HTTP client
// and base URL. This is primarily used for testing with httptest servers.
func NewGitHubStoreWithHTTPClient(httpClient *http.Client, baseURL string, run RunContext) (*GitHubStore, error) {
	if err := run.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run context: %w", err)
	}
	client := github.NewClient(httpClient)
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
	}
	return &GitHubStore{client: client, run: run, logger: log.Default()}, nil
}

func orDefault(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.Default()
	}
	return logger
}

// buildSearchQuery renders criteria into GitHub search syntax: repository
// scope, issue type, state, quoted label terms, and optional author. The
// title pattern is deliberately excluded; it is filtered client-side.
func buildSearchQuery(run RunContext, criteria SearchCriteria) string {
	parts := []string{
		fmt.Sprintf("repo:%s/%s", run.Owner, run.Repo),
		"is:issue",
	}
	switch criteria.State {
	case IssueStateOpen:
		parts = append(parts, "state:open")
	case IssueStateClosed:
		parts = append(parts, "state:closed")
	case IssueStateAll, "":
		// No state term matches both.
	}
	for _, label := range criteria.Labels {
		parts = append(parts, fmt.Sprintf("label:%q", label))
	}
	if criteria.Author != "" {
		parts = append(parts, "author:"+criteria.Author)
	}
	return strings.Join(parts, " ")
}

// Search executes a bounded issue search sorted by most-recently-updated
// first. Rate limiting is logged distinctly so operators can tell a throttled
// run from a hard failure, but both surface as errors; the fail-open decision
// belongs to the caller.
func (s *GitHubStore) Search(ctx context.Context, criteria SearchCriteria, limit int) ([]Issue, error) {
	query := buildSearchQuery(s.run, criteria)
	opts := &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: limit},
	}
	result, resp, err := s.client.Search.Issues(ctx, query, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			if _, ok := err.(*github.RateLimitError); ok {
				s.logger.Printf("[SEARCH] GitHub search rate limited for query %q", query)
				return nil, fmt.Errorf("rate limited: %w", err)
			}
			if _, ok := err.(*github.AbuseRateLimitError); ok {
				s.logger.Printf("[SEARCH] GitHub search abuse rate limited for query %q", query)
				return nil, fmt.Errorf("abuse rate limited: %w", err)
			}
		}
		return nil, fmt.Errorf("search failed for query %q: %w", query, err)
	}

	issues := make([]Issue, 0, len(result.Issues))
	for _, gi := range result.Issues {
		if gi.IsPullRequest() {
			continue
		}
		issues = append(issues, fromGitHubIssue(gi))
	}
	return issues, nil
}

// Create opens a new issue with the draft's content.
func (s *GitHubStore) Create(ctx context.Context, draft IssueDraft) (Issue, error) {
	req := &github.IssueRequest{
		Title:  github.Ptr(draft.Title),
		Body:   github.Ptr(draft.Body),
		Labels: &draft.Labels,
	}
	if len(draft.Assignees) > 0 {
		req.Assignees = &draft.Assignees
	}
	created, _, err := s.client.Issues.Create(ctx, s.run.Owner, s.run.Repo, req)
	if err != nil {
		return Issue{}, fmt.Errorf("create issue %q: %w", draft.Title, err)
	}
	return fromGitHubIssue(created), nil
}

// Update applies a partial edit to an existing issue.
func (s *GitHubStore) Update(ctx context.Context, number int, update IssueUpdate) (Issue, error) {
	req := &github.IssueRequest{
		Title:     update.Title,
		Body:      update.Body,
		Labels:    update.Labels,
		Assignees: update.Assignees,
	}
	if update.State != nil {
		req.State = github.Ptr(string(*update.State))
	}
	edited, _, err := s.client.Issues.Edit(ctx, s.run.Owner, s.run.Repo, number, req)
	if err != nil {
		return Issue{}, fmt.Errorf("update issue #%d: %w", number, err)
	}
	return fromGitHubIssue(edited), nil
}

// Comment posts a comment on an existing issue.
func (s *GitHubStore) Comment(ctx context.Context, number int, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	_, _, err := s.client.Issues.CreateComment(ctx, s.run.Owner, s.run.Repo, number, comment)
	if err != nil {
		return fmt.Errorf("comment on issue #%d: %w", number, err)
	}
	return nil
}

func fromGitHubIssue(gi *github.Issue) Issue {
	issue := Issue{
		Number: gi.GetNumber(),
		Title:  gi.GetTitle(),
		Body:   gi.GetBody(),
		State:  IssueState(gi.GetState()),
		Author: gi.GetUser().GetLogin(),
	}
	if ts := gi.GetUpdatedAt(); !ts.IsZero() {
		issue.UpdatedAt = ts.Time
	}
	for _, l := range gi.Labels {
		issue.Labels = append(issue.Labels, l.GetName())
	}
	return issue
}
