package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelsEqual(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want bool
	}{
		{name: "identical order", a: []string{"a", "b"}, b: []string{"a", "b"}, want: true},
		{name: "reversed order", a: []string{"a", "b"}, b: []string{"b", "a"}, want: true},
		{name: "different labels", a: []string{"a", "b"}, b: []string{"a", "c"}, want: false},
		{name: "different lengths", a: []string{"a"}, b: []string{"a", "b"}, want: false},
		{name: "both empty", a: nil, b: nil, want: true},
		{name: "empty vs non-empty", a: nil, b: []string{"a"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelsEqual(tt.a, tt.b))
		})
	}
}

func TestSortedLabelsDoesNotMutate(t *testing.T) {
	labels := []string{"c", "a", "b"}
	sorted := SortedLabels(labels)
	assert.Equal(t, []string{"a", "b", "c"}, sorted)
	assert.Equal(t, []string{"c", "a", "b"}, labels)
}

func TestHasAllLabels(t *testing.T) {
	issue := Issue{Labels: []string{"security", "critical", "automated"}}
	assert.True(t, issue.HasAllLabels([]string{"security", "critical"}))
	assert.True(t, issue.HasAllLabels(nil))
	assert.False(t, issue.HasAllLabels([]string{"security", "deployment-failure"}))
}

func TestRunURL(t *testing.T) {
	rc := RunContext{
		Owner:     "acme",
		Repo:      "platform",
		ServerURL: "https://github.com",
		RunID:     "12345",
	}
	assert.Equal(t, "https://github.com/acme/platform/actions/runs/12345", rc.RunURL())
}

func TestRunContextValidate(t *testing.T) {
	valid := RunContext{Owner: "acme", Repo: "platform", ServerURL: "https://github.com", RunID: "1"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*RunContext)
	}{
		{name: "missing owner", mutate: func(rc *RunContext) { rc.Owner = "" }},
		{name: "missing repo", mutate: func(rc *RunContext) { rc.Repo = "" }},
		{name: "missing server URL", mutate: func(rc *RunContext) { rc.ServerURL = "" }},
		{name: "missing run ID", mutate: func(rc *RunContext) { rc.RunID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := valid
			tt.mutate(&rc)
			assert.Error(t, rc.Validate())
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	run := RunContext{Owner: "acme", Repo: "platform", ServerURL: "https://github.com", RunID: "1"}

	tests := []struct {
		name     string
		criteria SearchCriteria
		want     string
	}{
		{
			name:     "open with labels",
			criteria: SearchCriteria{State: IssueStateOpen, Labels: []string{"security", "critical"}},
			want:     `repo:acme/platform is:issue state:open label:"security" label:"critical"`,
		},
		{
			name:     "closed",
			criteria: SearchCriteria{State: IssueStateClosed},
			want:     `repo:acme/platform is:issue state:closed`,
		},
		{
			name:     "all states omits state term",
			criteria: SearchCriteria{State: IssueStateAll},
			want:     `repo:acme/platform is:issue`,
		},
		{
			name:     "author",
			criteria: SearchCriteria{State: IssueStateOpen, Author: "ci-bot"},
			want:     `repo:acme/platform is:issue state:open author:ci-bot`,
		},
		{
			name:     "title pattern excluded from query",
			criteria: SearchCriteria{State: IssueStateOpen, TitlePattern: "Deployment Failure: dev"},
			want:     `repo:acme/platform is:issue state:open`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildSearchQuery(run, tt.criteria))
		})
	}
}
