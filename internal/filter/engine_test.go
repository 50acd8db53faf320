package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []Rule
	}{
		{
			name: "single word",
			expr: "bitcoin",
			want: []Rule{{Kind: Include, Scope: ScopeAll, Value: "bitcoin"}},
		},
		{
			name: "words are separate includes",
			expr: "care  worker",
			want: []Rule{
				{Kind: Include, Scope: ScopeAll, Value: "care"},
				{Kind: Include, Scope: ScopeAll, Value: "worker"},
			},
		},
		{
			name: "quoted phrase",
			expr: `"care worker" visa`,
			want: []Rule{
				{Kind: Include, Scope: ScopeAll, Value: "care worker"},
				{Kind: Include, Scope: ScopeAll, Value: "visa"},
			},
		},
		{
			name: "exclude word",
			expr: "care -agency",
			want: []Rule{
				{Kind: Include, Scope: ScopeAll, Value: "care"},
				{Kind: Exclude, Scope: ScopeAll, Value: "agency"},
			},
		},
		{
			name: "regex terms",
			expr: "/k8s|kubernetes/ -/course.*training/",
			want: []Rule{
				{Kind: IncludeRe, Scope: ScopeAll, Value: "k8s|kubernetes"},
				{Kind: ExcludeRe, Scope: ScopeAll, Value: "course.*training"},
			},
		},
		{
			name: "title scope",
			expr: `title:"care worker" -title:senior`,
			want: []Rule{
				{Kind: Include, Scope: ScopeTitle, Value: "care worker"},
				{Kind: Exclude, Scope: ScopeTitle, Value: "senior"},
			},
		},
		{
			name: "empty expression",
			expr: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Parse(tt.expr)); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		item FeedItem
		expr string
		want bool
	}{
		{
			name: "no rules passes everything",
			item: FeedItem{Title: "anything", Description: "whatever"},
			expr: "",
			want: true,
		},
		{
			name: "include word matches",
			item: FeedItem{Title: "Kubernetes 1.32 released", Description: "New features"},
			expr: "kubernetes",
			want: true,
		},
		{
			name: "include word no match",
			item: FeedItem{Title: "Python update", Description: "New features"},
			expr: "kubernetes",
			want: false,
		},
		{
			name: "include is case insensitive",
			item: FeedItem{Title: "KUBERNETES release"},
			expr: "kubernetes",
			want: true,
		},
		{
			name: "all includes must match",
			item: FeedItem{Title: "Care worker wanted", Description: "No sponsorship"},
			expr: "care visa",
			want: false,
		},
		{
			name: "includes split across title and description",
			item: FeedItem{Title: "Care worker wanted", Description: "visa sponsorship"},
			expr: "care visa",
			want: true,
		},
		{
			name: "phrase must appear verbatim",
			item: FeedItem{Title: "Worker in care home"},
			expr: `"care worker"`,
			want: false,
		},
		{
			name: "exclude word blocks match",
			item: FeedItem{Title: "Care worker vacancy", Description: "via agency"},
			expr: "care -agency",
			want: false,
		},
		{
			name: "exclude word does not block non-match",
			item: FeedItem{Title: "Care worker vacancy", Description: "direct hire"},
			expr: "care -agency",
			want: true,
		},
		{
			name: "regex include matches",
			item: FeedItem{Title: "Helm chart v3.15"},
			expr: "/helm|docker/",
			want: true,
		},
		{
			name: "regex exclude blocks",
			item: FeedItem{Title: "Online course on K8s training"},
			expr: "k8s -/course.*training/",
			want: false,
		},
		{
			name: "invalid regex in rule never matches",
			item: FeedItem{Title: "anything"},
			expr: "/[invalid/",
			want: false,
		},
		{
			name: "unicode persian include",
			item: FeedItem{Title: "قیمت سوشی در تهران"},
			expr: "سوشی",
			want: true,
		},
		{
			name: "title scope ignores description",
			item: FeedItem{Title: "Release notes", Description: "Kubernetes update"},
			expr: "title:kubernetes",
			want: false,
		},
		{
			name: "title scoped exclude leaves description alone",
			item: FeedItem{Title: "Care worker", Description: "senior team"},
			expr: "care -title:senior",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.item, Parse(tt.expr))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "plain words", expr: "care worker", wantErr: false},
		{name: "valid alternation", expr: "/k8s|docker|helm/", wantErr: false},
		{name: "valid group", expr: `/release.*v\d+/`, wantErr: false},
		{name: "invalid unclosed bracket", expr: "/[invalid/", wantErr: true},
		{name: "invalid bad repetition", expr: "-/*bad/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.expr)
			gotErr := err != nil
			if diff := cmp.Diff(tt.wantErr, gotErr); diff != "" {
				t.Errorf("Validate() error mismatch (-want +got):\n%s\nerr: %v", diff, err)
			}
		})
	}
}

func TestQueryAndResidual(t *testing.T) {
	tests := []struct {
		name         string
		expr         string
		wantQuery    string
		wantResidual []Rule
	}{
		{
			name:      "plain words",
			expr:      "bitcoin etf",
			wantQuery: "bitcoin etf",
		},
		{
			name:      "phrase stays quoted",
			expr:      `"care worker" visa`,
			wantQuery: `"care worker" visa`,
		},
		{
			name:      "exclude is checked locally",
			expr:      "care -agency",
			wantQuery: "care",
			wantResidual: []Rule{
				{Kind: Exclude, Scope: ScopeAll, Value: "agency"},
			},
		},
		{
			name:      "title scope is searched and checked locally",
			expr:      "title:bitcoin /etf|fund/",
			wantQuery: "bitcoin",
			wantResidual: []Rule{
				{Kind: Include, Scope: ScopeTitle, Value: "bitcoin"},
				{Kind: IncludeRe, Scope: ScopeAll, Value: "etf|fund"},
			},
		},
		{
			name:      "regex only has no query",
			expr:      "/bit.*coin/",
			wantQuery: "",
			wantResidual: []Rule{
				{Kind: IncludeRe, Scope: ScopeAll, Value: "bit.*coin"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := Parse(tt.expr)
			if diff := cmp.Diff(tt.wantQuery, Query(rules)); diff != "" {
				t.Errorf("Query() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantResidual, Residual(rules)); diff != "" {
				t.Errorf("Residual() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
