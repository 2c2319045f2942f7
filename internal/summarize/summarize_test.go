package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kingrea/git-glance/internal/model"
)

type fakeOracle struct {
	reply string
	err   error
	last  string
}

func (f *fakeOracle) Complete(ctx context.Context, prompt string) (string, error) {
	f.last = prompt
	return f.reply, f.err
}

func pr42() model.PullRequest {
	return model.PullRequest{
		Number: "42",
		Title:  "Add retry logic",
		Body:   "Retries flaky network calls.",
		URL:    "https://github.com/o/r/pull/42",
		Commits: []model.Commit{
			{OID: "b1", Headline: "add retry"},
			{OID: "c2", Headline: "add tests"},
		},
	}
}

func TestSummarizeParsesReply(t *testing.T) {
	replies := map[string]string{
		"bare":           `{"tag": "feature", "summary": "add retry logic for flaky network calls"}`,
		"fenced":         "```\n{\"tag\": \"feature\", \"summary\": \"add retry logic for flaky network calls\"}\n```",
		"fenced-lang":    "```json\n{\"tag\": \"feature\", \"summary\": \"add retry logic for flaky network calls\"}\n```",
		"fenced-padding": "  ```json\n{\"tag\": \"feature\", \"summary\": \"add retry logic for flaky network calls\"}\n```  ",
	}

	var results []model.TaggedSummary
	for name, reply := range replies {
		adapter := &Adapter{Oracle: &fakeOracle{reply: reply}}
		summary, err := adapter.Summarize(context.Background(), pr42())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		results = append(results, summary)
	}

	// Fenced and unfenced replies with the same JSON body parse identically.
	for _, got := range results {
		if got != results[0] {
			t.Fatalf("parse differs across wrappings: %+v vs %+v", got, results[0])
		}
	}
	if results[0].Tag != "feature" || results[0].Number != "42" || results[0].URL != "https://github.com/o/r/pull/42" {
		t.Fatalf("wrong summary: %+v", results[0])
	}
}

func TestSummarizeKeepsUnknownTagVerbatim(t *testing.T) {
	adapter := &Adapter{Oracle: &fakeOracle{reply: `{"tag": "refactor", "summary": "restructure the cache"}`}}
	summary, err := adapter.Summarize(context.Background(), pr42())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Tag != "refactor" {
		t.Fatalf("unknown tag rewritten: %q", summary.Tag)
	}
}

func TestSummarizeRejectsBadReplies(t *testing.T) {
	cases := map[string]string{
		"not json":        "Sure! Here is a summary of the pull request.",
		"missing tag":     `{"summary": "add retry logic"}`,
		"missing summary": `{"tag": "feature"}`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			adapter := &Adapter{Oracle: &fakeOracle{reply: reply}}
			_, err := adapter.Summarize(context.Background(), pr42())
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Number != "42" {
				t.Fatalf("error lost the PR number: %+v", parseErr)
			}
		})
	}
}

func TestBuildPromptEmbedsPRContext(t *testing.T) {
	oracle := &fakeOracle{reply: `{"tag": "feature", "summary": "x"}`}
	adapter := &Adapter{Oracle: oracle}
	if _, err := adapter.Summarize(context.Background(), pr42()); err != nil {
		t.Fatalf("summarize: %v", err)
	}

	for _, want := range []string{
		"Title: Add retry logic",
		"Retries flaky network calls.",
		"* add retry",
		"* add tests",
	} {
		if !strings.Contains(oracle.last, want) {
			t.Fatalf("prompt missing %q:\n%s", want, oracle.last)
		}
	}
	// Commit bullets keep the PR record's order.
	if strings.Index(oracle.last, "* add retry") > strings.Index(oracle.last, "* add tests") {
		t.Fatal("commit bullets out of order")
	}
}

func TestSummarizeAllCollectsFailuresPerPR(t *testing.T) {
	bad := pr42()
	bad.Number = "43"
	bad.URL = "https://github.com/o/r/pull/43"
	bad.Title = "Broken summarization"

	oracle := &replyByTitle{replies: map[string]string{
		"Add retry logic":      `{"tag": "feature", "summary": "add retry logic"}`,
		"Broken summarization": "not json at all",
	}}
	adapter := &Adapter{Oracle: oracle, Workers: 2}

	summaries, errs := adapter.SummarizeAll(context.Background(), map[string]model.PullRequest{
		"42": pr42(),
		"43": bad,
	})
	if len(summaries) != 1 || summaries[0].Number != "42" {
		t.Fatalf("expected only PR 42 summarized, got %+v", summaries)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
}

type replyByTitle struct {
	replies map[string]string
}

func (r *replyByTitle) Complete(ctx context.Context, prompt string) (string, error) {
	for title, reply := range r.replies {
		if strings.Contains(prompt, title) {
			return reply, nil
		}
	}
	return "", errors.New("no canned reply")
}
