// Package summarize turns a pull request record into a tagged one-line
// summary by prompting a text-generation oracle and parsing its reply
// under a strict contract: one JSON object with string fields "tag" and
// "summary", optionally wrapped in a fenced code block.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kingrea/git-glance/internal/model"
)

// Oracle is the text-generation port. Implemented by openai.Client.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ParseError reports an oracle reply that did not satisfy the contract.
// The PR is dropped from this run's output and retried next run.
type ParseError struct {
	Number string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("summarize: pr #%s: unusable oracle reply: %v", e.Number, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Adapter binds the prompt contract to an oracle.
type Adapter struct {
	Oracle  Oracle
	Workers int
	OnStep  func()
}

// Summarize obtains the tag and one-line summary for a single PR.
func (a *Adapter) Summarize(ctx context.Context, pr model.PullRequest) (model.TaggedSummary, error) {
	reply, err := a.Oracle.Complete(ctx, BuildPrompt(pr))
	if err != nil {
		return model.TaggedSummary{}, fmt.Errorf("summarize: pr #%s: %w", pr.Number, err)
	}

	tag, summary, err := parseReply(reply)
	if err != nil {
		return model.TaggedSummary{}, &ParseError{Number: pr.Number, Raw: reply, Err: err}
	}
	return model.TaggedSummary{
		Number:  pr.Number,
		Tag:     tag,
		Summary: summary,
		URL:     pr.URL,
	}, nil
}

// SummarizeAll runs the adapter over every PR with a bounded worker pool.
// Failures are collected per PR; failed PRs are simply absent from the
// returned summaries.
func (a *Adapter) SummarizeAll(ctx context.Context, prs map[string]model.PullRequest) ([]model.TaggedSummary, []error) {
	var (
		mu        sync.Mutex
		summaries []model.TaggedSummary
		errs      []error
		wg        sync.WaitGroup
	)

	workers := a.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan model.PullRequest)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pr := range jobs {
				summary, err := a.Summarize(ctx, pr)
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else {
					summaries = append(summaries, summary)
				}
				if a.OnStep != nil {
					a.OnStep()
				}
				mu.Unlock()
			}
		}()
	}

	for _, pr := range prs {
		select {
		case jobs <- pr:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return summaries, append(errs, ctx.Err())
		}
	}
	close(jobs)
	wg.Wait()
	return summaries, errs
}

// BuildPrompt embeds the PR title, body, and commit headlines, in the PR
// record's commit order, into the summarization prompt.
func BuildPrompt(pr model.PullRequest) string {
	var commits strings.Builder
	for i, c := range pr.Commits {
		if i > 0 {
			commits.WriteString("\n")
		}
		fmt.Fprintf(&commits, "* %s", c.Headline)
	}

	return fmt.Sprintf(`You are a senior software developer writing a one line summary and tag for a pull request.
I will give you a Pull Request title, body and a list of the commit messages.
Write me a tag and one line summary for that pull request in the following json format:

`+"```"+`
{
    "tag": "feature",
    "summary": "updated the css to remove all tailwind references"
}
`+"```"+`

The tag should be one of: feature, bugfix, documentation, test, misc.

Here is the pull request information:

Title: %s
Body:
%s

Commit Summaries:
%s

Please respond with only the json data of tag and summary`, pr.Title, pr.Body, commits.String())
}

type taggedReply struct {
	Tag     *string `json:"tag"`
	Summary *string `json:"summary"`
}

func parseReply(reply string) (tag, summary string, err error) {
	var parsed taggedReply
	if err := json.Unmarshal([]byte(stripFences(reply)), &parsed); err != nil {
		return "", "", err
	}
	if parsed.Tag == nil {
		return "", "", fmt.Errorf("missing %q field", "tag")
	}
	if parsed.Summary == nil {
		return "", "", fmt.Errorf("missing %q field", "summary")
	}
	// The tag is taken verbatim: unknown values become their own group in
	// the rendered output rather than being dropped.
	return *parsed.Tag, *parsed.Summary, nil
}

// stripFences removes a wrapping markdown code fence, with or without a
// language tag, leaving the JSON body untouched.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
