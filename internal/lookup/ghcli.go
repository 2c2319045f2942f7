package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kingrea/git-glance/internal/model"
)

const ghFields = "number,title,author,body,comments,commits,url,updatedAt,mergedAt"

// runFunc executes a gh invocation and returns stdout plus the combined
// stdout+stderr text for diagnostics. Injected in tests.
type runFunc func(ctx context.Context, dir string, args ...string) (stdout []byte, combined string, err error)

// CLI looks up PRs by shelling out to the GitHub CLI.
type CLI struct {
	dir string
	run runFunc
}

// NewCLI builds a gh-backed client running in the given repository
// directory so gh can infer the remote.
func NewCLI(dir string) *CLI {
	return &CLI{dir: dir, run: runGH}
}

// Find searches merged PRs whose history contains oid.
func (c *CLI) Find(ctx context.Context, oid string) (*model.PullRequest, error) {
	stdout, combined, err := c.run(ctx, c.dir,
		"pr", "list",
		"--json", ghFields,
		"--search", oid,
		"--state", "merged",
	)
	if err != nil {
		return nil, &CommandError{Output: combined, Err: err}
	}

	var prs []*ghPullRequest
	if err := json.Unmarshal(stdout, &prs); err != nil {
		return nil, errors.Wrap(err, "lookup: parse gh response")
	}
	if len(prs) == 0 || prs[0] == nil {
		return nil, nil
	}
	return prs[0].toRecord()
}

// ghPullRequest is the typed shape of one element of gh's JSON output.
// Required fields are validated once here instead of being traversed
// unchecked downstream.
type ghPullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	Comments []struct {
		Body string `json:"body"`
	} `json:"comments"`
	Commits []struct {
		OID             string `json:"oid"`
		MessageHeadline string `json:"messageHeadline"`
		MessageBody     string `json:"messageBody"`
	} `json:"commits"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updatedAt"`
	MergedAt  string `json:"mergedAt"`
}

func (p *ghPullRequest) toRecord() (*model.PullRequest, error) {
	switch {
	case p.Number == 0:
		return nil, &MalformedError{Field: "number"}
	case p.Title == "":
		return nil, &MalformedError{Field: "title"}
	case p.URL == "":
		return nil, &MalformedError{Field: "url"}
	}

	number := strconv.Itoa(p.Number)
	commits := make([]model.Commit, 0, len(p.Commits))
	for _, c := range p.Commits {
		if c.OID == "" {
			return nil, &MalformedError{Field: "commits.oid"}
		}
		if c.MessageHeadline == "" {
			return nil, &MalformedError{Field: "commits.messageHeadline"}
		}
		commits = append(commits, model.Commit{
			OID:      c.OID,
			Headline: c.MessageHeadline,
			Body:     c.MessageBody,
		}.WithPR(number))
	}

	comments := make([]string, 0, len(p.Comments))
	for _, cm := range p.Comments {
		comments = append(comments, cm.Body)
	}

	return &model.PullRequest{
		Number:    number,
		Title:     p.Title,
		Body:      p.Body,
		Author:    p.Author.Login,
		Comments:  comments,
		Commits:   commits,
		URL:       p.URL,
		UpdatedAt: p.UpdatedAt,
		MergedAt:  p.MergedAt,
	}, nil
}

func runGH(ctx context.Context, dir string, args ...string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	combined := strings.TrimSpace(stdout.String() + " " + stderr.String())
	return stdout.Bytes(), combined, err
}
