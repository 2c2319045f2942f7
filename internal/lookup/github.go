package lookup

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/kingrea/git-glance/internal/model"
)

// API looks up PRs through the GitHub REST API. Used when a token is
// available and the config selects the api backend; unlike the gh CLI it
// needs the owner/repo pair up front.
type API struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewAPI builds an API client from a token and the repository's remote URL.
func NewAPI(token, remoteURL string) (*API, error) {
	owner, repo, err := ParseRemote(remoteURL)
	if err != nil {
		return nil, err
	}
	return &API{
		gh:    github.NewClient(nil).WithAuthToken(token),
		owner: owner,
		repo:  repo,
	}, nil
}

// NewAPIWithClient injects an existing go-github client. Used in tests to
// point at an httptest server.
func NewAPIWithClient(gh *github.Client, owner, repo string) *API {
	return &API{gh: gh, owner: owner, repo: repo}
}

// Find returns the first merged PR whose history contains oid.
func (a *API) Find(ctx context.Context, oid string) (*model.PullRequest, error) {
	prs, _, err := a.gh.PullRequests.ListPullRequestsWithCommit(
		ctx, a.owner, a.repo, oid, &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, &CommandError{Output: err.Error(), Err: err}
	}

	var merged *github.PullRequest
	for _, pr := range prs {
		if pr.MergedAt != nil {
			merged = pr
			break
		}
	}
	if merged == nil {
		return nil, nil
	}
	return a.toRecord(ctx, merged)
}

func (a *API) toRecord(ctx context.Context, pr *github.PullRequest) (*model.PullRequest, error) {
	if pr.GetTitle() == "" {
		return nil, &MalformedError{Field: "title"}
	}
	if pr.GetHTMLURL() == "" {
		return nil, &MalformedError{Field: "html_url"}
	}
	number := strconv.Itoa(pr.GetNumber())

	commits, err := a.prCommits(ctx, pr.GetNumber(), number)
	if err != nil {
		return nil, err
	}
	comments, err := a.prComments(ctx, pr.GetNumber())
	if err != nil {
		return nil, err
	}

	return &model.PullRequest{
		Number:    number,
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		Author:    pr.GetUser().GetLogin(),
		Comments:  comments,
		Commits:   commits,
		URL:       pr.GetHTMLURL(),
		UpdatedAt: pr.GetUpdatedAt().Format(time.RFC3339),
		MergedAt:  pr.GetMergedAt().Format(time.RFC3339),
	}, nil
}

func (a *API) prCommits(ctx context.Context, prNumber int, number string) ([]model.Commit, error) {
	var records []model.Commit
	opts := &github.ListOptions{PerPage: 100}
	for {
		commits, resp, err := a.gh.PullRequests.ListCommits(ctx, a.owner, a.repo, prNumber, opts)
		if err != nil {
			return nil, &CommandError{Output: err.Error(), Err: err}
		}
		for _, c := range commits {
			if c.GetSHA() == "" {
				return nil, &MalformedError{Field: "sha"}
			}
			headline, body := splitMessage(c.GetCommit().GetMessage())
			if headline == "" {
				return nil, &MalformedError{Field: "commit.message"}
			}
			records = append(records, model.Commit{
				OID:      c.GetSHA(),
				Headline: headline,
				Body:     body,
			}.WithPR(number))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return records, nil
}

func (a *API) prComments(ctx context.Context, prNumber int) ([]string, error) {
	var bodies []string
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := a.gh.Issues.ListComments(ctx, a.owner, a.repo, prNumber, opts)
		if err != nil {
			return nil, &CommandError{Output: err.Error(), Err: err}
		}
		for _, c := range comments {
			bodies = append(bodies, c.GetBody())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return bodies, nil
}

func splitMessage(message string) (headline, body string) {
	headline, body, _ = strings.Cut(message, "\n")
	return strings.TrimSpace(headline), strings.TrimSpace(body)
}

var remotePattern = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/\s]+?)(?:\.git)?$`)

// ParseRemote extracts the owner/repo pair from an https or ssh GitHub
// remote URL.
func ParseRemote(remoteURL string) (owner, repo string, err error) {
	matches := remotePattern.FindStringSubmatch(strings.TrimSpace(remoteURL))
	if matches == nil {
		return "", "", fmt.Errorf("lookup: not a GitHub remote: %q", remoteURL)
	}
	return matches[1], matches[2], nil
}
