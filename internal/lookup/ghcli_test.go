package lookup

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const ghFixture = `[
  {
    "number": 42,
    "title": "Add retry logic",
    "body": "Retries flaky network calls.",
    "author": {"login": "octocat"},
    "comments": [{"body": "LGTM"}],
    "commits": [
      {"oid": "b1b1b1", "messageHeadline": "add retry", "messageBody": "details"},
      {"oid": "c2c2c2", "messageHeadline": "add tests", "messageBody": ""}
    ],
    "url": "https://github.com/o/r/pull/42",
    "updatedAt": "2024-06-01T10:00:00Z",
    "mergedAt": "2024-06-02T10:00:00Z"
  }
]`

func fakeRun(stdout string, combined string, err error) runFunc {
	return func(ctx context.Context, dir string, args ...string) ([]byte, string, error) {
		return []byte(stdout), combined, err
	}
}

func TestFindReturnsFirstMergedPR(t *testing.T) {
	cli := &CLI{dir: ".", run: fakeRun(ghFixture, "", nil)}

	pr, err := cli.Find(context.Background(), "b1b1b1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if pr == nil {
		t.Fatal("expected a PR record")
	}
	if pr.Number != "42" || pr.Title != "Add retry logic" || pr.Author != "octocat" {
		t.Fatalf("wrong record: %+v", pr)
	}
	if len(pr.Commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(pr.Commits))
	}
	for _, c := range pr.Commits {
		if c.PR == nil || *c.PR != "42" {
			t.Fatalf("commit %s does not point at the PR", c.OID)
		}
	}
	if len(pr.Comments) != 1 || pr.Comments[0] != "LGTM" {
		t.Fatalf("comments not carried over: %v", pr.Comments)
	}
}

func TestFindReturnsNilForStandaloneCommit(t *testing.T) {
	for _, stdout := range []string{"[]", "[null]"} {
		cli := &CLI{dir: ".", run: fakeRun(stdout, "", nil)}
		pr, err := cli.Find(context.Background(), "d4d4d4")
		if err != nil {
			t.Fatalf("stdout %q: %v", stdout, err)
		}
		if pr != nil {
			t.Fatalf("stdout %q: expected standalone, got %+v", stdout, pr)
		}
	}
}

func TestFindSurfacesCombinedOutputOnFailure(t *testing.T) {
	cli := &CLI{dir: ".", run: fakeRun("", "gh: To get started with GitHub CLI, please run: gh auth login", errors.New("exit status 4"))}

	_, err := cli.Find(context.Background(), "b1b1b1")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if !strings.Contains(cmdErr.Output, "gh auth login") {
		t.Fatalf("combined output missing from error: %q", cmdErr.Output)
	}
}

func TestFindRejectsMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		stdout string
		field  string
	}{
		{
			name:   "missing url",
			stdout: `[{"number": 42, "title": "x", "commits": []}]`,
			field:  "url",
		},
		{
			name:   "missing title",
			stdout: `[{"number": 42, "url": "https://github.com/o/r/pull/42", "commits": []}]`,
			field:  "title",
		},
		{
			name:   "missing commit oid",
			stdout: `[{"number": 42, "title": "x", "url": "u", "commits": [{"messageHeadline": "h"}]}]`,
			field:  "commits.oid",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cli := &CLI{dir: ".", run: fakeRun(tc.stdout, "", nil)}
			_, err := cli.Find(context.Background(), "b1b1b1")
			var malformed *MalformedError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedError, got %v", err)
			}
			if malformed.Field != tc.field {
				t.Fatalf("field = %q, want %q", malformed.Field, tc.field)
			}
		})
	}
}
