// Package lookup finds the merged pull request, if any, that contains a
// given commit. Two backends implement the same port: the gh CLI (the
// default, needs no token of its own) and the GitHub REST API via
// go-github. Lookup failures are recoverable per commit; callers log and
// move on, leaving the commit uncached so the next run retries it.
package lookup

import (
	"context"
	"fmt"

	"github.com/kingrea/git-glance/internal/model"
)

// Client resolves a commit id to the merged PR containing it.
// A nil record with a nil error means the commit is standalone.
type Client interface {
	Find(ctx context.Context, oid string) (*model.PullRequest, error)
}

// CommandError reports a transport or tool failure. Output carries the
// backend's combined diagnostic text.
type CommandError struct {
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("lookup: backend failed: %s", e.Output)
	}
	return fmt.Sprintf("lookup: backend failed: %v", e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// MalformedError reports a lookup response missing a required field.
type MalformedError struct {
	Field string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("lookup: response missing required field %q", e.Field)
}
