// Package gitrepo wraps the git CLI for the small set of repository
// operations the pipeline needs: reference resolution, ancestry-exclusion
// rev lists, and per-commit metadata.
package gitrepo

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/git-glance/internal/model"
)

// ErrNoBaseline is returned when no --last reference was supplied and the
// repository has no tags to fall back on. Fatal, never retried.
var ErrNoBaseline = errors.New("gitrepo: no tags found and no last release specified")

// Repository runs git against a working directory.
type Repository struct {
	workDir string
	gitDir  string
}

// Range is the resolved release range: everything reachable from Tip but
// not from Base. Commit order is whatever rev-list emits; the renderer
// derives its own ordering.
type Range struct {
	TipRef  string
	Tip     string
	BaseRef string
	Base    string
	Commits []string
}

// Open verifies dir is inside a git repository and locates its git dir.
func Open(dir string) (*Repository, error) {
	out, err := runGit(dir, "rev-parse", "--git-dir")
	if err != nil {
		return nil, fmt.Errorf("gitrepo: not a git repository at %s: %w", dir, err)
	}
	gitDir := strings.TrimSpace(out)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}
	return &Repository{workDir: dir, gitDir: filepath.Clean(gitDir)}, nil
}

// GlanceDir returns the metadata directory glance owns inside the git dir.
func (r *Repository) GlanceDir() string {
	return filepath.Join(r.gitDir, "glance")
}

// Resolve turns a reference into a full commit id. Failure is fatal to
// the run.
func (r *Repository) Resolve(ref string) (string, error) {
	out, err := runGit(r.workDir, "rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("gitrepo: resolve %q: %w", ref, err)
	}
	return strings.TrimSpace(out), nil
}

// LatestTag returns the most recently created tag, or "" when the
// repository has none.
func (r *Repository) LatestTag() (string, error) {
	out, err := runGit(r.workDir,
		"for-each-ref", "refs/tags",
		"--sort=-creatordate", "--count=1", "--format=%(refname:short)")
	if err != nil {
		return "", fmt.Errorf("gitrepo: list tags: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ReleaseRange resolves the tip (releaseRef or HEAD) and base (lastRef or
// the latest tag) and collects the commits between them.
func (r *Repository) ReleaseRange(releaseRef, lastRef string) (Range, error) {
	tipRef := releaseRef
	if tipRef == "" {
		tipRef = "HEAD"
	}
	tip, err := r.Resolve(tipRef)
	if err != nil {
		return Range{}, err
	}

	baseRef := lastRef
	if baseRef == "" {
		baseRef, err = r.LatestTag()
		if err != nil {
			return Range{}, err
		}
		if baseRef == "" {
			return Range{}, ErrNoBaseline
		}
	}
	base, err := r.Resolve(baseRef)
	if err != nil {
		return Range{}, err
	}

	commits, err := r.revList(base, tip)
	if err != nil {
		return Range{}, err
	}
	return Range{TipRef: tipRef, Tip: tip, BaseRef: baseRef, Base: base, Commits: commits}, nil
}

// CommitInfo reads the headline and full message for a commit.
func (r *Repository) CommitInfo(oid string) (model.Commit, error) {
	out, err := runGit(r.workDir, "show", "-s", "--format=%H%x1f%s%x1f%B", oid)
	if err != nil {
		return model.Commit{}, fmt.Errorf("gitrepo: show %s: %w", oid, err)
	}
	parts := strings.SplitN(out, "\x1f", 3)
	if len(parts) != 3 {
		return model.Commit{}, fmt.Errorf("gitrepo: unexpected show output for %s", oid)
	}
	return model.Commit{
		OID:      strings.TrimSpace(parts[0]),
		Headline: strings.TrimSpace(parts[1]),
		Body:     strings.TrimSpace(parts[2]),
	}, nil
}

// AuthorTime returns the author timestamp of the commit a reference
// resolves to. Used for the release header date.
func (r *Repository) AuthorTime(ref string) (time.Time, error) {
	oid, err := r.Resolve(ref)
	if err != nil {
		return time.Time{}, err
	}
	out, err := runGit(r.workDir, "show", "-s", "--format=%at", oid)
	if err != nil {
		return time.Time{}, fmt.Errorf("gitrepo: author time %s: %w", oid, err)
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("gitrepo: parse author time for %s: %w", oid, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// RemoteURL returns the URL of the origin remote. The API lookup backend
// parses the owner/repo pair out of it.
func (r *Repository) RemoteURL() (string, error) {
	out, err := runGit(r.workDir, "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("gitrepo: origin remote: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repository) revList(base, tip string) ([]string, error) {
	out, err := runGit(r.workDir, "rev-list", tip, "^"+base)
	if err != nil {
		return nil, fmt.Errorf("gitrepo: rev-list %s..%s: %w", base, tip, err)
	}
	var oids []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			oids = append(oids, line)
		}
	}
	return oids, nil
}

func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s: %w", strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return "", err
	}
	return string(out), nil
}
