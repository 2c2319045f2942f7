// Package model holds the records the glance pipeline passes between
// stages and persists in the reconciliation cache. The JSON field names
// match the on-disk cache layout, so changing them invalidates existing
// cache entries.
package model

// Commit is one commit in the release range. PR carries the number of
// the merged pull request that contains the commit, or nil once the
// commit is known to be standalone.
type Commit struct {
	OID      string  `json:"oid"`
	Headline string  `json:"headline"`
	Body     string  `json:"body"`
	PR       *string `json:"pr"`
}

// PullRequest is the canonical record for a merged pull request. Commits
// holds copies of the commit records the PR contains; the cache keeps its
// own per-commit entries and the two never alias.
type PullRequest struct {
	Number    string   `json:"number"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Author    string   `json:"author"`
	Comments  []string `json:"comments"`
	Commits   []Commit `json:"commits"`
	URL       string   `json:"url"`
	UpdatedAt string   `json:"updated_at"`
	MergedAt  string   `json:"merged_at"`
}

// TaggedSummary is the per-PR output of the summarization oracle.
// Derived each run, never cached.
type TaggedSummary struct {
	Number  string
	Tag     string
	Summary string
	URL     string
}

// WithPR returns a copy of the commit pointing at the given PR number.
func (c Commit) WithPR(number string) Commit {
	c.PR = &number
	return c
}
