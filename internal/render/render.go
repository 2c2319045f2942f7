// Package render groups tagged summaries and produces the final release
// notes markdown. Output is deterministic: a fixed tag priority order,
// numeric PR order inside groups, and commit-id order for the residual
// section, so rendering the same inputs twice is byte-identical.
package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/kingrea/git-glance/internal/model"
)

// tagPriority is the canonical group order. Unknown tags follow,
// alphabetically.
var tagPriority = []string{"feature", "bugfix", "documentation", "test", "misc"}

// Header describes the optional release heading line.
type Header struct {
	Release string
	Date    time.Time
	HasDate bool
}

// Render produces the markdown body for the grouped summaries and the
// standalone commits.
func Render(header Header, summaries []model.TaggedSummary, standalone map[string]model.Commit) string {
	var b strings.Builder

	if header.Release != "" {
		if header.HasDate {
			fmt.Fprintf(&b, "**%s** (%s)\n", header.Release, header.Date.Format("January 2, 2006"))
		} else {
			fmt.Fprintf(&b, "**%s**\n", header.Release)
		}
	}

	groups := groupByTag(summaries)
	for _, tag := range orderedTags(groups) {
		fmt.Fprintf(&b, "\n## %s\n\n", capitalize(tag))
		for _, s := range groups[tag] {
			fmt.Fprintf(&b, "* %s [#%s](%s)\n", s.Summary, s.Number, s.URL)
		}
	}

	if len(standalone) > 0 {
		b.WriteString("\n## Other\n\n")
		for _, c := range orderedCommits(standalone) {
			fmt.Fprintf(&b, "* %s (%s)\n", c.Headline, shortOID(c.OID))
		}
	}

	return b.String()
}

func groupByTag(summaries []model.TaggedSummary) map[string][]model.TaggedSummary {
	groups := make(map[string][]model.TaggedSummary)
	for _, s := range summaries {
		groups[s.Tag] = append(groups[s.Tag], s)
	}
	for tag := range groups {
		sort.Slice(groups[tag], func(i, j int) bool {
			return lessNumber(groups[tag][i].Number, groups[tag][j].Number)
		})
	}
	return groups
}

func orderedTags(groups map[string][]model.TaggedSummary) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, tag := range tagPriority {
		if _, ok := groups[tag]; ok {
			tags = append(tags, tag)
			seen[tag] = true
		}
	}
	var rest []string
	for tag := range groups {
		if !seen[tag] {
			rest = append(rest, tag)
		}
	}
	sort.Strings(rest)
	return append(tags, rest...)
}

func orderedCommits(standalone map[string]model.Commit) []model.Commit {
	commits := make([]model.Commit, 0, len(standalone))
	for _, c := range standalone {
		commits = append(commits, c)
	}
	sort.Slice(commits, func(i, j int) bool { return commits[i].OID < commits[j].OID })
	return commits
}

func lessNumber(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

func shortOID(oid string) string {
	if len(oid) > 6 {
		return oid[:6]
	}
	return oid
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
