package render

import (
	"strings"
	"testing"
	"time"

	"github.com/kingrea/git-glance/internal/model"
)

func summaries() []model.TaggedSummary {
	return []model.TaggedSummary{
		{Number: "45", Tag: "misc", Summary: "bump dependencies", URL: "https://github.com/o/r/pull/45"},
		{Number: "42", Tag: "feature", Summary: "add retry logic for flaky network calls", URL: "https://github.com/o/r/pull/42"},
		{Number: "44", Tag: "refactor", Summary: "restructure the cache", URL: "https://github.com/o/r/pull/44"},
		{Number: "43", Tag: "feature", Summary: "support custom endpoints", URL: "https://github.com/o/r/pull/43"},
		{Number: "40", Tag: "bugfix", Summary: "stop double-closing the progress bar", URL: "https://github.com/o/r/pull/40"},
	}
}

func standalone() map[string]model.Commit {
	return map[string]model.Commit{
		"d3d3d3d3aaaa": {OID: "d3d3d3d3aaaa", Headline: "tweak readme"},
		"a1a1a1a1bbbb": {OID: "a1a1a1a1bbbb", Headline: "fix typo"},
	}
}

func TestRenderCanonicalOrdering(t *testing.T) {
	out := Render(Header{}, summaries(), standalone())

	// Known tags in priority order, unknown tags after, alphabetically.
	var positions []int
	for _, heading := range []string{"## Feature", "## Bugfix", "## Misc", "## Refactor", "## Other"} {
		idx := strings.Index(out, heading)
		if idx < 0 {
			t.Fatalf("missing heading %q in:\n%s", heading, out)
		}
		positions = append(positions, idx)
	}
	for i := 1; i < len(positions); i++ {
		if positions[i] < positions[i-1] {
			t.Fatalf("headings out of order:\n%s", out)
		}
	}

	// Inside a group, entries order by ascending PR number.
	if strings.Index(out, "[#42]") > strings.Index(out, "[#43]") {
		t.Fatalf("feature entries out of order:\n%s", out)
	}
}

func TestRenderEntryAndOtherFormat(t *testing.T) {
	out := Render(Header{}, summaries(), standalone())

	if !strings.Contains(out, "* add retry logic for flaky network calls [#42](https://github.com/o/r/pull/42)") {
		t.Fatalf("PR entry format wrong:\n%s", out)
	}
	if !strings.Contains(out, "* tweak readme (d3d3d3)") {
		t.Fatalf("standalone entry missing 6-char short id:\n%s", out)
	}
	if !strings.Contains(out, "* fix typo (a1a1a1)") {
		t.Fatalf("standalone entry missing:\n%s", out)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	header := Header{Release: "v1.2.0", Date: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC), HasDate: true}
	first := Render(header, summaries(), standalone())
	second := Render(header, summaries(), standalone())
	if first != second {
		t.Fatalf("rendering is not byte-identical:\n%s\n---\n%s", first, second)
	}
}

func TestRenderHeader(t *testing.T) {
	date := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	withDate := Render(Header{Release: "v1.2.0", Date: date, HasDate: true}, nil, nil)
	if !strings.HasPrefix(withDate, "**v1.2.0** (June 3, 2024)\n") {
		t.Fatalf("dated header wrong:\n%s", withDate)
	}

	withoutDate := Render(Header{Release: "v1.2.0"}, nil, nil)
	if !strings.HasPrefix(withoutDate, "**v1.2.0**\n") {
		t.Fatalf("plain header wrong:\n%s", withoutDate)
	}
}

func TestRenderEmptyRange(t *testing.T) {
	if out := Render(Header{}, nil, nil); out != "" {
		t.Fatalf("empty range should render nothing, got %q", out)
	}
	out := Render(Header{Release: "v1.2.0"}, nil, nil)
	if strings.TrimSpace(out) != "**v1.2.0**" {
		t.Fatalf("empty range with release should render only the header, got %q", out)
	}
}
