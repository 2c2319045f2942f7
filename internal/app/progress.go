package app

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
)

// progressBar renders a bubbles progress bar frame by frame to a writer.
// The pipeline is a batch process, so there is no interactive loop; each
// Step redraws the current frame in place.
type progressBar struct {
	bar   progress.Model
	out   io.Writer
	total int
	done  int
}

func newProgressBar(out io.Writer, total int) *progressBar {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	return &progressBar{bar: bar, out: out, total: total}
}

// Step advances the bar by one item and redraws it.
func (p *progressBar) Step() {
	if p.total == 0 {
		return
	}
	p.done++
	pct := float64(p.done) / float64(p.total)
	fmt.Fprintf(p.out, "\r%s %d/%d", p.bar.ViewAs(pct), p.done, p.total)
}

// Finish terminates the progress line.
func (p *progressBar) Finish() {
	if p.total == 0 {
		return
	}
	fmt.Fprintln(p.out)
}
