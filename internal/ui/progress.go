package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"
)

// ProgressBar renders download and extraction progress. On a terminal it
// redraws a bubbles progress bar in place; otherwise it prints a plain line
// at every tenth of the total.
type ProgressBar struct {
	mu sync.Mutex

	out   io.Writer
	tty   bool
	bar   progress.Model
	label string
	total int64
	cur   int64

	lastDraw time.Time
	lastStep int64
}

const redrawInterval = 100 * time.Millisecond

// NewProgressBar returns a bar writing to stdout.
func NewProgressBar() *ProgressBar {
	f := os.Stdout
	tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	return NewProgressBarWriter(f, tty)
}

// NewProgressBarWriter returns a bar writing to w. tty selects in-place
// redraws.
func NewProgressBarWriter(w io.Writer, tty bool) *ProgressBar {
	opts := []progress.Option{progress.WithWidth(40)}
	if UseColors {
		opts = append(opts, progress.WithDefaultGradient())
	} else {
		opts = append(opts, progress.WithSolidFill("7"), progress.WithoutPercentage())
	}

	return &ProgressBar{
		out: w,
		tty: tty,
		bar: progress.New(opts...),
	}
}

// Start begins a new run for label. A negative total counts units without a
// bar.
func (p *ProgressBar) Start(label string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.label = label
	p.total = total
	p.cur = 0
	p.lastStep = -1
	p.lastDraw = time.Time{}

	p.draw(true)
}

// Add advances the run by n units.
func (p *ProgressBar) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cur += n
	p.draw(false)
}

// Done ends the run.
func (p *ProgressBar) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total > 0 && p.cur < p.total {
		p.cur = p.total
	}
	p.draw(true)
	if p.tty {
		fmt.Fprintln(p.out)
	}
}

func (p *ProgressBar) percent() float64 {
	if p.total <= 0 {
		return 0
	}
	pct := float64(p.cur) / float64(p.total)
	if pct > 1 {
		pct = 1
	}
	return pct
}

func (p *ProgressBar) draw(force bool) {
	if p.tty {
		if !force && time.Since(p.lastDraw) < redrawInterval {
			return
		}
		p.lastDraw = time.Now()

		if p.total <= 0 {
			fmt.Fprintf(p.out, "\r%s %d", p.label, p.cur)
			return
		}
		fmt.Fprintf(p.out, "\r%s %s %s/%s", p.label, p.bar.ViewAs(p.percent()), FormatBytes(p.cur), FormatBytes(p.total))
		return
	}

	if p.total <= 0 {
		if force && p.cur > 0 {
			fmt.Fprintf(p.out, "%s: %d\n", p.label, p.cur)
		}
		return
	}

	step := int64(p.percent() * 10)
	if step == p.lastStep {
		return
	}
	p.lastStep = step
	fmt.Fprintf(p.out, "%s: %d%%\n", p.label, step*10)
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
