// Package progress reports a rewrite run's phases on stderr, following the teacher's own
// preference for github.com/vbauerster/mpb bars over a hand-rolled
// spinner, with color and TTY detection delegated to the ecosystem
// rather than reimplemented.
package progress

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// phaseColor matches pkg/migrate/progressbar.go's per-phase accent,
// one color shared by every phase zeta-subset reports.
var phaseColor = ansi.ColorCode("cyan+b")
var resetColor = ansi.ColorCode("reset")

// IsInteractive reports whether stderr is a real terminal. NewReporter
// consults it and degrades to a no-op Reporter when it is false.
func IsInteractive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Reporter drives one mpb.Progress across the phases of a run, one bar
// per phase, numbered the way pkg/migrate.Execute numbers its steps.
// pkg/subset.Run opens a single "rewrite" phase.
type Reporter struct {
	quiet bool
	p     *mpb.Progress
	step  int
}

// NewReporter builds a Reporter. When quiet is true, or stderr is not
// a terminal, every method becomes a no-op.
func NewReporter(quiet bool) *Reporter {
	if quiet || !IsInteractive() {
		return &Reporter{quiet: true}
	}
	return &Reporter{p: mpb.New(mpb.WithOutput(os.Stderr), mpb.WithAutoRefresh())}
}

// Phase starts a new numbered bar with total units of work (0 for an
// indeterminate spinner-style bar, as pkg/subset.Run uses for its
// rewrite phase, whose commit count it does not pass in).
func (r *Reporter) Phase(name string, total int64) *Bar {
	r.step++
	if r.quiet {
		return &Bar{}
	}
	label := fmt.Sprintf("%s[%d] %s%s", phaseColor, r.step, name, resetColor)
	if total <= 0 {
		bar := r.p.New(0,
			mpb.SpinnerStyle().PositionLeft(),
			mpb.PrependDecorators(decor.Name(label)),
			mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_GO)),
		)
		return &Bar{bar: bar}
	}
	bar := r.p.New(total,
		mpb.BarStyle().Filler("#").Padding(" "),
		mpb.PrependDecorators(decor.Name(label, decor.WCSyncSpaceR)),
		mpb.AppendDecorators(
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			decor.OnComplete(decor.EwmaETA(decor.ET_STYLE_GO, 30), "done"),
		),
	)
	return &Bar{bar: bar}
}

// Wait blocks until every bar this Reporter started has finished
// rendering, so a final summary line prints cleanly below them.
func (r *Reporter) Wait() {
	if r.p != nil {
		r.p.Wait()
	}
}

// Bar is one phase's progress indicator. A nil-backed Bar (quiet mode,
// or a non-interactive stream) accepts every call as a no-op.
type Bar struct {
	bar *mpb.Bar
}

func (b *Bar) Increment() {
	if b.bar != nil {
		b.bar.Increment()
	}
}

func (b *Bar) SetTotal(total int64) {
	if b.bar != nil {
		b.bar.SetTotal(total, false)
	}
}

func (b *Bar) Abort() {
	if b.bar != nil {
		b.bar.Abort(true)
	}
}

func (b *Bar) Done() {
	if b.bar != nil {
		b.bar.SetTotal(-1, true)
	}
}
