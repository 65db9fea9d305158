// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

// Package progress renders a per-entry progress bar on terminals.
package progress

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// descWidth is the fixed column width for the current entry name.
const descWidth = 24

// Bar counts processed entries. A disabled Bar is a no-op.
type Bar struct {
	container *mpb.Progress
	bar       *mpb.Bar
	current   atomic.Value
}

// New creates a bar for total entries labeled with action.
// It renders only when enabled and stderr is a terminal.
func New(action string, total int, enabled bool) *Bar {
	if !enabled || total <= 0 || !IsTerminal(os.Stderr) {
		return &Bar{}
	}

	return newBar(os.Stderr, action, total)
}

// newBar builds a rendering bar on w.
func newBar(w io.Writer, action string, total int) *Bar {
	p := &Bar{}
	p.current.Store("")

	p.container = mpb.New(
		mpb.WithOutput(w),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(action, decor.WC{W: len(action) + 1, C: decor.DindentRight}),
			decor.Any(func(decor.Statistics) string {
				name, _ := p.current.Load().(string)
				if len(name) > descWidth {
					return name[:descWidth-2] + ".."
				}
				return name
			}, decor.WC{W: descWidth, C: decor.DindentRight}),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	return p
}

// Increment records one finished entry.
func (p *Bar) Increment(name string) {
	if p == nil || p.bar == nil {
		return
	}

	p.current.Store(name)
	p.bar.Increment()
}

// Finish completes the bar and waits for the final render.
func (p *Bar) Finish() {
	if p == nil || p.container == nil {
		return
	}

	if !p.bar.Completed() {
		p.bar.Abort(false)
	}

	p.container.Wait()
}

// Enabled reports whether the bar renders.
func (p *Bar) Enabled() bool {
	return p != nil && p.bar != nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits int
}
