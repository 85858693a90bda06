package main

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"heicbatch/internal/batch"
)

// progressReporter mirrors batch snapshots onto a terminal progress bar.
// A reporter built for a non-terminal writer ignores every snapshot.
type progressReporter struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	max  int
	done int
}

func newProgressReporter(w io.Writer, description string) *progressReporter {
	if !isTerminal(w) {
		return &progressReporter{}
	}
	bar := progressbar.NewOptions(1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
	return &progressReporter{bar: bar, max: 1}
}

func (p *progressReporter) observe(snap batch.Snapshot) {
	if p == nil || p.bar == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if total := snap.Summary.Total; total > 0 && total != p.max {
		p.bar.ChangeMax(total)
		p.max = total
	}
	if done := snap.Summary.Done(); done > p.done {
		p.done = done
		_ = p.bar.Set(done)
	}
}

func (p *progressReporter) finish() {
	if p == nil || p.bar == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}
