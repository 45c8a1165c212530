package commands

import (
	"sync"

	"github.com/pterm/pterm"

	"github.com/teranos/qntx-signal/pulse"
)

// CLIProgress shows day progress in the terminal using pterm.
// Workers report concurrently, so updates are serialised.
type CLIProgress struct {
	mu  sync.Mutex
	bar *pterm.ProgressbarPrinter
}

// NewCLIProgress starts a progress bar over days.
func NewCLIProgress(days int) *CLIProgress {
	p := &CLIProgress{}
	if days == 0 {
		return p
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(days).
		WithTitle("Days").
		WithRemoveWhenDone(true).
		Start()
	if err == nil {
		p.bar = bar
	}
	return p
}

// JobStarted is a no-op; days are counted when they finish.
func (p *CLIProgress) JobStarted(job *pulse.Job) {}

// JobFinished advances the bar and reports failed days.
func (p *CLIProgress) JobFinished(job *pulse.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if job.Status == pulse.JobStatusFailed {
		pterm.Error.Printf("Day %s failed: %s\n", job.ID, job.Error)
	}
	if p.bar != nil {
		p.bar.UpdateTitle("Day " + job.ID)
		p.bar.Increment()
	}
}

// Stop removes the bar.
func (p *CLIProgress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}
