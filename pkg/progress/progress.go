// Package progress renders a terminal progress bar for batch runs. The
// bar writes to stderr so summaries on stdout stay clean.
package progress

import (
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a terminal progress bar. A nil Tracker is valid and does
// nothing, so callers never branch on quiet mode.
type Tracker struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewTracker returns a Tracker rendering total steps.
func NewTracker(total int, description string) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar}
}

// Increment advances the bar by one step.
func (t *Tracker) Increment() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.bar.Add(1)
}

// Describe replaces the bar's description with the current work item.
func (t *Tracker) Describe(description string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bar.Describe(description)
}

// Finish completes and clears the bar.
func (t *Tracker) Finish() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.bar.Finish()
}
