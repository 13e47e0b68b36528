// Package batch walks a list of images through pull, presence check, and
// scan, one image at a time. A failure on one image never stops the
// batch; it is recorded in the outcome and the walk continues.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fleetscan/fleetscan/pkg/progress"
)

// Status classifies what happened to one image.
type Status string

const (
	StatusScanned        Status = "scanned"
	StatusSkippedMissing Status = "skipped-missing"
	StatusFailed         Status = "failed"
)

// Runtime is the container runtime surface the pipeline needs.
type Runtime interface {
	Pull(ctx context.Context, image string) error
	Exists(ctx context.Context, image string) bool
}

// Scanner produces a report file for one image.
type Scanner interface {
	Scan(ctx context.Context, image, reportPath string) error
}

// Namer maps an image reference to its report path.
type Namer interface {
	Path(image string) string
}

// Outcome records the result for one image.
type Outcome struct {
	Image  string
	Status Status
	Report string // set when Status is StatusScanned
	Detail string // skip or failure explanation
}

// Pipeline runs the scan workflow over a list of images.
type Pipeline struct {
	Runtime  Runtime
	Scanner  Scanner
	Namer    Namer
	Progress *progress.Tracker
}

// Run processes items in order and returns one Outcome per processed
// item, in the same order. It stops early only when ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, items []string) []Outcome {
	outcomes := make([]Outcome, 0, len(items))
	for _, image := range items {
		if err := ctx.Err(); err != nil {
			slog.Warn("batch interrupted", "remaining", len(items)-len(outcomes), "error", err)
			break
		}
		p.Progress.Describe(fmt.Sprintf("scanning %s", image))
		outcomes = append(outcomes, p.processOne(ctx, image))
		p.Progress.Increment()
	}
	return outcomes
}

// processOne walks a single image through pull, presence check, and scan.
func (p *Pipeline) processOne(ctx context.Context, image string) Outcome {
	fmt.Printf("Pulling image: %s ...\n", image)
	if err := p.Runtime.Pull(ctx, image); err != nil {
		// Pull failures are absorbed; a local copy may still satisfy the
		// presence check below.
		slog.Warn("pull failed", "image", image, "error", err)
	}

	if !p.Runtime.Exists(ctx, image) {
		fmt.Printf("Image %s not found, skipping scan\n", image)
		return Outcome{Image: image, Status: StatusSkippedMissing, Detail: "image not present after pull"}
	}

	reportPath := p.Namer.Path(image)
	fmt.Printf("Scanning image: %s ...\n", image)
	if err := p.Scanner.Scan(ctx, image, reportPath); err != nil {
		slog.Warn("scan failed", "image", image, "error", err)
		return Outcome{Image: image, Status: StatusFailed, Detail: err.Error()}
	}

	return Outcome{Image: image, Status: StatusScanned, Report: reportPath}
}

// Tally counts outcomes by status.
func Tally(outcomes []Outcome) (scanned, skipped, failed int) {
	for _, o := range outcomes {
		switch o.Status {
		case StatusScanned:
			scanned++
		case StatusSkippedMissing:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return scanned, skipped, failed
}
