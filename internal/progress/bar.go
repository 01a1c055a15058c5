// Package progress renders sweep progress on the operator's terminal.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

const description = "Processing Endpoints"

// Bar adapts a terminal progress bar to the sweep's progress callback. A nil
// Bar is valid and renders nothing.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New creates a bar sized for total descriptors writing to w.
func New(w io.Writer, total int) *Bar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetItsString("endpoint"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	return &Bar{bar: bar}
}

// Observe moves the bar to done. total is fixed at construction.
func (b *Bar) Observe(done, _ int) {
	if b == nil {
		return
	}
	_ = b.bar.Set(done)
}

// Close completes the bar so the next line of output starts cleanly.
func (b *Bar) Close() error {
	if b == nil {
		return nil
	}
	return b.bar.Finish()
}
