package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb"
)

// refreshRate is how often the bar is redrawn
const refreshRate = 250 * time.Millisecond

// Tracker counts content bytes streamed into an archive and, when enabled,
// renders them as a progress bar.
type Tracker struct {
	processed atomic.Uint64
	bar       *pb.ProgressBar
}

// New creates a tracker expecting total bytes. A disabled tracker still
// counts bytes but never writes to out.
func New(total int64, out io.Writer, enabled bool) *Tracker {
	t := &Tracker{}
	if !enabled {
		return t
	}

	bar := pb.New64(total)
	bar.Output = out
	bar.ShowSpeed = true
	bar.SetUnits(pb.U_BYTES)
	bar.SetRefreshRate(refreshRate)
	t.bar = bar
	return t
}

// Start begins rendering
func (t *Tracker) Start() {
	if t.bar != nil {
		t.bar.Start()
	}
}

// Add records n processed bytes
func (t *Tracker) Add(n int) {
	if n <= 0 {
		return
	}
	t.processed.Add(uint64(n))
	if t.bar != nil {
		t.bar.Add(n)
	}
}

// Finish stops rendering and prints the final state of the bar
func (t *Tracker) Finish() {
	if t.bar != nil {
		t.bar.Finish()
	}
}

// Processed returns the number of bytes recorded so far
func (t *Tracker) Processed() uint64 {
	return t.processed.Load()
}

// TotalSize sums the sizes of the files named by paths relative to root.
// Files which cannot be inspected are skipped: the encoder reports them.
func TotalSize(root string, paths []string) int64 {
	var total int64
	for _, p := range paths {
		info, err := os.Stat(root + "/" + p)
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total
}

// FormatSize returns a human-readable size string
func FormatSize(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
