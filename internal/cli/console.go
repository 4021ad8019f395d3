package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Prefix: cliName,
		Level:  level,
	})
}

// console serializes the writes made to stderr by the logger and
// the progress bar.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

func (c *console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c, format, args...)
}

func (c *console) progress(done, total int) {
	const barSize = 40

	progress := 1.0
	if total > 0 {
		progress = float64(done) / float64(total)
	}
	hashes := int(float64(barSize) * progress)
	dashes := barSize - hashes
	barStr := strings.Repeat("#", hashes) + strings.Repeat("-", dashes)
	c.printf("Progress: [%s] %d/%d %.2f%%\r", barStr, done, total, progress*100)
}
