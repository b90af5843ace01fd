package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"eventcertificates/internal/domain"
)

type inkscapeConverter struct {
	bin     string
	timeout time.Duration
}

// NewInkscapeConverter returns a DocumentConverter that runs the Inkscape CLI, exporting the whole page.
// A zero timeout leaves the invocation bounded only by the caller's context.
func NewInkscapeConverter(bin string, timeout time.Duration) domain.DocumentConverter {
	if bin == "" {
		bin = "inkscape"
	}
	return &inkscapeConverter{bin: bin, timeout: timeout}
}

func (c *inkscapeConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.bin, inputPath, "--export-area-page", "--export-filename="+outputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outputPath)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("inkscape timed out after %s: %w", c.timeout, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("inkscape: %w: %s", err, msg)
		}
		return fmt.Errorf("inkscape: %w", err)
	}

	// Inkscape can exit 0 without writing anything for input it cannot parse.
	if fi, err := os.Stat(outputPath); err != nil || fi.Size() == 0 {
		_ = os.Remove(outputPath)
		return fmt.Errorf("inkscape produced no output for %s", inputPath)
	}
	return nil
}
