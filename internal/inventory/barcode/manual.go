package barcode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/inventorytracker/inventory-tracker/pkg/errors"
)

// ManualCapturer asks the user to type the code. It is the fallback when no
// decoder command is available.
type ManualCapturer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewManualCapturer reads codes from in. Passing the *bufio.Reader the caller
// already reads from keeps both on the same buffer.
func NewManualCapturer(in io.Reader, out io.Writer) *ManualCapturer {
	return &ManualCapturer{in: bufio.NewReader(in), out: out}
}

func (m *ManualCapturer) Name() string { return "manual" }

// Capture reads one line. An empty line or end of input aborts.
func (m *ManualCapturer) Capture(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrCaptureAborted, err)
	}

	fmt.Fprint(m.out, "Scan or type UPC (blank to cancel): ")
	line, err := m.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("%w: %v", errors.ErrCaptureAborted, err)
	}
	if strings.TrimSpace(line) == "" {
		return "", fmt.Errorf("%w: no code entered", errors.ErrCaptureAborted)
	}
	return NormalizeUPC(line)
}
