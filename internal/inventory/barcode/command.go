package barcode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

const defaultCommandTimeout = 30 * time.Second

// exitPermissionDenied is the shell convention for "found but not executable"
const exitPermissionDenied = 126

// CommandCapturer runs an external decoder (for example zbarcam --oneshot --raw)
// and reads the code from the first non-empty line of its stdout.
type CommandCapturer struct {
	path    string
	args    []string
	timeout time.Duration
	logger  *logger.Logger
}

// NewCommandCapturer resolves command on PATH. A missing binary yields
// errors.ErrCaptureUnavailable.
func NewCommandCapturer(command string, args []string, timeout time.Duration, log *logger.Logger) (*CommandCapturer, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found: %v", errors.ErrCaptureUnavailable, command, err)
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &CommandCapturer{
		path:    path,
		args:    args,
		timeout: timeout,
		logger:  log.WithComponent("barcode"),
	}, nil
}

func (c *CommandCapturer) Name() string { return "command:" + c.path }

// Capture runs the decoder once
func (c *CommandCapturer) Capture(ctx context.Context) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, c.path, c.args...)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return "", c.classify(timeoutCtx, err, stderr.String())
	}

	code := firstLine(output)
	c.logger.Debug().Str("code", code).Msg("decoder returned")
	return NormalizeUPC(code)
}

func (c *CommandCapturer) classify(ctx context.Context, err error, stderr string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.logger.Warn().Err(ctxErr).Msg("barcode capture stopped")
		return fmt.Errorf("%w: %v", errors.ErrCaptureAborted, ctxErr)
	}
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %v", errors.ErrCaptureDenied, err)
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", errors.ErrCaptureUnavailable, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr)
		c.logger.Error().Int("exit_code", exitErr.ExitCode()).Str("stderr", msg).Msg("decoder failed")
		if exitErr.ExitCode() == exitPermissionDenied || strings.Contains(strings.ToLower(msg), "permission denied") {
			return fmt.Errorf("%w: %s", errors.ErrCaptureDenied, msg)
		}
		if msg == "" {
			msg = exitErr.Error()
		}
		return fmt.Errorf("%w: %s", errors.ErrCaptureAborted, msg)
	}
	return fmt.Errorf("%w: %v", errors.ErrCaptureAborted, err)
}

func firstLine(output []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
