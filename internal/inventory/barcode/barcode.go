package barcode

import (
	"context"
	"fmt"
	"strings"

	"github.com/inventorytracker/inventory-tracker/pkg/errors"
)

// Capturer produces one UPC from some capture mechanism
type Capturer interface {
	Name() string
	Capture(ctx context.Context) (string, error)
}

// validLengths are the UPC-E/EAN-8, UPC-A, EAN-13 and GTIN-14 lengths
var validLengths = map[int]bool{8: true, 12: true, 13: true, 14: true}

// NormalizeUPC trims a decoded value and checks it is a plain UPC/EAN code
func NormalizeUPC(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", fmt.Errorf("%w: no code read", errors.ErrCaptureAborted)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q is not a UPC/EAN code", errors.ErrCaptureAborted, code)
		}
	}
	if !validLengths[len(code)] {
		return "", fmt.Errorf("%w: %q has %d digits, expected 8, 12, 13 or 14", errors.ErrCaptureAborted, code, len(code))
	}
	return code, nil
}

// Unavailable is selected when no capture mechanism is present
type Unavailable struct{}

func (Unavailable) Name() string { return "unavailable" }

func (Unavailable) Capture(ctx context.Context) (string, error) {
	return "", errors.ErrCaptureUnavailable
}
