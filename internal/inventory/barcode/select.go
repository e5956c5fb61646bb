package barcode

import (
	"io"

	"github.com/inventorytracker/inventory-tracker/pkg/config"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

// Select picks the capture mechanism once at startup: the configured decoder
// command when it is installed, else manual entry when enabled, else Unavailable.
func Select(cfg config.ScannerConfig, in io.Reader, out io.Writer, log *logger.Logger) Capturer {
	if cfg.Command != "" {
		c, err := NewCommandCapturer(cfg.Command, cfg.Args, cfg.Timeout, log)
		if err == nil {
			log.Info().Str("capturer", c.Name()).Msg("barcode capture ready")
			return c
		}
		log.Warn().Err(err).Str("command", cfg.Command).Msg("barcode decoder not available")
	}

	if cfg.ManualFallback {
		log.Info().Msg("barcode capture falls back to manual entry")
		return NewManualCapturer(in, out)
	}

	log.Warn().Msg("no barcode capture mechanism")
	return Unavailable{}
}
