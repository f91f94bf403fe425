package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/quill/pkg/cryptox"
)

// InitSealer builds the sealer for tokens at rest.
//
// With a configured secret, sealed sessions survive restarts. Without one a
// random key is generated, and every stored session reads as logged out
// after a restart.
func InitSealer(cfg Config, logger *slog.Logger) (*cryptox.Sealer, error) {
	if cfg.SessionSecret != "" {
		sealer, err := cryptox.NewSealer([]byte(cfg.SessionSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to derive session key: %w", err)
		}
		logger.Info("session sealing key derived from configured secret")
		return sealer, nil
	}

	sealer, err := cryptox.NewEphemeralSealer()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	if cfg.Env != "dev" {
		logger.Warn("WEB_SESSION_SECRET is not set; sessions will not survive a restart")
	} else {
		logger.Info("using ephemeral session sealing key")
	}
	return sealer, nil
}
