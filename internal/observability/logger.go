package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gogpu/gg"

	"github.com/couchcryptid/geohazard-map-service/internal/config"
)

// NewLogger builds the service logger from LOG_LEVEL and LOG_FORMAT, installs
// it as the slog default and routes the rendering library's diagnostics
// through it.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	gg.SetLogger(logger.With("component", "gg"))
	return logger
}
