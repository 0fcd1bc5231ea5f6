package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geohazard-map-service/internal/config"
)

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level string
		debug bool
		warn  bool
	}{
		{level: "debug", debug: true, warn: true},
		{level: "info", warn: true},
		{level: "error"},
		{level: "verbose", warn: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, logger)
			assert.Same(t, logger, slog.Default())
			assert.Equal(t, tt.debug, logger.Enabled(context.Background(), slog.LevelDebug))
			assert.Equal(t, tt.warn, logger.Enabled(context.Background(), slog.LevelWarn))
		})
	}
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()

	m.MessagesConsumed.Add(3)
	m.RenderErrors.WithLabelValues("projection").Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.MessagesConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenderErrors.WithLabelValues("projection")))
}
