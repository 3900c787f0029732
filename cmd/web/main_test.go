package main

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/bacc-research/pkg/config"
)

func TestNewLogger(t *testing.T) {
	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := newLogger(&buf, config.LogConfig{Level: "WARN", Format: "json"})
		require.NoError(t, err)

		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"message":"shown"`)
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})

	t.Run("empty level defaults to info", func(t *testing.T) {
		logger, err := newLogger(&bytes.Buffer{}, config.LogConfig{})
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := newLogger(&bytes.Buffer{}, config.LogConfig{Level: "loud"})
		assert.Error(t, err)
	})
}
