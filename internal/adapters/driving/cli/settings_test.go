package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

func TestSettingsCmd_Show(t *testing.T) {
	for _, args := range [][]string{{"settings"}, {"settings", "show"}} {
		t.Run(args[len(args)-1], func(t *testing.T) {
			setupTestServices(t)

			out, err := execute(t, args...)

			require.NoError(t, err)
			assert.Contains(t, out, "config.toml")
			assert.Contains(t, out, "workdir")
			assert.Contains(t, out, "/home/user/.sercha-docs/papers")
			assert.Contains(t, out, "search.default_limit")
			assert.Contains(t, out, "50")
		})
	}
}

func TestSettingsCmd_Set(t *testing.T) {
	t.Run("sets value", func(t *testing.T) {
		ts := setupTestServices(t)

		out, err := execute(t, "settings", "set", "search.default_limit", "20")

		require.NoError(t, err)
		assert.Equal(t, [2]string{"search.default_limit", "20"}, ts.config.set)
		assert.Contains(t, out, "search.default_limit set to 20.")
	})

	t.Run("invalid value", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.config.err = domain.ErrInvalidInput

		_, err := execute(t, "settings", "set", "verbose", "loud")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("requires key and value", func(t *testing.T) {
		setupTestServices(t)

		_, err := execute(t, "settings", "set", "verbose")

		assert.Error(t, err)
	})
}

func TestSettingsCmd_ServiceNotConfigured(t *testing.T) {
	setupTestServices(t)
	settingsService = nil

	_, err := execute(t, "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}
