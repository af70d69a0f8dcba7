package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

func TestLabelCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range labelCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "create", "add", "remove", "rename", "destroy"}, names)
}

func TestLabelListCmd(t *testing.T) {
	t.Run("lists labels", func(t *testing.T) {
		setupTestServices(t)

		out, err := execute(t, "label", "list")

		require.NoError(t, err)
		assert.Contains(t, out, "Finance")
		assert.Contains(t, out, "#00ff00")
		assert.Contains(t, out, "Tax")
		assert.Contains(t, out, "Total: 2 labels")
	})

	t.Run("no labels", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.labels.labels = nil

		out, err := execute(t, "label", "list")

		require.NoError(t, err)
		assert.Contains(t, out, "No labels.")
	})
}

func TestLabelCreateCmd(t *testing.T) {
	t.Run("creates and attaches", func(t *testing.T) {
		ts := setupTestServices(t)

		out, err := execute(t, "label", "create", "Water", "#0000ff", "20240315_0930_00")

		require.NoError(t, err)
		assert.Equal(t, "Water", ts.labels.created.Name)
		assert.Equal(t, "#0000ff", ts.labels.created.ColorString())
		require.NotNil(t, ts.labels.createdOn)
		assert.Equal(t, "20240315_0930_00", ts.labels.createdOn.ID())
		assert.Contains(t, out, "Label")
		assert.Contains(t, out, "created.")
	})

	t.Run("without a document", func(t *testing.T) {
		ts := setupTestServices(t)

		_, err := execute(t, "label", "create", "Water", "#0000ff")

		require.NoError(t, err)
		assert.Nil(t, ts.labels.createdOn)
	})

	t.Run("invalid colour", func(t *testing.T) {
		setupTestServices(t)

		_, err := execute(t, "label", "create", "Water", "blue")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown document", func(t *testing.T) {
		setupTestServices(t)

		_, err := execute(t, "label", "create", "Water", "#0000ff", "20000101_0000_00")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("existing label", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.labels.err = domain.ErrLabelExists

		_, err := execute(t, "label", "create", "Finance", "#00ff00")

		assert.ErrorIs(t, err, domain.ErrLabelExists)
	})
}

func TestLabelAddRemoveCmd(t *testing.T) {
	t.Run("add matches name without case", func(t *testing.T) {
		ts := setupTestServices(t)

		out, err := execute(t, "label", "add", "20230110_0800_00", "tax")

		require.NoError(t, err)
		assert.Equal(t, "Tax", ts.labels.added.Name)
		assert.Contains(t, out, "20230110_0800_00 labelled")
	})

	t.Run("add unknown label", func(t *testing.T) {
		setupTestServices(t)

		_, err := execute(t, "label", "add", "20230110_0800_00", "Water")

		assert.ErrorIs(t, err, domain.ErrLabelNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		ts := setupTestServices(t)

		out, err := execute(t, "label", "remove", "20240315_0930_00", "Finance")

		require.NoError(t, err)
		assert.Equal(t, "Finance", ts.labels.removed.Name)
		assert.Contains(t, out, "no longer labelled")
	})

	t.Run("remove on unknown document", func(t *testing.T) {
		setupTestServices(t)

		_, err := execute(t, "label", "remove", "20000101_0000_00", "Finance")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLabelRenameCmd(t *testing.T) {
	t.Run("keeps colour by default", func(t *testing.T) {
		ts := setupTestServices(t)

		out, err := execute(t, "label", "rename", "Finance", "Accounting")

		require.NoError(t, err)
		assert.Equal(t, "Finance", ts.labels.renamed[0].Name)
		assert.Equal(t, "Accounting", ts.labels.renamed[1].Name)
		assert.Equal(t, "#00ff00", ts.labels.renamed[1].ColorString())
		assert.Contains(t, out, "Label Finance is now")
	})

	t.Run("recolour", func(t *testing.T) {
		ts := setupTestServices(t)

		_, err := execute(t, "label", "rename", "--color", "#123456", "Finance", "Finance")

		require.NoError(t, err)
		assert.Equal(t, "#123456", ts.labels.renamed[1].ColorString())
	})

	t.Run("service failure", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.labels.err = errors.New("index locked")

		_, err := execute(t, "label", "rename", "Finance", "Accounting")

		assert.EqualError(t, err, "index locked")
	})
}

func TestLabelDestroyCmd(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "label", "destroy", "Tax")

	require.NoError(t, err)
	assert.Equal(t, "Tax", ts.labels.destroyed.Name)
	assert.Contains(t, out, "Label Tax destroyed.")
}

func TestLabelCmd_ServiceNotConfigured(t *testing.T) {
	setupTestServices(t)
	labelService = nil

	for _, args := range [][]string{
		{"label", "list"},
		{"label", "create", "Water", "#0000ff"},
		{"label", "add", "20240315_0930_00", "Tax"},
		{"label", "rename", "Tax", "Taxes"},
		{"label", "destroy", "Tax"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "label service not configured")
	}
}

func TestGuessCmd(t *testing.T) {
	t.Run("prints guessed labels", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.documents.guess = []domain.Label{tax}

		out, err := execute(t, "guess", "20230110_0800_00")

		require.NoError(t, err)
		assert.Contains(t, out, "Tax")
	})

	t.Run("nothing guessed", func(t *testing.T) {
		setupTestServices(t)

		out, err := execute(t, "guess", "20230110_0800_00")

		require.NoError(t, err)
		assert.Contains(t, out, "No label guessed.")
	})

	t.Run("unknown document", func(t *testing.T) {
		setupTestServices(t)

		_, err := execute(t, "guess", "20000101_0000_00")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
