package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUICommand(t *testing.T) {
	assert.Equal(t, "tui", tuiCmd.Use)
	assert.NotNil(t, tuiCmd.Flags().Lookup("top-k"))
	assert.NotNil(t, tuiCmd.Flags().Lookup("watch"))

	t.Run("requires retrieval service", func(t *testing.T) {
		SetServices(nil)

		_, err := execute(t, "tui")
		require.Error(t, err)
	})
}

func TestMCPServeCommand(t *testing.T) {
	assert.Equal(t, "serve", mcpServeCmd.Use)
	assert.NotNil(t, mcpServeCmd.Flags().Lookup("port"))
	assert.NotNil(t, mcpServeCmd.Flags().Lookup("watch"))

	t.Run("requires retrieval service", func(t *testing.T) {
		SetServices(nil)

		_, err := execute(t, "mcp", "serve")
		require.Error(t, err)
	})
}
