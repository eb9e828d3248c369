package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCmd_Flags(t *testing.T) {
	t.Run("language filter requires hydration", func(t *testing.T) {
		defer func() {
			fetchLanguage = ""
			fetchHydrate = false
		}()

		_, err := execute(t, "fetch", "--language", "C")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "--hydrate")
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		_, err := execute(t, "fetch", "unexpected")

		assert.Error(t, err)
	})
}

func TestResolveToken(t *testing.T) {
	t.Run("flag wins over everything", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")

		assert.Equal(t, "flag-token", resolveToken("flag-token", "cfg-token"))
	})

	t.Run("environment wins over config", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")

		assert.Equal(t, "env-token", resolveToken("", "cfg-token"))
	})

	t.Run("config is the last fallback", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")

		assert.Equal(t, "cfg-token", resolveToken("", "cfg-token"))
	})
}
