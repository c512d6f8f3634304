package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvPrecedence(t *testing.T) {
	Env = map[string]string{"BRIDGE_PLATFORM": "ios"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("BRIDGE_PLATFORM", "android")
	t.Setenv("APP_PORT", "9000")

	assert.Equal(t, "ios", GetEnv("BRIDGE_PLATFORM", "android"))
	assert.Equal(t, "9000", GetEnv("APP_PORT", "4000"))
	assert.Equal(t, "fallback", GetEnv("PAYWALLBRIDGE_UNSET_KEY", "fallback"))
}

func TestSetupEnvFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		Env = nil
	})

	SetupEnvFile()
	assert.NotNil(t, Env, "missing .env is not fatal")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_ENV=dev\n"), 0o600))
	SetupEnvFile()
	assert.True(t, IsDev())
}
