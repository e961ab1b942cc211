package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFileOrFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Set("datadir", t.TempDir()))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, ":5690", cfg.ListenAddress)
	assert.Equal(t, uint16(5690), cfg.DiscoveryPort)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatTimeout)
}

func TestLoadReadsYAMLFileFromDataDir(t *testing.T) {
	dir := t.TempDir()
	yaml := "listen_address: \":9999\"\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "traintastic.yaml"), []byte(yaml), 0644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Set("datadir", dir))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestExplicitFlagOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "listen_address: \":9999\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "traintastic.yaml"), []byte(yaml), 0644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Set("datadir", dir))
	require.NoError(t, fs.Set("listen-address", ":1111"))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, ":1111", cfg.ListenAddress)
}

func TestLocaleEnvVarOverridesConfig(t *testing.T) {
	t.Setenv("TRAINTASTIC_LOCALE_PATH", "/opt/traintastic/locale")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Set("datadir", t.TempDir()))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "/opt/traintastic/locale", cfg.LocalePath)
}
