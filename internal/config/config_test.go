package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/smartpowerctl/internal/config"
	"codeberg.org/mutker/smartpowerctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "smartpowerctl.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	t.Setenv(config.ConfigEnv, configPath)
}

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))

	return flags
}

func TestLoad(t *testing.T) {
	writeConfig(t, `
device = "/dev/ttyACM1"
log_level = "debug"
duration = "10s"
journal = true
journal_db = "/path/to/journal.db"
lock = false
`)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM1", cfg.Device)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Duration)
	assert.True(t, cfg.Journal)
	assert.Equal(t, "/path/to/journal.db", cfg.JournalDB)
	assert.False(t, cfg.Lock)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(config.ConfigEnv, "")

	cfg, err := config.Load(parseFlags(t))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultDevice, cfg.Device)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultDuration, cfg.Duration)
	assert.False(t, cfg.Journal)
	assert.Equal(t, config.DefaultJournalDB, cfg.JournalDB)
	assert.True(t, cfg.Lock)
	assert.Equal(t, os.TempDir(), cfg.LockDir)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	writeConfig(t, `
This is not a valid TOML file
`)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv(config.ConfigEnv, filepath.Join(t.TempDir(), "absent.toml"))

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	writeConfig(t, `
log_level = "invalid"
`)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidDuration(t *testing.T) {
	t.Setenv(config.ConfigEnv, "")

	_, err := config.Load(parseFlags(t, "--duration", "0s"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
}

func TestEmptyDevice(t *testing.T) {
	t.Setenv(config.ConfigEnv, "")

	_, err := config.Load(parseFlags(t, "--device", ""))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}

func TestEnvironmentOverridesFile(t *testing.T) {
	writeConfig(t, `
device = "/dev/ttyACM1"
`)
	t.Setenv("SMARTPOWERCTL_DEVICE", "/dev/ttyUSB3")

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", cfg.Device)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	writeConfig(t, `
log_level = "error"
`)
	t.Setenv("SMARTPOWERCTL_DEVICE", "/dev/ttyUSB3")

	cfg, err := config.Load(parseFlags(t, "-d", "/dev/ttyUSB7", "--log-level", "warning", "--journal"))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB7", cfg.Device)
	assert.Equal(t, "warning", cfg.LogLevel)
	assert.True(t, cfg.Journal)
}

func TestUnchangedFlagsKeepFileValues(t *testing.T) {
	writeConfig(t, `
device = "/dev/ttyACM1"
duration = "1m"
`)

	cfg, err := config.Load(parseFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM1", cfg.Device)
	assert.Equal(t, time.Minute, cfg.Duration)
}
