package config

import (
	"os"
	"time"

	"codeberg.org/mutker/smartpowerctl/internal/errors"
	"codeberg.org/mutker/smartpowerctl/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Device    string        `mapstructure:"device"`
	LogLevel  string        `mapstructure:"log_level"`
	Duration  time.Duration `mapstructure:"duration"`
	Journal   bool          `mapstructure:"journal"`
	JournalDB string        `mapstructure:"journal_db"`
	Lock      bool          `mapstructure:"lock"`
	LockDir   string        `mapstructure:"lock_dir"`
}

// RegisterFlags defines the configuration flags on flags
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP(flagNames[keyDevice], "d", DefaultDevice, "Meter serial device")
	flags.String(flagNames[keyLogLevel], DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Duration(flagNames[keyDuration], DefaultDuration, "Measurement window for the sample command")
	flags.Bool(flagNames[keyJournal], false, "Record meter commands in the journal database")
	flags.String(flagNames[keyJournalDB], DefaultJournalDB, "Path to the journal database")
	flags.Bool(flagNames[keyLock], true, "Hold a lock file on the device while it is in use")
	flags.String(flagNames[keyLockDir], os.TempDir(), "Directory for device lock files")
}

// Load reads the configuration from defaults, the TOML file, the
// environment and flags, in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	errFactory := errors.New()
	v := viper.New()

	v.SetDefault(keyDevice, DefaultDevice)
	v.SetDefault(keyLogLevel, DefaultLogLevel)
	v.SetDefault(keyDuration, DefaultDuration)
	v.SetDefault(keyJournal, false)
	v.SetDefault(keyJournalDB, DefaultJournalDB)
	v.SetDefault(keyLock, true)
	v.SetDefault(keyLockDir, os.TempDir())

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagNames {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper) error {
	errFactory := errors.New()

	if path := os.Getenv(ConfigEnv); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(configType)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Device == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "device must not be empty")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Duration <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Duration.String())
	}
	if c.Journal && c.JournalDB == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "journal_db must not be empty")
	}
	if c.Lock && c.LockDir == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "lock_dir must not be empty")
	}

	return nil
}
