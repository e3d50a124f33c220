package config

import "time"

const (
	DefaultDevice    = "/dev/ttyUSB0"
	DefaultLogLevel  = "info"
	DefaultDuration  = 3 * time.Second
	DefaultJournalDB = "/var/lib/smartpowerctl/journal.db"

	// ConfigEnv names an explicit configuration file
	ConfigEnv = "SMARTPOWERCTL_CONFIG"

	envPrefix  = "SMARTPOWERCTL"
	configName = "smartpowerctl"
	configType = "toml"
	configDir  = "/etc"
)

// Configuration keys, shared by the TOML file, the environment and flags
const (
	keyDevice    = "device"
	keyLogLevel  = "log_level"
	keyDuration  = "duration"
	keyJournal   = "journal"
	keyJournalDB = "journal_db"
	keyLock      = "lock"
	keyLockDir   = "lock_dir"
)

// flagNames maps configuration keys onto command-line flag names
var flagNames = map[string]string{
	keyDevice:    "device",
	keyLogLevel:  "log-level",
	keyDuration:  "duration",
	keyJournal:   "journal",
	keyJournalDB: "journal-db",
	keyLock:      "lock",
	keyLockDir:   "lock-dir",
}
