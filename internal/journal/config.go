package journal

import "codeberg.org/mutker/smartpowerctl/internal/errors"

const (
	defaultDirPerm = 0o755
	backupDirName  = "backups"
)

// Config selects the journal database. A disabled journal records nothing.
type Config struct {
	DBPath  string
	Enabled bool
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate DBPath if the journal is enabled
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
