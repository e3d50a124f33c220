// Package lock keeps a pid file per meter device so that only one
// process drives a device at a time.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/smartpowerctl/internal/errors"
)

const (
	filePrefix = "smartpowerctl-"
	fileSuffix = ".pid"
	filePerm   = 0o600
)

// Lock is a held device lock
type Lock struct {
	path string
}

// Path returns the pid file for device inside dir
func Path(dir, device string) string {
	name := strings.Trim(strings.ReplaceAll(filepath.Clean(device), string(filepath.Separator), "_"), "_")
	return filepath.Join(dir, filePrefix+name+fileSuffix)
}

// Acquire writes the current process ID to the pid file of device. A
// file left by a process that is no longer running is replaced.
func Acquire(dir, device string) (*Lock, error) {
	errFactory := errors.New()
	path := Path(dir, device)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(os.Getpid()))
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				os.Remove(path)
				return nil, errFactory.Wrap(errors.ErrInternal, werr)
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, errFactory.Wrap(errors.ErrInternal, err)
		}

		pid, err := readPID(path)
		if err == nil && running(pid) {
			return nil, errFactory.WithData(errors.ErrResourceBusy,
				fmt.Sprintf("%s is in use by process %d", device, pid))
		}

		// Stale or unreadable, take it over
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errFactory.Wrap(errors.ErrInternal, err)
		}
	}

	return nil, errFactory.WithData(errors.ErrResourceBusy, device)
}

// Release removes the pid file
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func (l *Lock) Path() string {
	return l.path
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func running(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
