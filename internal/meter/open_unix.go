//go:build unix

package meter

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// openDevice opens the serial node without making it the controlling terminal
func openDevice(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|unix.O_NOCTTY, defaultFilePerm)
}
