//go:build !unix

package meter

import (
	"io"
	"os"
)

func openDevice(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, defaultFilePerm)
}
