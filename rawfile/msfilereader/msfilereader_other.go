//go:build !windows

package msfilereader

import (
	"github.com/pkg/errors"

	"github.com/Shamus03/go-rawdump/rawfile"
)

// Open always fails: MSFileReader is a Windows COM library.
func Open(path string) (rawfile.Reader, error) {
	return nil, errors.Wrapf(rawfile.ErrUnsupported, "%s: MSFileReader needs Windows", path)
}
