// Package registry maps reader names to their openers.
package registry

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Shamus03/go-rawdump/rawfile"
	"github.com/Shamus03/go-rawdump/rawfile/msfilereader"
	"github.com/Shamus03/go-rawdump/rawfile/mzml"
)

// Auto selects the reader from the file extension.
const Auto = "auto"

// Reader is the explicit table of reader implementations.
var Reader = map[string]rawfile.Opener{
	"msfilereader": msfilereader.Open,
	"mzml":         mzml.Open,
}

// ErrUnknownReader is returned for a name missing from Reader.
var ErrUnknownReader = errors.New("unknown reader")

// Names lists the registered reader names in order.
func Names() []string {
	names := make([]string, 0, len(Reader))
	for name := range Reader {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect picks a reader name for path: .mzML files go to the mzML
// reader, everything else to MSFileReader.
func Detect(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mzml") {
		return "mzml"
	}
	return "msfilereader"
}

// Lookup resolves name, with Auto resolved against path, to its opener.
func Lookup(name, path string) (string, rawfile.Opener, error) {
	if name == "" || name == Auto {
		name = Detect(path)
	}
	open, ok := Reader[name]
	if !ok {
		return name, nil, errors.Wrapf(ErrUnknownReader, "%q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return name, open, nil
}
