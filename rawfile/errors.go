package rawfile

import "github.com/pkg/errors"

var (
	// ErrUnsupported: the reader cannot run on this platform.
	ErrUnsupported = errors.New("reader not supported on this platform")
	// ErrNoController: the requested controller does not exist in the file.
	ErrNoController = errors.New("no such controller")
	// ErrNoScan: scan number outside the file's range.
	ErrNoScan = errors.New("no such scan")
	// ErrNoFilter: the scan carries no filter line.
	ErrNoFilter = errors.New("no filter line")
	// ErrNoTrailer: the scan has no value for the trailer label.
	ErrNoTrailer = errors.New("no such trailer value")
	// ErrClosed: the reader was used after Close.
	ErrClosed = errors.New("reader closed")
	// ErrFormat: the file content does not decode.
	ErrFormat = errors.New("malformed file")
)
