// Package rawfiletest provides an in-memory rawfile.Reader for tests.
package rawfiletest

import (
	"github.com/pkg/errors"

	"github.com/Shamus03/go-rawdump/rawfile"
)

// Scan is one fake scan. A nil Filter reports rawfile.ErrNoFilter.
type Scan struct {
	Filter    *string
	MSOrder   int
	Header    rawfile.ScanHeader
	Trailer   map[string]float64
	MZ        []float64
	Intensity []float64
}

// File is a fake instrument file whose scans are numbered from First.
// Err* fields, when set, are returned by the matching call.
type File struct {
	First int
	Scans []Scan

	// Total overrides len(Scans) as the reported spectrum count when non-zero.
	Total int

	ErrController error
	ErrMassList   error

	Closed     bool
	Controller bool
	Requests   []rawfile.MassListOptions
}

// Str returns a pointer to s, for Scan.Filter.
func Str(s string) *string { return &s }

func (f *File) scan(n int) (*Scan, error) {
	if f.Closed {
		return nil, rawfile.ErrClosed
	}
	if !f.Controller {
		return nil, rawfile.ErrNoController
	}
	i := n - f.First
	if i < 0 || i >= len(f.Scans) {
		return nil, errors.Wrapf(rawfile.ErrNoScan, "scan %d", n)
	}
	return &f.Scans[i], nil
}

func (f *File) SetCurrentController(t rawfile.ControllerType, number int) error {
	if f.ErrController != nil {
		return f.ErrController
	}
	if t != rawfile.MassSpecController || number != 1 {
		return rawfile.ErrNoController
	}
	f.Controller = true
	return nil
}

func (f *File) NumSpectra() (int, error) {
	if f.Total != 0 {
		return f.Total, nil
	}
	return len(f.Scans), nil
}

func (f *File) FirstSpectrumNumber() (int, error) { return f.First, nil }

func (f *File) LastSpectrumNumber() (int, error) { return f.First + len(f.Scans) - 1, nil }

func (f *File) Filter(n int) (string, error) {
	s, err := f.scan(n)
	if err != nil {
		return "", err
	}
	if s.Filter == nil {
		return "", rawfile.ErrNoFilter
	}
	return *s.Filter, nil
}

func (f *File) MSOrder(n int) (int, error) {
	s, err := f.scan(n)
	if err != nil {
		return 0, err
	}
	return s.MSOrder, nil
}

func (f *File) ScanHeader(n int) (rawfile.ScanHeader, error) {
	s, err := f.scan(n)
	if err != nil {
		return rawfile.ScanHeader{}, err
	}
	h := s.Header
	h.NumPackets = len(s.MZ)
	return h, nil
}

func (f *File) TrailerValue(n int, label string) (float64, error) {
	s, err := f.scan(n)
	if err != nil {
		return 0, err
	}
	v, ok := s.Trailer[label]
	if !ok {
		return 0, rawfile.ErrNoTrailer
	}
	return v, nil
}

func (f *File) MassList(n int, opts rawfile.MassListOptions) (rawfile.MassList, error) {
	s, err := f.scan(n)
	if err != nil {
		return rawfile.MassList{}, err
	}
	f.Requests = append(f.Requests, opts)
	if f.ErrMassList != nil {
		return rawfile.MassList{}, f.ErrMassList
	}
	data := make([]float64, 0, len(s.MZ)*2)
	data = append(data, s.MZ...)
	data = append(data, s.Intensity...)
	return rawfile.MassList{Data: data, Size: len(s.MZ)}, nil
}

func (f *File) Close() error {
	if f.Closed {
		return rawfile.ErrClosed
	}
	f.Closed = true
	return nil
}

// Opener returns a rawfile.Opener that hands out f for any path.
func (f *File) Opener() rawfile.Opener {
	return func(string) (rawfile.Reader, error) { return f, nil }
}
