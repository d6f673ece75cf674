//go:build windows

package msfilereader

import (
	"fmt"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"github.com/pkg/errors"

	"github.com/Shamus03/go-rawdump/rawfile"
)

// File is an open RAW file. All calls must come from the goroutine that
// called Open; the COM apartment is bound to its OS thread.
type File struct {
	disp   *ole.IDispatch
	closed bool
}

var _ rawfile.Reader = (*File)(nil)

// statusError is a non-zero, non-failure code from an XRawfile method,
// which MSFileReader uses to report "no data".
type statusError struct {
	method string
	code   int32
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.method, e.code)
}

// Open creates an XRawfile object and opens path with it.
func Open(path string) (rawfile.Reader, error) {
	runtime.LockOSThread()
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		// S_FALSE: already initialized on this thread, still needs a
		// matching CoUninitialize.
		if oe, ok := err.(*ole.OleError); !ok || oe.Code() != 1 {
			runtime.UnlockOSThread()
			return nil, errors.Wrap(err, "CoInitializeEx")
		}
	}

	unk, err := oleutil.CreateObject(ProgID)
	if err != nil {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
		return nil, errors.Wrapf(err, "create %s (is MSFileReader installed?)", ProgID)
	}
	disp, err := unk.QueryInterface(ole.IID_IDispatch)
	unk.Release()
	if err != nil {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
		return nil, errors.Wrap(err, "query IDispatch")
	}

	f := &File{disp: disp}
	if err := f.call("Open", path); err != nil {
		f.release()
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return f, nil
}

func (f *File) call(method string, args ...interface{}) error {
	if f.closed {
		return rawfile.ErrClosed
	}
	res, err := oleutil.CallMethod(f.disp, method, args...)
	if err != nil {
		if oe, ok := err.(*ole.OleError); ok && int32(oe.Code()) > 0 {
			return &statusError{method: method, code: int32(oe.Code())}
		}
		return errors.Wrap(err, method)
	}
	if res != nil {
		if v, ok := res.Value().(int32); ok && v != 0 {
			res.Clear()
			return &statusError{method: method, code: v}
		}
		res.Clear()
	}
	return nil
}

func (f *File) SetCurrentController(t rawfile.ControllerType, number int) error {
	if err := f.call("SetCurrentController", int32(t), int32(number)); err != nil {
		if _, ok := err.(*statusError); ok {
			return errors.Wrapf(rawfile.ErrNoController, "controller %d/%d: %v", t, number, err)
		}
		return err
	}
	return nil
}

func (f *File) count(method string) (int, error) {
	var n int32
	if err := f.call(method, &n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (f *File) NumSpectra() (int, error) { return f.count("GetNumSpectra") }

func (f *File) FirstSpectrumNumber() (int, error) { return f.count("GetFirstSpectrumNumber") }

func (f *File) LastSpectrumNumber() (int, error) { return f.count("GetLastSpectrumNumber") }

func (f *File) Filter(n int) (string, error) {
	var s string
	err := f.call("GetFilterForScanNum", int32(n), &s)
	if _, ok := err.(*statusError); ok {
		return "", rawfile.ErrNoFilter
	}
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", rawfile.ErrNoFilter
	}
	return s, nil
}

func (f *File) MSOrder(n int) (int, error) {
	var order int32
	if err := f.call("GetMSOrderForScanNum", int32(n), &order); err != nil {
		return 0, err
	}
	return int(order), nil
}

func (f *File) ScanHeader(n int) (rawfile.ScanHeader, error) {
	var (
		packets, channels, uniform int32
		h                          rawfile.ScanHeader
	)
	err := f.call("GetScanHeaderInfoForScanNum", int32(n),
		&packets,
		&h.StartTime,
		&h.LowMass,
		&h.HighMass,
		&h.TIC,
		&h.BasePeakMass,
		&h.BasePeakIntensity,
		&channels,
		&uniform,
		&h.Frequency,
	)
	if err != nil {
		return rawfile.ScanHeader{}, err
	}
	h.NumPackets = int(packets)
	h.NumChannels = int(channels)
	h.UniformTime = uniform != 0
	return h, nil
}

func (f *File) TrailerValue(n int, label string) (float64, error) {
	var v ole.VARIANT
	ole.VariantInit(&v)
	defer v.Clear()

	err := f.call("GetTrailerExtraValueForScanNum", int32(n), label, &v)
	if _, ok := err.(*statusError); ok {
		return 0, rawfile.ErrNoTrailer
	}
	if err != nil {
		return 0, err
	}
	x, ok := trailerNumber(v.Value())
	if !ok {
		return 0, rawfile.ErrNoTrailer
	}
	return x, nil
}

func (f *File) MassList(n int, opts rawfile.MassListOptions) (rawfile.MassList, error) {
	var (
		scan      = int32(n)
		width     = opts.CentroidPeakWidth
		size      int32
		centroid  int32
		list      ole.VARIANT
		peakFlags ole.VARIANT
	)
	if opts.Centroid {
		centroid = 1
	}
	ole.VariantInit(&list)
	ole.VariantInit(&peakFlags)
	defer list.Clear()
	defer peakFlags.Clear()

	err := f.call("GetMassListFromScanNum",
		&scan,
		opts.Filter,
		int32(opts.CutoffType),
		int32(opts.CutoffValue),
		int32(opts.MaxPeaks),
		centroid,
		&width,
		&list,
		&peakFlags,
		&size,
	)
	if err != nil {
		return rawfile.MassList{}, err
	}
	if size == 0 {
		return rawfile.MassList{}, nil
	}
	pairs, err := safeArrayDoubles(&list)
	if err != nil {
		return rawfile.MassList{}, err
	}
	return splitPairs(pairs, int(size))
}

// Close closes the RAW file and releases the COM object and apartment.
func (f *File) Close() error {
	if f.closed {
		return rawfile.ErrClosed
	}
	err := f.call("Close")
	f.release()
	return err
}

func (f *File) release() {
	f.closed = true
	if f.disp != nil {
		f.disp.Release()
		f.disp = nil
	}
	ole.CoUninitialize()
	runtime.UnlockOSThread()
}
