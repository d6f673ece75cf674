// Package rawfile defines the capability a scan dumper needs from an
// instrument data file. Vendor libraries sit behind Reader; the dumper
// never looks past it.
package rawfile

// ControllerType selects the class of device whose data a Reader serves.
type ControllerType int

const (
	MassSpecController ControllerType = 0
	AnalogController   ControllerType = 1
	ADCardController   ControllerType = 2
	PDAController      ControllerType = 3
	UVController       ControllerType = 4
)

// Trailer labels understood by every adapter.
const (
	MonoisotopicMZLabel = "Monoisotopic M/Z:"
	ChargeStateLabel    = "Charge State:"
)

// ScanHeader is the per-scan summary block the vendor API reports.
type ScanHeader struct {
	NumPackets        int
	StartTime         float64 // minutes
	LowMass           float64
	HighMass          float64
	TIC               float64
	BasePeakMass      float64
	BasePeakIntensity float64
	NumChannels       int
	UniformTime       bool
	Frequency         float64
}

// CutoffType picks how MassListOptions.CutoffValue is interpreted.
type CutoffType int

const (
	CutoffNone CutoffType = iota
	CutoffAbsolute
	CutoffRelative // percent of the base peak
)

// MassListOptions mirrors the knobs of the vendor mass list call.
// The zero value asks for every point, unfiltered and in profile.
type MassListOptions struct {
	Filter            string
	CutoffType        CutoffType
	CutoffValue       int
	MaxPeaks          int
	Centroid          bool
	CentroidPeakWidth float64
}

// MassList is a flat point buffer: Size m/z values followed by Size
// intensities.
type MassList struct {
	Data []float64
	Size int
}

// MZ returns the m/z half of the buffer.
func (m MassList) MZ() []float64 {
	return m.Data[:m.Size]
}

// Intensity returns the intensity half of the buffer.
func (m MassList) Intensity() []float64 {
	return m.Data[m.Size : 2*m.Size]
}

// Reader is an open instrument file. Scan numbers are the file's own
// numbering, from FirstSpectrumNumber to LastSpectrumNumber inclusive.
//
// SetCurrentController must succeed before any per-scan call.
type Reader interface {
	SetCurrentController(t ControllerType, number int) error
	NumSpectra() (int, error)
	FirstSpectrumNumber() (int, error)
	LastSpectrumNumber() (int, error)

	// Filter returns the scan's filter line, or ErrNoFilter.
	Filter(scan int) (string, error)
	// MSOrder returns the raw vendor MS order. Negative values are
	// vendor codes (-1 parent scan, -3 neutral gain, ...).
	MSOrder(scan int) (int, error)
	ScanHeader(scan int) (ScanHeader, error)
	// TrailerValue returns a numeric trailer field, or ErrNoTrailer.
	TrailerValue(scan int, label string) (float64, error)
	MassList(scan int, opts MassListOptions) (MassList, error)

	Close() error
}

// Opener opens the file at path.
type Opener func(path string) (Reader, error)
