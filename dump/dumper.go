package dump

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Shamus03/go-rawdump/rawfile"
)

// MissingFilterError aborts a dump when a scan has no filter line.
type MissingFilterError struct {
	Scan int
}

func (e *MissingFilterError) Error() string {
	return fmt.Sprintf("Could not extract scan filter line for scan #%d", e.Scan)
}

func (e *MissingFilterError) Unwrap() error { return rawfile.ErrNoFilter }

// Stats summarizes a finished dump.
type Stats struct {
	Scans  int
	Points int64
	Bytes  int64
}

// Dumper streams every mass spectrometer scan of a Reader.
type Dumper struct {
	r      rawfile.Reader
	enc    *Encoder
	logger log.FieldLogger
}

// New returns a Dumper reading from r and writing to w. A nil logger
// discards log output.
func New(r rawfile.Reader, w io.Writer, logger log.FieldLogger) *Dumper {
	if logger == nil {
		l := log.New()
		l.Out = io.Discard
		logger = l
	}
	return &Dumper{r: r, enc: NewEncoder(w), logger: logger}
}

// Run writes the stream header and one block per scan, first to last.
// Output already written stays written when Run fails part way.
func (d *Dumper) Run() (Stats, error) {
	var st Stats
	if err := d.r.SetCurrentController(rawfile.MassSpecController, 1); err != nil {
		return st, errors.Wrap(err, "select mass spectrometer controller")
	}
	total, err := d.r.NumSpectra()
	if err != nil {
		return st, errors.Wrap(err, "number of spectra")
	}
	if err := d.enc.Begin(total); err != nil {
		return st, err
	}
	first, err := d.r.FirstSpectrumNumber()
	if err != nil {
		return st, errors.Wrap(err, "first spectrum number")
	}
	last, err := d.r.LastSpectrumNumber()
	if err != nil {
		return st, errors.Wrap(err, "last spectrum number")
	}
	d.logger.WithFields(log.Fields{"total": total, "first": first, "last": last}).Info("dumping scans")

	for n := first; n <= last; n++ {
		s, err := d.scan(n)
		if err != nil {
			st.Bytes = d.enc.Written()
			return st, err
		}
		st.Scans++
		st.Points += int64(s.Points())
		d.logger.WithFields(log.Fields{"scan": n, "ms_level": s.MSLevel, "points": s.Points()}).Debug("scan written")
	}
	st.Bytes = d.enc.Written()
	return st, nil
}

func (d *Dumper) scan(n int) (*Scan, error) {
	if err := d.enc.ScanNumber(n); err != nil {
		return nil, err
	}
	filter, err := d.r.Filter(n)
	if errors.Is(err, rawfile.ErrNoFilter) {
		return nil, &MissingFilterError{Scan: n}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "scan %d: filter", n)
	}
	s := &Scan{
		Number:   n,
		ID:       filter,
		Polarity: PolarityOf(filter),
	}

	order, err := d.r.MSOrder(n)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %d: ms order", n)
	}
	s.MSLevel = ClampMSLevel(order)

	h, err := d.r.ScanHeader(n)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %d: header", n)
	}
	s.RetentionTime = h.StartTime
	s.LowMZ = h.LowMass
	s.HighMZ = h.HighMass

	if s.MSLevel > 1 {
		if s.Precursor, err = d.precursor(n); err != nil {
			return nil, err
		}
	}

	ml, err := d.r.MassList(n, rawfile.MassListOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %d: mass list", n)
	}
	if ml.Size < 0 || len(ml.Data) < 2*ml.Size {
		return nil, errors.Wrapf(rawfile.ErrFormat, "scan %d: mass list holds %d values for %d points", n, len(ml.Data), ml.Size)
	}
	s.MZ = ml.MZ()
	s.Intensity = ml.Intensity()

	return s, d.enc.Scan(s)
}

func (d *Dumper) precursor(n int) (*Precursor, error) {
	mz, err := d.trailer(n, rawfile.MonoisotopicMZLabel)
	if err != nil {
		return nil, err
	}
	charge, err := d.trailer(n, rawfile.ChargeStateLabel)
	if err != nil {
		return nil, err
	}
	return &Precursor{MZ: mz, Charge: int(charge)}, nil
}

// trailer reads a numeric trailer field; an absent field reads as 0.
func (d *Dumper) trailer(n int, label string) (float64, error) {
	v, err := d.r.TrailerValue(n, label)
	if errors.Is(err, rawfile.ErrNoTrailer) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "scan %d: trailer %q", n, label)
	}
	return v, nil
}
