package dump

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// blockChunk is the most values a Decoder reads from a block at once.
const blockChunk = 64 << 10

// ErrSyntax is the cause of every malformed-stream error from a Decoder.
var ErrSyntax = errors.New("malformed dump stream")

// Decoder reads a record stream written by an Encoder.
type Decoder struct {
	r     *bufio.Reader
	line  int
	total int
	began bool
	buf   []byte
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Total reads the stream header if needed and returns the declared scan
// count.
func (d *Decoder) Total() (int, error) {
	if d.began {
		return d.total, nil
	}
	v, err := d.field("NUMBER OF SCANS: ")
	if err != nil {
		return 0, err
	}
	if d.total, err = d.atoi(v); err != nil {
		return 0, err
	}
	d.began = true
	return d.total, nil
}

// Next returns the next scan, or io.EOF after the last one.
func (d *Decoder) Next() (*Scan, error) {
	if _, err := d.Total(); err != nil {
		return nil, err
	}
	if _, err := d.r.Peek(1); err == io.EOF {
		return nil, io.EOF
	}

	var s Scan
	v, err := d.field("SCAN NUMBER: ")
	if err != nil {
		return nil, err
	}
	if s.Number, err = d.atoi(v); err != nil {
		return nil, err
	}
	if s.ID, err = d.field("SCAN ID: "); err != nil {
		return nil, err
	}
	if v, err = d.field("POLARITY: "); err != nil {
		return nil, err
	}
	switch p := Polarity(v[0]); {
	case len(v) == 1 && (p == Positive || p == Negative || p == Unknown):
		s.Polarity = p
	default:
		return nil, d.syntax("bad polarity %q", v)
	}
	if v, err = d.field("MS LEVEL: "); err != nil {
		return nil, err
	}
	if s.MSLevel, err = d.atoi(v); err != nil {
		return nil, err
	}
	if v, err = d.field("RETENTION TIME: "); err != nil {
		return nil, err
	}
	if s.RetentionTime, err = d.atof(v); err != nil {
		return nil, err
	}
	if v, err = d.field("MZ RANGE: "); err != nil {
		return nil, err
	}
	lo, hi, ok := strings.Cut(v, " - ")
	if !ok {
		return nil, d.syntax("bad m/z range %q", v)
	}
	if s.LowMZ, err = d.atof(lo); err != nil {
		return nil, err
	}
	if s.HighMZ, err = d.atof(hi); err != nil {
		return nil, err
	}

	l, err := d.readLine()
	if err != nil {
		return nil, err
	}
	if v, ok := strings.CutPrefix(l, "PRECURSOR: "); ok {
		mz, charge, ok := strings.Cut(v, " ")
		if !ok {
			return nil, d.syntax("bad precursor %q", v)
		}
		p := &Precursor{}
		if p.MZ, err = d.atof(mz); err != nil {
			return nil, err
		}
		if p.Charge, err = d.atoi(charge); err != nil {
			return nil, err
		}
		s.Precursor = p
		if l, err = d.readLine(); err != nil {
			return nil, err
		}
	}
	if s.MZ, err = d.block(l, "MASS VALUES: "); err != nil {
		return nil, err
	}
	if l, err = d.readLine(); err != nil {
		return nil, err
	}
	if s.Intensity, err = d.block(l, "INTENSITY VALUES: "); err != nil {
		return nil, err
	}
	if len(s.MZ) != len(s.Intensity) {
		return nil, d.syntax("scan %d: %d m/z values but %d intensities", s.Number, len(s.MZ), len(s.Intensity))
	}
	return &s, nil
}

// block parses a "<prefix><count> x 8 BYTES" line and reads the payload
// that follows it.
func (d *Decoder) block(l, prefix string) ([]float64, error) {
	v, ok := strings.CutPrefix(l, prefix)
	if !ok {
		return nil, d.syntax("expected %q, got %q", prefix, l)
	}
	v, ok = strings.CutSuffix(v, " x 8 BYTES")
	if !ok {
		return nil, d.syntax("bad block size in %q", l)
	}
	count, err := d.atoi(v)
	if err != nil {
		return nil, err
	}
	if count < 0 || count > math.MaxInt/DoubleSize {
		return nil, d.syntax("point count %d out of range", count)
	}
	// Read in chunks so a bogus count fails on the short read before
	// anything near count values is allocated.
	vs := make([]float64, 0, min(count, blockChunk))
	for left := count; left > 0; {
		n := min(left, blockChunk)
		if len(d.buf) < n*DoubleSize {
			d.buf = make([]byte, blockChunk*DoubleSize)
		}
		b := d.buf[:n*DoubleSize]
		if _, err := io.ReadFull(d.r, b); err != nil {
			return nil, errors.Wrapf(ErrSyntax, "line %d: short %d-byte block: %v", d.line, count*DoubleSize, err)
		}
		for i := 0; i < n; i++ {
			vs = append(vs, math.Float64frombits(binary.LittleEndian.Uint64(b[i*DoubleSize:])))
		}
		left -= n
	}
	return vs, nil
}

func (d *Decoder) readLine() (string, error) {
	l, err := d.r.ReadString('\n')
	if err == io.EOF {
		if l == "" {
			return "", io.ErrUnexpectedEOF
		}
		return "", d.syntax("unterminated line %q", l)
	}
	if err != nil {
		return "", err
	}
	d.line++
	return l[:len(l)-1], nil
}

func (d *Decoder) field(prefix string) (string, error) {
	l, err := d.readLine()
	if err != nil {
		return "", err
	}
	v, ok := strings.CutPrefix(l, prefix)
	if !ok {
		return "", d.syntax("expected %q, got %q", prefix, l)
	}
	if v == "" && prefix != "SCAN ID: " {
		return "", d.syntax("empty %q", prefix)
	}
	return v, nil
}

func (d *Decoder) atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, d.syntax("bad integer %q", s)
	}
	return n, nil
}

func (d *Decoder) atof(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, d.syntax("bad number %q", s)
	}
	return f, nil
}

func (d *Decoder) syntax(format string, args ...interface{}) error {
	return errors.Wrapf(ErrSyntax, "line %d: "+format, append([]interface{}{d.line}, args...)...)
}
