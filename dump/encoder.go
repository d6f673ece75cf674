package dump

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// DoubleSize is the width of one point value in the stream.
const DoubleSize = 8

// initialBufSize is the starting size of the payload buffer.
const initialBufSize = 1000000

// Encoder writes records to an io.Writer. It is not safe for concurrent
// use. After a write error every further call returns that error.
type Encoder struct {
	w   io.Writer
	buf []byte
	n   int64
	err error
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, buf: make([]byte, initialBufSize)}
}

// Written reports the bytes written so far.
func (e *Encoder) Written() int64 { return e.n }

// BufCap reports the capacity of the reusable payload buffer.
func (e *Encoder) BufCap() int { return len(e.buf) }

func (e *Encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(b)
	e.n += int64(n)
	e.err = err
}

func (e *Encoder) linef(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	n, err := fmt.Fprintf(e.w, format+"\n", args...)
	e.n += int64(n)
	e.err = err
}

// doubles writes vs as little-endian float64s through the reusable
// buffer, growing it to twice the need when it is too small.
func (e *Encoder) doubles(vs []float64) {
	size := len(vs) * DoubleSize
	if len(e.buf) < size {
		e.buf = make([]byte, size*2)
	}
	for i, v := range vs {
		binary.LittleEndian.PutUint64(e.buf[i*DoubleSize:], math.Float64bits(v))
	}
	e.write(e.buf[:size])
}

// Begin writes the stream header.
func (e *Encoder) Begin(total int) error {
	e.linef("NUMBER OF SCANS: %d", total)
	return e.err
}

// ScanNumber opens a scan block.
func (e *Encoder) ScanNumber(n int) error {
	e.linef("SCAN NUMBER: %d", n)
	return e.err
}

// Scan writes everything of s after its SCAN NUMBER line.
func (e *Encoder) Scan(s *Scan) error {
	if len(s.MZ) != len(s.Intensity) {
		return errors.Errorf("scan %d: %d m/z values but %d intensities", s.Number, len(s.MZ), len(s.Intensity))
	}
	e.linef("SCAN ID: %s", s.ID)
	e.linef("POLARITY: %s", s.Polarity)
	e.linef("MS LEVEL: %d", s.MSLevel)
	e.linef("RETENTION TIME: %s", formatDouble(s.RetentionTime))
	e.linef("MZ RANGE: %s - %s", formatDouble(s.LowMZ), formatDouble(s.HighMZ))
	if s.Precursor != nil {
		e.linef("PRECURSOR: %s %d", formatDouble(s.Precursor.MZ), s.Precursor.Charge)
	}
	e.linef("MASS VALUES: %d x %d BYTES", len(s.MZ), DoubleSize)
	e.doubles(s.MZ)
	e.linef("INTENSITY VALUES: %d x %d BYTES", len(s.Intensity), DoubleSize)
	e.doubles(s.Intensity)
	return e.err
}

// Encode writes a whole scan block.
func (e *Encoder) Encode(s *Scan) error {
	if err := e.ScanNumber(s.Number); err != nil {
		return err
	}
	return e.Scan(s)
}

func formatDouble(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
