// Package dump writes instrument scans as the text/binary record stream
// read by the import pipeline, and reads that stream back.
//
// A stream is one "NUMBER OF SCANS" line followed by one block per scan.
// Text lines always end in a bare '\n'. Point arrays follow their header
// line as raw little-endian float64 values.
package dump

import "strings"

// Polarity is the ion mode of a scan as written on the POLARITY line.
type Polarity byte

const (
	Positive Polarity = '+'
	Negative Polarity = '-'
	Unknown  Polarity = '?'
)

func (p Polarity) String() string { return string(rune(p)) }

// PolarityOf derives the polarity from a filter line. A negative marker
// wins when both are present.
func PolarityOf(filter string) Polarity {
	switch {
	case strings.Contains(filter, " - "):
		return Negative
	case strings.Contains(filter, " + "):
		return Positive
	default:
		return Unknown
	}
}

// ClampMSLevel maps a raw vendor MS order onto a level >= 1. Codes below
// -1 (neutral gain, neutral loss) are fragment scans; -1 and 0 are parent
// scans.
func ClampMSLevel(order int) int {
	if order < -1 {
		return 2
	}
	if order < 1 {
		return 1
	}
	return order
}

// Precursor is the parent ion of a fragment scan. Zero means the file
// did not record the value.
type Precursor struct {
	MZ     float64
	Charge int
}

// Scan is one record of the stream.
type Scan struct {
	Number        int
	ID            string
	Polarity      Polarity
	MSLevel       int
	RetentionTime float64 // minutes
	LowMZ         float64
	HighMZ        float64
	// Precursor is set iff MSLevel > 1.
	Precursor *Precursor
	MZ        []float64
	Intensity []float64
}

// Points is the number of (m/z, intensity) pairs.
func (s *Scan) Points() int { return len(s.MZ) }
