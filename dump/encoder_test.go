package dump

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func le(vs ...float64) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, vs)
	return b.Bytes()
}

func TestEncodeMS1(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)
	require.NoError(t, enc.Begin(1))
	require.NoError(t, enc.Encode(&Scan{
		Number:        1,
		ID:            "FTMS + p ESI Full ms [100.00-2000.00]",
		Polarity:      Positive,
		MSLevel:       1,
		RetentionTime: 0.5,
		LowMZ:         100,
		HighMZ:        2000,
		MZ:            []float64{100.5, 200.25},
		Intensity:     []float64{10, 20},
	}))

	var want bytes.Buffer
	want.WriteString("NUMBER OF SCANS: 1\n")
	want.WriteString("SCAN NUMBER: 1\n")
	want.WriteString("SCAN ID: FTMS + p ESI Full ms [100.00-2000.00]\n")
	want.WriteString("POLARITY: +\n")
	want.WriteString("MS LEVEL: 1\n")
	want.WriteString("RETENTION TIME: 0.5\n")
	want.WriteString("MZ RANGE: 100 - 2000\n")
	want.WriteString("MASS VALUES: 2 x 8 BYTES\n")
	want.Write(le(100.5, 200.25))
	want.WriteString("INTENSITY VALUES: 2 x 8 BYTES\n")
	want.Write(le(10, 20))

	assert.Equal(t, want.Bytes(), out.Bytes())
	assert.Equal(t, int64(out.Len()), enc.Written())
}

func TestEncodePrecursor(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)
	require.NoError(t, enc.Encode(&Scan{
		Number:        7,
		ID:            "ITMS - c ESI d Full ms2 445.12@cid35.00",
		Polarity:      Negative,
		MSLevel:       2,
		RetentionTime: 12.345678,
		LowMZ:         110,
		HighMZ:        905.5,
		Precursor:     &Precursor{MZ: 445.1234, Charge: 2},
	}))
	assert.Equal(t, "SCAN NUMBER: 7\n"+
		"SCAN ID: ITMS - c ESI d Full ms2 445.12@cid35.00\n"+
		"POLARITY: -\n"+
		"MS LEVEL: 2\n"+
		"RETENTION TIME: 12.345678\n"+
		"MZ RANGE: 110 - 905.5\n"+
		"PRECURSOR: 445.1234 2\n"+
		"MASS VALUES: 0 x 8 BYTES\n"+
		"INTENSITY VALUES: 0 x 8 BYTES\n", out.String())
}

func TestFormatDouble(t *testing.T) {
	assert.Equal(t, "0", formatDouble(0))
	assert.Equal(t, "-1", formatDouble(-1))
	assert.Equal(t, "1000000", formatDouble(1e6))
	assert.Equal(t, "0.0001", formatDouble(1e-4))
	assert.Equal(t, "445.12345678", formatDouble(445.12345678))
}

func TestEncoderBufferGrowsNeverShrinks(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{})
	assert.Equal(t, initialBufSize, enc.BufCap())

	big := make([]float64, initialBufSize/DoubleSize+1)
	require.NoError(t, enc.Encode(&Scan{Number: 1, MZ: big, Intensity: big}))
	grown := enc.BufCap()
	assert.Equal(t, len(big)*DoubleSize*2, grown)

	require.NoError(t, enc.Encode(&Scan{Number: 2, MZ: []float64{1}, Intensity: []float64{2}}))
	assert.Equal(t, grown, enc.BufCap())
}

func TestEncoderMismatchedArrays(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{})
	err := enc.Encode(&Scan{Number: 3, MZ: []float64{1, 2}, Intensity: []float64{1}})
	assert.EqualError(t, err, "scan 3: 2 m/z values but 1 intensities")
}

type failWriter struct{ after int }

func (f *failWriter) Write(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, errors.New("disk full")
	}
	f.after--
	return len(p), nil
}

func TestEncoderStickyError(t *testing.T) {
	enc := NewEncoder(&failWriter{after: 1})
	require.NoError(t, enc.Begin(2))
	assert.EqualError(t, enc.ScanNumber(1), "disk full")
	assert.EqualError(t, enc.Encode(&Scan{Number: 2}), "disk full")
}
