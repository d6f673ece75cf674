package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/Shamus03/go-rawdump/rawfile"
)

// decodeArray turns one binaryDataArray into float64 values.
func decodeArray(b binaryDataArray, cv []cvParam) ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b.Binary))
	if err != nil {
		return nil, errors.Wrapf(rawfile.ErrFormat, "base64: %v", err)
	}

	switch {
	case has(cv, accZlib):
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, errors.Wrapf(rawfile.ErrFormat, "zlib: %v", err)
		}
		defer zr.Close()
		if raw, err = io.ReadAll(zr); err != nil {
			return nil, errors.Wrapf(rawfile.ErrFormat, "zlib: %v", err)
		}
	case has(cv, accNoCompression):
	default:
		for _, p := range cv {
			if strings.Contains(strings.ToLower(p.Name), "compression") {
				return nil, errors.Wrapf(rawfile.ErrUnsupported, "compression %s (%s)", p.Name, p.Accession)
			}
		}
	}

	var (
		width  int
		decode func([]byte) float64
	)
	switch {
	case has(cv, accFloat64):
		width = 8
		decode = func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
	case has(cv, accFloat32):
		width = 4
		decode = func(b []byte) float64 { return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) }
	case has(cv, accInt64):
		width = 8
		decode = func(b []byte) float64 { return float64(int64(binary.LittleEndian.Uint64(b))) }
	case has(cv, accInt32):
		width = 4
		decode = func(b []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(b))) }
	default:
		return nil, errors.Wrap(rawfile.ErrFormat, "binary array without data type")
	}
	if len(raw)%width != 0 {
		return nil, errors.Wrapf(rawfile.ErrFormat, "%d bytes is not a multiple of %d", len(raw), width)
	}

	out := make([]float64, len(raw)/width)
	for i := range out {
		out[i] = decode(raw[i*width:])
	}
	return out, nil
}
