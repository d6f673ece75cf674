package msfilereader

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Shamus03/go-rawdump/rawfile"
)

// splitPairs converts the vendor's interleaved [mass, intensity] pairs
// into a flat buffer of n masses followed by n intensities.
func splitPairs(pairs []float64, n int) (rawfile.MassList, error) {
	if n < 0 || len(pairs) < 2*n {
		return rawfile.MassList{}, errors.Wrapf(rawfile.ErrFormat, "mass list holds %d values for %d points", len(pairs), n)
	}
	data := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		data[i] = pairs[2*i]
		data[n+i] = pairs[2*i+1]
	}
	return rawfile.MassList{Data: data, Size: n}, nil
}

// trailerNumber converts a trailer VARIANT value to float64. Converters
// and older instruments store numeric trailers as text.
func trailerNumber(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int8:
		return float64(x), true
	case uint8:
		return float64(x), true
	case int16:
		return float64(x), true
	case uint16:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case int:
		return float64(x), true
	case uint:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		return parseText(x)
	}
	return 0, false
}

func parseText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
