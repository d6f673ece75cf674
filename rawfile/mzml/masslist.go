package mzml

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/Shamus03/go-rawdump/rawfile"
)

// applyOptions filters mz/intensity pairs the way the vendor mass list
// call does and returns the flat buffer.
func applyOptions(mz, intens []float64, opts rawfile.MassListOptions) (rawfile.MassList, error) {
	if opts.Centroid {
		return rawfile.MassList{}, errors.Wrap(rawfile.ErrUnsupported, "centroiding")
	}
	if opts.Filter != "" {
		return rawfile.MassList{}, errors.Wrap(rawfile.ErrUnsupported, "mass list filter")
	}

	keep := make([]int, 0, len(mz))
	var threshold float64
	switch opts.CutoffType {
	case rawfile.CutoffAbsolute:
		threshold = float64(opts.CutoffValue)
	case rawfile.CutoffRelative:
		var top float64
		for _, v := range intens {
			if v > top {
				top = v
			}
		}
		threshold = top * float64(opts.CutoffValue) / 100
	}
	for i := range mz {
		if opts.CutoffType == rawfile.CutoffNone || intens[i] >= threshold {
			keep = append(keep, i)
		}
	}

	if opts.MaxPeaks > 0 && len(keep) > opts.MaxPeaks {
		sort.SliceStable(keep, func(a, b int) bool { return intens[keep[a]] > intens[keep[b]] })
		keep = keep[:opts.MaxPeaks]
		sort.Ints(keep)
	}

	data := make([]float64, 2*len(keep))
	for j, i := range keep {
		data[j] = mz[i]
		data[len(keep)+j] = intens[i]
	}
	return rawfile.MassList{Data: data, Size: len(keep)}, nil
}
