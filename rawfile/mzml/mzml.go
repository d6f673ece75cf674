// Package mzml serves rawfile.Reader from an mzML 1.1 file, so scans of
// converted runs can be dumped without the vendor library.
//
// Scans are numbered from 1 in document order. Only controller
// (rawfile.MassSpecController, 1) exists.
package mzml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/Shamus03/go-rawdump/rawfile"
)

// File is an open mzML file.
type File struct {
	f      *os.File
	data   mmap.MMap
	groups groups
	specs  []spectrum

	controller bool
	closed     bool
}

var _ rawfile.Reader = (*File)(nil)

// Open maps the file at path read-only and indexes its spectra.
func Open(path string) (rawfile.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat")
	}
	if fi.Size() == 0 {
		f.Close()
		return nil, errors.Wrapf(rawfile.ErrFormat, "%s: empty file", path)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "mmap")
	}

	file := &File{f: f, data: m}
	if err := file.index(bytes.NewReader(m)); err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "%s", path)
	}
	return file, nil
}

// index collects every paramGroup and spectrum element, whether or not
// the mzML root is wrapped in indexedmzML.
func (m *File) index(r io.Reader) error {
	m.groups = groups{}
	var sawRoot bool
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(rawfile.ErrFormat, "xml: %v", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "mzML":
			sawRoot = true
		case "referenceableParamGroup":
			var g paramGroup
			if err := dec.DecodeElement(&g, &se); err != nil {
				return errors.Wrapf(rawfile.ErrFormat, "paramGroup: %v", err)
			}
			m.groups[g.ID] = g.CV
		case "spectrum":
			var s spectrum
			if err := dec.DecodeElement(&s, &se); err != nil {
				return errors.Wrapf(rawfile.ErrFormat, "spectrum %d: %v", len(m.specs), err)
			}
			m.specs = append(m.specs, s)
		}
	}
	if !sawRoot {
		return errors.Wrap(rawfile.ErrFormat, "no mzML element")
	}
	return nil
}

func (m *File) spectrum(n int) (*spectrum, error) {
	if m.closed {
		return nil, rawfile.ErrClosed
	}
	if !m.controller {
		return nil, rawfile.ErrNoController
	}
	if n < 1 || n > len(m.specs) {
		return nil, errors.Wrapf(rawfile.ErrNoScan, "scan %d", n)
	}
	return &m.specs[n-1], nil
}

// scanCV returns the spectrum's cvParams followed by those of its first
// scan element.
func (m *File) scanCV(s *spectrum) []cvParam {
	cv := m.groups.cv(s.params)
	if len(s.Scans) > 0 {
		cv = append(append([]cvParam(nil), cv...), m.groups.cv(s.Scans[0].params)...)
	}
	return cv
}

func (m *File) SetCurrentController(t rawfile.ControllerType, number int) error {
	if m.closed {
		return rawfile.ErrClosed
	}
	if t != rawfile.MassSpecController || number != 1 {
		return errors.Wrapf(rawfile.ErrNoController, "controller %d/%d", t, number)
	}
	m.controller = true
	return nil
}

func (m *File) NumSpectra() (int, error) {
	if m.closed {
		return 0, rawfile.ErrClosed
	}
	return len(m.specs), nil
}

func (m *File) FirstSpectrumNumber() (int, error) {
	if m.closed {
		return 0, rawfile.ErrClosed
	}
	return 1, nil
}

func (m *File) LastSpectrumNumber() (int, error) {
	if m.closed {
		return 0, rawfile.ErrClosed
	}
	return len(m.specs), nil
}

// Filter returns the filter string cvParam. Files without one get a
// synthesized line carrying the spectrum id, polarity and MS level.
func (m *File) Filter(n int) (string, error) {
	s, err := m.spectrum(n)
	if err != nil {
		return "", err
	}
	cv := m.scanCV(s)
	if p, ok := find(cv, accFilterString); ok && p.Value != "" {
		return p.Value, nil
	}
	if s.ID == "" {
		return "", rawfile.ErrNoFilter
	}
	sign := ""
	switch {
	case has(cv, accNegativeScan):
		sign = " -"
	case has(cv, accPositiveScan):
		sign = " +"
	}
	return fmt.Sprintf("%s%s ms%d", s.ID, sign, m.level(cv)), nil
}

func (m *File) level(cv []cvParam) int {
	if p, ok := find(cv, accMSLevel); ok {
		if v, err := strconv.Atoi(p.Value); err == nil {
			return v
		}
	}
	return 1
}

func (m *File) MSOrder(n int) (int, error) {
	s, err := m.spectrum(n)
	if err != nil {
		return 0, err
	}
	return m.level(m.scanCV(s)), nil
}

func (m *File) ScanHeader(n int) (rawfile.ScanHeader, error) {
	s, err := m.spectrum(n)
	if err != nil {
		return rawfile.ScanHeader{}, err
	}
	cv := m.scanCV(s)
	h := rawfile.ScanHeader{
		NumPackets:        s.DefaultArrayLength,
		TIC:               number(cv, accTIC),
		BasePeakMass:      number(cv, accBasePeakMZ),
		BasePeakIntensity: number(cv, accBasePeakIntens),
		NumChannels:       1,
	}
	if p, ok := find(cv, accScanStartTime); ok {
		h.StartTime, _ = strconv.ParseFloat(p.Value, 64)
		if isSeconds(p) && !isMinutes(p) {
			h.StartTime /= 60
		}
	}

	lo, okLo := find(cv, accLowestMZ)
	hi, okHi := find(cv, accHighestMZ)
	if !okLo || !okHi {
		if len(s.Scans) > 0 && len(s.Scans[0].Windows) > 0 {
			w := m.groups.cv(s.Scans[0].Windows[0])
			lo, okLo = find(w, accWindowLower)
			hi, okHi = find(w, accWindowUpper)
		}
	}
	if okLo && okHi {
		h.LowMass, _ = strconv.ParseFloat(lo.Value, 64)
		h.HighMass, _ = strconv.ParseFloat(hi.Value, 64)
		return h, nil
	}

	mz, _, err := m.arrays(s)
	if err != nil {
		return rawfile.ScanHeader{}, errors.Wrapf(err, "scan %d", n)
	}
	if len(mz) > 0 {
		h.LowMass, h.HighMass = math.Inf(1), math.Inf(-1)
		for _, v := range mz {
			h.LowMass = math.Min(h.LowMass, v)
			h.HighMass = math.Max(h.HighMass, v)
		}
	}
	return h, nil
}

func number(cv []cvParam, acc string) float64 {
	p, ok := find(cv, acc)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseFloat(p.Value, 64)
	return v
}

// TrailerValue looks for a userParam with the label (optionally behind
// the Thermo trailer prefix), then falls back to the first selected ion
// for the precursor m/z and charge labels.
func (m *File) TrailerValue(n int, label string) (float64, error) {
	s, err := m.spectrum(n)
	if err != nil {
		return 0, err
	}
	user := s.User
	if len(s.Scans) > 0 {
		user = append(append([]userParam(nil), s.Scans[0].User...), user...)
	}
	if p, ok := findUser(user, label); ok {
		v, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			return 0, errors.Wrapf(rawfile.ErrFormat, "scan %d: trailer %q=%q", n, label, p.Value)
		}
		return v, nil
	}

	var acc string
	switch label {
	case rawfile.MonoisotopicMZLabel:
		acc = accSelectedIonMZ
	case rawfile.ChargeStateLabel:
		acc = accChargeState
	default:
		return 0, rawfile.ErrNoTrailer
	}
	if len(s.Precursors) == 0 || len(s.Precursors[0].SelectedIons) == 0 {
		return 0, rawfile.ErrNoTrailer
	}
	p, ok := find(m.groups.cv(s.Precursors[0].SelectedIons[0]), acc)
	if !ok {
		return 0, rawfile.ErrNoTrailer
	}
	v, err := strconv.ParseFloat(p.Value, 64)
	if err != nil {
		return 0, errors.Wrapf(rawfile.ErrFormat, "scan %d: %s=%q", n, p.Name, p.Value)
	}
	return v, nil
}

// arrays decodes the m/z and intensity arrays of s.
func (m *File) arrays(s *spectrum) (mz, intens []float64, err error) {
	var sawMZ, sawIntens bool
	for _, a := range s.Arrays {
		cv := m.groups.cv(a.params)
		switch {
		case has(cv, accMZArray):
			mz, err = decodeArray(a, cv)
			sawMZ = true
		case has(cv, accIntensityArray):
			intens, err = decodeArray(a, cv)
			sawIntens = true
		default:
			continue
		}
		if err != nil {
			return nil, nil, err
		}
	}
	if s.DefaultArrayLength == 0 && !sawMZ && !sawIntens {
		return nil, nil, nil
	}
	if !sawMZ || !sawIntens {
		return nil, nil, errors.Wrap(rawfile.ErrFormat, "missing m/z or intensity array")
	}
	if len(mz) != len(intens) {
		return nil, nil, errors.Wrapf(rawfile.ErrFormat, "%d m/z values but %d intensities", len(mz), len(intens))
	}
	return mz, intens, nil
}

func (m *File) MassList(n int, opts rawfile.MassListOptions) (rawfile.MassList, error) {
	s, err := m.spectrum(n)
	if err != nil {
		return rawfile.MassList{}, err
	}
	mz, intens, err := m.arrays(s)
	if err != nil {
		return rawfile.MassList{}, errors.Wrapf(err, "scan %d", n)
	}
	return applyOptions(mz, intens, opts)
}

// Close unmaps and closes the file.
func (m *File) Close() error {
	if m.closed {
		return rawfile.ErrClosed
	}
	m.closed = true
	m.specs = nil
	if m.data != nil {
		if err := m.data.Unmap(); err != nil {
			m.f.Close()
			return err
		}
		m.data = nil
	}
	return m.f.Close()
}
