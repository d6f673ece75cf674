package main

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shamus03/go-rawdump/dump"
	"github.com/Shamus03/go-rawdump/internal/diag"
	"github.com/Shamus03/go-rawdump/internal/registry"
	"github.com/Shamus03/go-rawdump/rawfile"
	"github.com/Shamus03/go-rawdump/rawfile/rawfiletest"
)

func b64(vs ...float64) string {
	b := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
	}
	return base64.StdEncoding.EncodeToString(b)
}

func spectrum(index int, id, extra string, mz, intens []float64) string {
	var b strings.Builder
	b.WriteString(`<spectrum index="` + strconv.Itoa(index) + `" id="` + id + `">` + "\n")
	b.WriteString(extra)
	b.WriteString(`<binaryDataArrayList count="2">
<binaryDataArray>
<cvParam cvRef="MS" accession="MS:1000514" name="m/z array"/>
<cvParam cvRef="MS" accession="MS:1000523" name="64-bit float"/>
<cvParam cvRef="MS" accession="MS:1000576" name="no compression"/>
<binary>` + b64(mz...) + `</binary>
</binaryDataArray>
<binaryDataArray>
<cvParam cvRef="MS" accession="MS:1000515" name="intensity array"/>
<cvParam cvRef="MS" accession="MS:1000523" name="64-bit float"/>
<cvParam cvRef="MS" accession="MS:1000576" name="no compression"/>
<binary>` + b64(intens...) + `</binary>
</binaryDataArray>
</binaryDataArrayList>
</spectrum>
`)
	return b.String()
}

func writeMzML(t *testing.T, spectra ...string) string {
	t.Helper()
	doc := `<?xml version="1.0" encoding="utf-8"?>
<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1.0">
<run id="r"><spectrumList count="` + strconv.Itoa(len(spectra)) + `">
` + strings.Join(spectra, "") + `</spectrumList></run>
</mzML>
`
	path := filepath.Join(t.TempDir(), "run.mzML")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

const fullMS = `<cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="1"/>
<cvParam cvRef="MS" accession="MS:1000130" name="positive scan"/>
<scanList count="1"><scan>
<cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="1.5" unitCvRef="UO" unitAccession="UO:0000031" unitName="minute"/>
<cvParam cvRef="MS" accession="MS:1000512" name="filter string" value="FTMS + p ESI Full ms [100.00-1000.00]"/>
</scan></scanList>
`

const fragment = `<cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="2"/>
<cvParam cvRef="MS" accession="MS:1000129" name="negative scan"/>
<precursorList count="1"><precursor><selectedIonList count="1"><selectedIon>
<cvParam cvRef="MS" accession="MS:1000744" name="selected ion m/z" value="445.12"/>
<cvParam cvRef="MS" accession="MS:1000041" name="charge state" value="2"/>
</selectedIon></selectedIonList></precursor></precursorList>
<scanList count="1"><scan>
<cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="1.6" unitCvRef="UO" unitAccession="UO:0000031" unitName="minute"/>
<cvParam cvRef="MS" accession="MS:1000512" name="filter string" value="ITMS - c ESI d Full ms2 445.12@cid35.00"/>
</scan></scanList>
`

func sample(t *testing.T) string {
	return writeMzML(t,
		spectrum(0, "scan=1", fullMS, []float64{150, 250.5}, []float64{10, 20}),
		spectrum(1, "scan=2", fragment, []float64{120.25}, []float64{7}),
	)
}

func runCLI(args []string, env ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr, env)
	return code, stdout.String(), stderr.String()
}

func TestArgumentCount(t *testing.T) {
	for _, args := range [][]string{nil, {"a.raw", "b.raw"}} {
		code, out, _ := runCLI(args)
		assert.Equal(t, 1, code)
		assert.Equal(t, "ERROR: This program accepts exactly 1 argument: a RAW file path\n", out)
	}
}

func TestMissingFile(t *testing.T) {
	code, out, _ := runCLI([]string{"/nonexistent/file.raw"})
	assert.Equal(t, 1, code)
	assert.Equal(t, "ERROR: Unable to read RAW file /nonexistent/file.raw\n", out)

	dir := t.TempDir()
	code, out, _ = runCLI([]string{dir})
	assert.Equal(t, 1, code)
	assert.Equal(t, "ERROR: Unable to read RAW file "+dir+"\n", out)
}

func TestMissingFileBeforeConfig(t *testing.T) {
	code, out, _ := runCLI([]string{"/nonexistent/file.raw"}, "RAWDUMP_READER=nope")
	assert.Equal(t, 1, code)
	assert.Equal(t, "ERROR: Unable to read RAW file /nonexistent/file.raw\n", out)
}

func TestUsageErrorsClassify(t *testing.T) {
	assert.Equal(t, diag.CodeUsage, diag.Classify(errArgs))
	assert.Equal(t, diag.CodeUsage, diag.Classify(usageError("Unable to read RAW file x")))
}

func TestDumpMzML(t *testing.T) {
	code, out, stderr := runCLI([]string{sample(t)})
	require.Equal(t, 0, code, out)
	assert.Empty(t, stderr)

	assert.True(t, strings.HasPrefix(out, "NUMBER OF SCANS: 2\nSCAN NUMBER: 1\nSCAN ID: FTMS + p ESI Full ms [100.00-1000.00]\n"))
	assert.NotContains(t, out, "\r\n")

	d := dump.NewDecoder(strings.NewReader(out))
	total, err := d.Total()
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	s, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, dump.Positive, s.Polarity)
	assert.Equal(t, 1, s.MSLevel)
	assert.Equal(t, 1.5, s.RetentionTime)
	assert.Nil(t, s.Precursor)
	assert.Equal(t, []float64{150, 250.5}, s.MZ)
	assert.Equal(t, []float64{10, 20}, s.Intensity)

	s, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, dump.Negative, s.Polarity)
	assert.Equal(t, 2, s.MSLevel)
	require.NotNil(t, s.Precursor)
	assert.Equal(t, dump.Precursor{MZ: 445.12, Charge: 2}, *s.Precursor)
	assert.Equal(t, []float64{120.25}, s.MZ)
}

func TestDumpDeterministic(t *testing.T) {
	path := sample(t)
	_, a, _ := runCLI([]string{path})
	_, b, _ := runCLI([]string{path})
	assert.Equal(t, a, b)
}

func TestDumpLogsToStderr(t *testing.T) {
	code, out, stderr := runCLI([]string{sample(t)}, "RAWDUMP_LOG_LEVEL=info")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "NUMBER OF SCANS: 2\n"))
	assert.Contains(t, stderr, "reader=mzml")
	assert.Contains(t, stderr, "dump complete")
	assert.Contains(t, stderr, "scans=2")
}

func TestConfigError(t *testing.T) {
	code, out, _ := runCLI([]string{sample(t)}, "RAWDUMP_READER=nope")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(out, "ERROR: "), out)
	assert.Contains(t, out, "RAWDUMP_READER")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestMissingFilterAborts(t *testing.T) {
	path := writeMzML(t,
		spectrum(0, "scan=1", fullMS, []float64{150}, []float64{10}),
		spectrum(1, "", `<cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="1"/>`+"\n", []float64{1}, []float64{1}),
		spectrum(2, "scan=3", fullMS, []float64{150}, []float64{10}),
	)
	code, out, _ := runCLI([]string{path})
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasSuffix(out, "SCAN NUMBER: 2\nERROR: Could not extract scan filter line for scan #2\n"), out)
	assert.NotContains(t, out, "SCAN NUMBER: 3")
}

func TestReaderOverride(t *testing.T) {
	path := sample(t)
	raw := filepath.Join(filepath.Dir(path), "run.raw")
	require.NoError(t, os.Rename(path, raw))

	code, out, _ := runCLI([]string{raw}, "RAWDUMP_READER=mzml")
	require.Equal(t, 0, code, out)
	assert.True(t, strings.HasPrefix(out, "NUMBER OF SCANS: 2\n"))
}

// panicReader blows up on the first mass list request.
type panicReader struct{ *rawfiletest.File }

func (p panicReader) MassList(int, rawfile.MassListOptions) (rawfile.MassList, error) {
	panic("vendor library crashed")
}

// withReader registers open as the "fake" reader and returns a file
// path the CLI will accept.
func withReader(t *testing.T, open rawfile.Opener) string {
	t.Helper()
	registry.Reader["fake"] = open
	t.Cleanup(func() { delete(registry.Reader, "fake") })
	path := filepath.Join(t.TempDir(), "run.raw")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func fakeFile() *rawfiletest.File {
	return &rawfiletest.File{First: 1, Scans: []rawfiletest.Scan{
		{Filter: rawfiletest.Str("FTMS + p"), MSOrder: 1, MZ: []float64{100}, Intensity: []float64{1}},
		{Filter: nil, MSOrder: 1},
		{Filter: rawfiletest.Str("FTMS + p"), MSOrder: 1},
	}}
}

func TestReaderClosedAfterSuccess(t *testing.T) {
	f := fakeFile()
	f.Scans[1].Filter = rawfiletest.Str("FTMS - p")
	path := withReader(t, f.Opener())

	code, out, _ := runCLI([]string{path}, "RAWDUMP_READER=fake")
	require.Equal(t, 0, code, out)
	assert.True(t, f.Closed)
}

func TestReaderClosedAfterMissingFilter(t *testing.T) {
	f := fakeFile()
	path := withReader(t, f.Opener())

	code, out, _ := runCLI([]string{path}, "RAWDUMP_READER=fake")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasSuffix(out, "ERROR: Could not extract scan filter line for scan #2\n"), out)
	assert.True(t, f.Closed)
}

func TestReaderClosedAfterReaderError(t *testing.T) {
	f := fakeFile()
	f.ErrMassList = errors.New("COM exception")
	path := withReader(t, f.Opener())

	code, out, _ := runCLI([]string{path}, "RAWDUMP_READER=fake")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasSuffix(out, "SCAN NUMBER: 1\nERROR: scan 1: mass list: COM exception\n"), out)
	assert.True(t, f.Closed)
}

func TestOpenFailure(t *testing.T) {
	path := withReader(t, func(string) (rawfile.Reader, error) {
		return nil, errors.Wrap(rawfile.ErrUnsupported, "open")
	})

	code, out, _ := runCLI([]string{path}, "RAWDUMP_READER=fake")
	assert.Equal(t, 1, code)
	assert.Equal(t, "ERROR: open: reader not supported on this platform\n", out)
}

func TestReaderPanicRecovered(t *testing.T) {
	f := fakeFile()
	path := withReader(t, func(string) (rawfile.Reader, error) { return panicReader{f}, nil })

	var code int
	var out string
	require.NotPanics(t, func() { code, out, _ = runCLI([]string{path}, "RAWDUMP_READER=fake") })
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(out, "NUMBER OF SCANS: 3\nSCAN NUMBER: 1\n"), out)
	assert.True(t, strings.HasSuffix(out, "ERROR: vendor library crashed\n"), out)
	assert.True(t, f.Closed)
}
