package diag

import (
	"bytes"
	"io/fs"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/Shamus03/go-rawdump/dump"
	"github.com/Shamus03/go-rawdump/internal/config"
	"github.com/Shamus03/go-rawdump/internal/registry"
	"github.com/Shamus03/go-rawdump/rawfile"
)

type codedError string

func (e codedError) Error() string { return string(e) }

func (e codedError) Code() Code { return CodeUsage }

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want Code
	}{
		{nil, CodeUnknown},
		{errors.New("other"), CodeUnknown},
		{errors.Wrap(config.ErrInvalid, "RAWDUMP_READER"), CodeUsage},
		{errors.Wrap(registry.ErrUnknownReader, "x"), CodeUsage},
		{errors.Wrap(rawfile.ErrUnsupported, "open"), CodeUnsupported},
		{errors.Wrap(rawfile.ErrFormat, "scan 3"), CodeFormat},
		{errors.Wrap(dump.ErrSyntax, "line 2"), CodeFormat},
		{&dump.MissingFilterError{Scan: 2}, CodeInput},
		{errors.Wrap(rawfile.ErrNoScan, "scan 9"), CodeInput},
		{errors.Wrap(rawfile.ErrNoController, "select"), CodeInput},
		{codedError("bad arguments"), CodeUsage},
		{errors.Wrap(codedError("bad arguments"), "run"), CodeUsage},
		{&fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}, CodeIO},
	} {
		assert.Equal(t, tc.want, Classify(tc.err), "%v", tc.err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(log.InfoLevel, &buf)
	l.Debug("hidden")
	l.WithField("scans", 3).Info("done")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, `msg=done`)
	assert.Contains(t, out, "scans=3")
}
