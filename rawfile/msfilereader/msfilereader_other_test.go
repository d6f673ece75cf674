//go:build !windows

package msfilereader

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/Shamus03/go-rawdump/rawfile"
)

func TestOpenUnsupported(t *testing.T) {
	r, err := Open("run.raw")
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, rawfile.ErrUnsupported))
	assert.Contains(t, err.Error(), "run.raw")
}
