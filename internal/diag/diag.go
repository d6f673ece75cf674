// Package diag builds the stderr logger and classifies failures for it.
package diag

import (
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Shamus03/go-rawdump/dump"
	"github.com/Shamus03/go-rawdump/internal/config"
	"github.com/Shamus03/go-rawdump/internal/registry"
	"github.com/Shamus03/go-rawdump/rawfile"
)

// NewLogger returns a text logger at level writing to w.
func NewLogger(level log.Level, w io.Writer) *log.Logger {
	l := log.New()
	l.Out = w
	l.Level = level
	l.Formatter = &log.TextFormatter{FullTimestamp: true, DisableColors: true}
	return l
}

// Code is a coarse failure class, logged next to the error.
type Code string

const (
	CodeUnknown     Code = "unknown"
	CodeUsage       Code = "usage"
	CodeInput       Code = "input"
	CodeFormat      Code = "format"
	CodeIO          Code = "io"
	CodeUnsupported Code = "unsupported"
)

// Coder is an error that carries its own Code.
type Coder interface {
	Code() Code
}

// Classify maps err to a Code using Coder, sentinels and error types only.
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	if errors.Is(err, config.ErrInvalid) || errors.Is(err, registry.ErrUnknownReader) {
		return CodeUsage
	}
	if errors.Is(err, rawfile.ErrUnsupported) {
		return CodeUnsupported
	}
	if errors.Is(err, rawfile.ErrFormat) || errors.Is(err, dump.ErrSyntax) {
		return CodeFormat
	}
	if errors.Is(err, rawfile.ErrNoController) ||
		errors.Is(err, rawfile.ErrNoScan) ||
		errors.Is(err, rawfile.ErrNoFilter) {
		return CodeInput
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}
