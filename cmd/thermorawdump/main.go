// Command thermorawdump writes every mass spectrometer scan of an
// instrument file to stdout as a text and binary record stream.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Shamus03/go-rawdump/dump"
	"github.com/Shamus03/go-rawdump/internal/config"
	"github.com/Shamus03/go-rawdump/internal/diag"
	"github.com/Shamus03/go-rawdump/internal/registry"
)

// usageError messages are printed verbatim after the ERROR: prefix.
type usageError string

func (e usageError) Error() string { return string(e) }

func (e usageError) Code() diag.Code { return diag.CodeUsage }

const errArgs = usageError("This program accepts exactly 1 argument: a RAW file path")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Environ()))
}

// run is main without the process: it returns the exit code.
func run(args []string, stdout, stderr io.Writer, environ []string) (code int) {
	out := bufio.NewWriter(stdout)
	logger := diag.NewLogger(log.WarnLevel, stderr)

	defer func() {
		if p := recover(); p != nil {
			code = fail(out, logger, errors.Errorf("%v", p))
		}
		if err := out.Flush(); err != nil && code == 0 {
			logger.WithError(err).Error("flush stdout")
			code = 1
		}
	}()

	if err := mainErr(args, out, environ, logger); err != nil {
		return fail(out, logger, err)
	}
	return 0
}

func fail(out *bufio.Writer, logger *log.Logger, err error) int {
	logger.WithField("code", diag.Classify(err)).Debugf("%+v", err)
	fmt.Fprintf(out, "ERROR: %s\n", err)
	return 1
}

func mainErr(args []string, out io.Writer, environ []string, logger *log.Logger) error {
	if len(args) != 1 {
		return errArgs
	}
	path := args[0]
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return usageError("Unable to read RAW file " + path)
	}

	cfg, err := config.FromEnv(environ)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	name, open, err := registry.Lookup(cfg.Reader, path)
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{"reader": name, "path": path}).Info("opening file")

	r, err := open(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.WithError(err).Warn("close file")
		}
	}()

	st, err := dump.New(r, out, logger).Run()
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{
		"scans":  st.Scans,
		"points": humanize.Comma(st.Points),
		"bytes":  humanize.Bytes(uint64(st.Bytes)),
	}).Info("dump complete")
	return nil
}
