// Command rawdumpinfo summarizes a thermorawdump stream read from stdin.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Shamus03/go-rawdump/dump"
	"github.com/Shamus03/go-rawdump/internal/config"
	"github.com/Shamus03/go-rawdump/internal/diag"
)

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr, os.Environ()))
}

type summary struct {
	declared int
	scans    int
	points   int64
	levels   map[int]int
	bytes    int64
}

// countingReader counts bytes consumed from r.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func run(stdin io.Reader, stdout, stderr io.Writer, environ []string) int {
	logger := diag.NewLogger(log.WarnLevel, stderr)
	cfg, err := config.FromEnv(environ)
	if err != nil {
		fmt.Fprintf(stdout, "ERROR: %s\n", err)
		return 1
	}
	logger.SetLevel(cfg.LogLevel)

	sum, err := summarize(stdin, logger)
	if err != nil {
		logger.WithField("code", diag.Classify(err)).Debugf("%+v", err)
		fmt.Fprintf(stdout, "ERROR: %s\n", err)
		return 1
	}

	w := bufio.NewWriter(stdout)
	sum.print(w)
	if err := w.Flush(); err != nil {
		logger.WithError(err).Error("write summary")
		return 1
	}
	return 0
}

func summarize(r io.Reader, logger log.FieldLogger) (*summary, error) {
	cr := &countingReader{r: r}
	d := dump.NewDecoder(cr)
	total, err := d.Total()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	sum := &summary{declared: total, levels: map[int]int{}}
	for {
		s, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "after %d scans", sum.scans)
		}
		sum.scans++
		sum.points += int64(s.Points())
		sum.levels[s.MSLevel]++
		logger.WithFields(log.Fields{"scan": s.Number, "points": s.Points()}).Debug("scan read")
	}
	sum.bytes = cr.n
	if sum.scans != sum.declared {
		logger.WithFields(log.Fields{"declared": sum.declared, "read": sum.scans}).Warn("scan count differs from header")
	}
	return sum, nil
}

func (s *summary) print(w io.Writer) {
	fmt.Fprintf(w, "scans:    %d (header says %d)\n", s.scans, s.declared)
	levels := make([]int, 0, len(s.levels))
	for l := range s.levels {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	for _, l := range levels {
		fmt.Fprintf(w, "  ms%d:    %d\n", l, s.levels[l])
	}
	fmt.Fprintf(w, "points:   %s\n", humanize.Comma(s.points))
	fmt.Fprintf(w, "bytes:    %s\n", humanize.Bytes(uint64(s.bytes)))
}
