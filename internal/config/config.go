// Package config reads the tool's settings from the environment.
package config

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Shamus03/go-rawdump/internal/registry"
)

const (
	EnvReader   = "RAWDUMP_READER"
	EnvLogLevel = "RAWDUMP_LOG_LEVEL"
)

// ErrInvalid marks a setting that does not parse.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the effective settings.
type Config struct {
	Reader   string
	LogLevel log.Level
}

// Default is used for every variable that is unset or empty.
func Default() Config {
	return Config{Reader: registry.Auto, LogLevel: log.WarnLevel}
}

// FromEnv overlays environ, in os.Environ form, onto Default.
func FromEnv(environ []string) (Config, error) {
	c := Default()
	env := lookup(environ)

	if v := env[EnvReader]; v != "" {
		v = strings.ToLower(v)
		if _, ok := registry.Reader[v]; !ok && v != registry.Auto {
			return c, errors.Wrapf(ErrInvalid, "%s=%q: want %s or one of %s",
				EnvReader, v, registry.Auto, strings.Join(registry.Names(), ", "))
		}
		c.Reader = v
	}
	if v := env[EnvLogLevel]; v != "" {
		lvl, err := log.ParseLevel(v)
		if err != nil {
			return c, errors.Wrapf(ErrInvalid, "%s: %v", EnvLogLevel, err)
		}
		c.LogLevel = lvl
	}
	return c, nil
}

// lookup indexes environ; later entries win, as with os.Getenv.
func lookup(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = strings.TrimSpace(v)
		}
	}
	return env
}
