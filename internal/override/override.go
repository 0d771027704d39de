package override

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CommonMarker is the marker name shared by every service on the host.
const CommonMarker = "common"

// Marker is the optional content of a marker file. No field is acted on yet.
type Marker struct {
	Reason  string `yaml:"reason"`
	Expires string `yaml:"expires"`
}

// Result describes an override check.
type Result struct {
	ForcedDown bool
	// Path of the marker that forced the override.
	Path   string
	Marker Marker
}

type Checker struct {
	dir         string
	serviceName string
	logger      *slog.Logger
}

// New returns a Checker looking in dir. An empty serviceName only checks the
// common marker.
func New(dir, serviceName string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{dir: dir, serviceName: serviceName, logger: logger}
}

// IsForcedDown reports whether any marker is present.
func (c *Checker) IsForcedDown() bool {
	return c.Check().ForcedDown
}

// Check looks for the service marker, then the common marker.
func (c *Checker) Check() Result {
	names := make([]string, 0, 2)
	if c.serviceName != "" {
		names = append(names, c.serviceName)
	}
	names = append(names, CommonMarker)

	for _, name := range names {
		path := filepath.Join(c.dir, name)
		marker, present := c.load(path)
		if present {
			return Result{ForcedDown: true, Path: path, Marker: marker}
		}
	}

	return Result{}
}

func (c *Checker) load(path string) (Marker, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Marker{}, false
		}
		c.logger.Warn("Admin down marker unreadable, treating as present",
			slog.String("path", path),
			slog.String("err", err.Error()))
		return Marker{}, true
	}

	var marker Marker
	if err := yaml.Unmarshal(data, &marker); err != nil {
		c.logger.Warn("Admin down marker malformed, treating as present",
			slog.String("path", path),
			slog.String("err", err.Error()))
		return Marker{}, true
	}

	return marker, true
}
