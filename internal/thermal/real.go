//go:build linux

package thermal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const defaultZonePath = "/sys/class/thermal/thermal_zone0/temp"

// RealReader reads the CPU temperature from a sysfs thermal zone.
type RealReader struct {
	path  string
	limit int // millidegrees Celsius
}

// NewRealReader creates a reader for the default thermal zone with the
// given millidegree limit.
func NewRealReader(limit int) (*RealReader, error) {
	return NewRealReaderPath(defaultZonePath, limit)
}

// NewRealReaderPath creates a reader for a specific zone file.
func NewRealReaderPath(path string, limit int) (*RealReader, error) {
	if limit <= 0 {
		limit = DefaultLimitMillideg
	}
	// Probe once so a missing zone fails at startup, not mid-loop.
	if _, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("open thermal zone: %w", err)
	}
	return &RealReader{path: path, limit: limit}, nil
}

// Read reports whether the zone temperature is below the limit.
func (r *RealReader) Read() (bool, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return false, fmt.Errorf("read thermal zone: %w", err)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, fmt.Errorf("parse thermal zone reading: %w", err)
	}
	return milli < r.limit, nil
}

// Close releases nothing; sysfs reads hold no state.
func (r *RealReader) Close() error { return nil }
