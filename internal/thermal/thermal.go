// Package thermal reads the host's thermal state as a single
// safe-to-run boolean. The real implementation polls the Linux sysfs
// thermal zone; the fake returns scripted samples for tests.
package thermal

// Reader reads the thermal state.
type Reader interface {
	// Read reports whether the device is cool enough to run the worker.
	Read() (bool, error)

	// Close releases any resources.
	Close() error
}

// DefaultLimitMillideg is the default safe threshold in millidegrees
// Celsius. At or above this reading the worker stays suspended.
const DefaultLimitMillideg = 80000
