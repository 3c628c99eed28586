// Package gpio reads an optional physical pause switch with hardware
// abstraction. The real implementation uses the Linux GPIO character
// device; the fake allows testing without hardware. The switch is wired
// active-low between the pin and ground, with the internal pull-up
// keeping the line high while the switch is open.
package gpio

// Reader reads the pause switch state.
type Reader interface {
	// Read returns the logical switch state: true means the user has
	// paused the worker.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPinPause is the default BCM pin for the pause switch.
const DefaultPinPause = 17
