//go:build !linux

package thermal

import "errors"

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(limit int) (*RealReader, error) {
	return nil, errors.New("thermal: not supported on this platform (requires Linux sysfs)")
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (bool, error) {
	return false, errors.New("thermal: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error { return nil }
