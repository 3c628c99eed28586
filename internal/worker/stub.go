//go:build !unix

package worker

import "errors"

// RealProcess is not available on non-Unix platforms.
type RealProcess struct{}

// NewRealProcess returns a stub on non-Unix platforms.
func NewRealProcess(cfg Config) *RealProcess {
	return &RealProcess{}
}

// Start always fails on non-Unix platforms.
func (p *RealProcess) Start() error {
	return errors.New("worker: not supported on this platform (requires Unix job control)")
}

// Suspend is not implemented on non-Unix platforms.
func (p *RealProcess) Suspend() error { return errors.New("worker: not supported") }

// Resume is not implemented on non-Unix platforms.
func (p *RealProcess) Resume() error { return errors.New("worker: not supported") }

// Terminate is not implemented on non-Unix platforms.
func (p *RealProcess) Terminate() error { return errors.New("worker: not supported") }

// Wait is not implemented on non-Unix platforms.
func (p *RealProcess) Wait() error { return nil }
