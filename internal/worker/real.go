//go:build unix

package worker

import (
	"fmt"
	"os/exec"
	"syscall"
)

// RealProcess runs the miner as a child process under nice, controlled
// with job control signals.
type RealProcess struct {
	cmd *exec.Cmd
}

// NewRealProcess prepares (but does not start) the worker process.
func NewRealProcess(cfg Config) *RealProcess {
	return &RealProcess{
		cmd: exec.Command("/usr/bin/nice", cfg.Args()...),
	}
}

// Start launches the process.
func (p *RealProcess) Start() error {
	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("launch worker: %w", err)
	}
	return nil
}

// Suspend sends SIGSTOP. A process that has already exited is tolerated.
func (p *RealProcess) Suspend() error {
	return p.signal(syscall.SIGSTOP)
}

// Resume sends SIGCONT.
func (p *RealProcess) Resume() error {
	return p.signal(syscall.SIGCONT)
}

// Terminate sends SIGTERM. A stopped process will not handle SIGTERM, so
// resume it first.
func (p *RealProcess) Terminate() error {
	if err := p.signal(syscall.SIGCONT); err != nil {
		return err
	}
	return p.signal(syscall.SIGTERM)
}

// Wait blocks until the process exits. The miner is killed with SIGTERM
// and exits with a non-zero status, which is not an error here.
func (p *RealProcess) Wait() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return fmt.Errorf("wait for worker: %w", err)
	}
	return nil
}

func (p *RealProcess) signal(sig syscall.Signal) error {
	if p.cmd.Process == nil {
		return fmt.Errorf("worker not started")
	}
	if err := p.cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("signal worker (%v): %w", sig, err)
	}
	return nil
}
