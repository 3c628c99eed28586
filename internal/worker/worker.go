// Package worker controls the external miner process: launch, suspend,
// resume, terminate. The process is opaque; only its lifecycle matters
// here. The real implementation drives a child process with POSIX job
// control signals; the fake records the signal sequence for tests.
package worker

import "strconv"

// Process is the worker lifecycle control surface.
type Process interface {
	// Start launches the process. Failure is fatal to scheduling.
	Start() error

	// Suspend pauses execution (SIGSTOP). Safe to call repeatedly.
	Suspend() error

	// Resume continues execution (SIGCONT).
	Resume() error

	// Terminate asks the process to exit (SIGTERM).
	Terminate() error

	// Wait blocks until the process has exited.
	Wait() error
}

// Config carries the launch parameters. The miner arguments are opaque
// pass-through configuration.
type Config struct {
	// Path is the miner binary.
	Path string

	// PoolURL is the remote pool connection string.
	PoolURL string

	// User and Pass are the pool credentials.
	User string
	Pass string

	// Threads is the miner thread count.
	Threads int

	// RetryPauseSeconds is the miner's error retry pause.
	RetryPauseSeconds int
}

// Args returns the argument vector for the miner, to be run under
// `nice -n 20` for the lowest CPU scheduling priority.
func (c Config) Args() []string {
	threads := c.Threads
	if threads <= 0 {
		threads = 1
	}
	retry := c.RetryPauseSeconds
	if retry <= 0 {
		retry = 10
	}
	return []string{
		"-n", "20",
		c.Path,
		"--threads=" + strconv.Itoa(threads),
		"--engine=1",
		"--quiet",
		"--retry-pause=" + strconv.Itoa(retry),
		"--url=" + c.PoolURL,
		"--user=" + c.User,
		"--pass=" + c.Pass,
	}
}
