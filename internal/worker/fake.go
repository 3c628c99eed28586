package worker

import "sync"

// FakeProcess records lifecycle calls for scheduler tests.
type FakeProcess struct {
	mu sync.Mutex

	// Calls is the ordered sequence of lifecycle calls
	// ("start", "suspend", "resume", "terminate", "wait").
	Calls []string

	// StartError, SuspendError, ResumeError, if set, are returned by the
	// corresponding call.
	StartError   error
	SuspendError error
	ResumeError  error

	// Waited reports whether Wait was called.
	Waited bool
}

// NewFakeProcess creates a FakeProcess.
func NewFakeProcess() *FakeProcess {
	return &FakeProcess{}
}

// Start records the call.
func (f *FakeProcess) Start() error {
	f.record("start")
	return f.StartError
}

// Suspend records the call.
func (f *FakeProcess) Suspend() error {
	f.record("suspend")
	return f.SuspendError
}

// Resume records the call.
func (f *FakeProcess) Resume() error {
	f.record("resume")
	return f.ResumeError
}

// Terminate records the call.
func (f *FakeProcess) Terminate() error {
	f.record("terminate")
	return nil
}

// Wait records the call and returns immediately.
func (f *FakeProcess) Wait() error {
	f.record("wait")
	f.mu.Lock()
	f.Waited = true
	f.mu.Unlock()
	return nil
}

func (f *FakeProcess) record(call string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	f.mu.Unlock()
}

// CallSequence returns a copy of the recorded calls.
func (f *FakeProcess) CallSequence() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	copy(out, f.Calls)
	return out
}

// Count returns how many times the named call was recorded.
func (f *FakeProcess) Count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == call {
			n++
		}
	}
	return n
}
