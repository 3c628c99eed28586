package worker

import (
	"strings"
	"testing"
)

func TestConfigArgs(t *testing.T) {
	cfg := Config{
		Path:              "/opt/compute-agent/miner",
		PoolURL:           "stratum+tcp://neoscrypt.usa.nicehash.com:3341",
		User:              "12CbZWfSB5TESmFwiYs4WJRZtJyi9hBPNz",
		Pass:              "d=0.01",
		Threads:           1,
		RetryPauseSeconds: 10,
	}

	args := cfg.Args()
	want := []string{
		"-n", "20",
		"/opt/compute-agent/miner",
		"--threads=1",
		"--engine=1",
		"--quiet",
		"--retry-pause=10",
		"--url=stratum+tcp://neoscrypt.usa.nicehash.com:3341",
		"--user=12CbZWfSB5TESmFwiYs4WJRZtJyi9hBPNz",
		"--pass=d=0.01",
	}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %d: %v", len(want), len(args), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
		}
	}
}

func TestConfigArgsDefaults(t *testing.T) {
	args := Config{Path: "/bin/miner"}.Args()
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--threads=1") {
		t.Errorf("expected default thread count of 1, got %v", args)
	}
	if !strings.Contains(joined, "--retry-pause=10") {
		t.Errorf("expected default retry pause of 10, got %v", args)
	}
}

func TestFakeProcessRecordsSequence(t *testing.T) {
	f := NewFakeProcess()
	f.Start()
	f.Suspend()
	f.Resume()
	f.Terminate()
	f.Wait()

	want := []string{"start", "suspend", "resume", "terminate", "wait"}
	got := f.CallSequence()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if !f.Waited {
		t.Error("expected Waited to be set")
	}
}
