package thermal

import (
	"errors"
	"testing"
)

func TestFakeReaderScriptedSamples(t *testing.T) {
	f := NewFakeReader([]bool{true, true, false})

	want := []bool{true, true, false, false, false}
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if got != w {
			t.Errorf("read %d: got %v, want %v", i, got, w)
		}
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)
	if _, err := f.Read(); err == nil {
		t.Error("expected error with no samples configured")
	}
}

func TestFakeReaderInjectedError(t *testing.T) {
	f := NewFakeReader([]bool{true})
	f.ReadError = errors.New("sensor gone")
	if _, err := f.Read(); err == nil {
		t.Error("expected injected read error")
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]bool{true})
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed {
		t.Error("expected Closed to be set")
	}
}
