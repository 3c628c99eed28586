package store

import "sync"

// FakeStore is an in-memory Store for tests.
type FakeStore struct {
	mu sync.Mutex

	// Rec is the stored record; set it before Load to simulate an
	// existing document.
	Rec Record

	// Exists controls whether Load reports a document.
	Exists bool

	// LoadError and SaveError, if set, are returned by Load/Save.
	LoadError error
	SaveError error

	// Saves counts successful Save calls.
	Saves int
}

// NewFakeStore creates an empty FakeStore (no document).
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Load returns the configured record.
func (f *FakeStore) Load() (Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LoadError != nil {
		return Record{}, false, f.LoadError
	}
	return f.Rec, f.Exists, nil
}

// Save stores the record in memory.
func (f *FakeStore) Save(rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveError != nil {
		return f.SaveError
	}
	f.Rec = rec
	f.Exists = true
	f.Saves++
	return nil
}

// Saved returns the last saved record and the save count.
func (f *FakeStore) Saved() (Record, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Rec, f.Saves
}
