// Package store persists the ledger record as a single JSON document with
// atomic replace. The real implementation writes a temp file and renames
// it into place; the fake keeps the record in memory for tests.
package store

// Record is the full persisted ledger state. Fields missing from an older
// document default to their zero values on load; a missing UUID is
// generated by the ledger, not here.
type Record struct {
	UUID         string   `json:"uuid"`
	Points       int      `json:"hearts"`
	DonatedTotal int      `json:"donated_hearts"`
	RecruitCount int      `json:"n_recruits"`
	Achievements []string `json:"achievements"`
	HighCPUMode  bool     `json:"use_more_cpu"`
}

// Store loads and saves the ledger record.
type Store interface {
	// Load reads the record. The bool reports whether a document existed;
	// if false, the zero Record is returned with a nil error.
	Load() (Record, bool, error)

	// Save writes the full record durably (atomic replace).
	Save(Record) error
}
