package heartbeat

import "sync"

// FakeReporter records reports for scheduler tests.
type FakeReporter struct {
	mu sync.Mutex

	// ActiveCalls holds the includeIdentity flag of each ReportActive.
	ActiveCalls []bool

	// InactiveCalls counts ReportInactive calls.
	InactiveCalls int

	// Donations records SubmitDonation calls.
	Donations []Donation
}

// Donation is one recorded SubmitDonation call.
type Donation struct {
	CharityID string
	Amount    int
}

// NewFakeReporter creates a FakeReporter.
func NewFakeReporter() *FakeReporter {
	return &FakeReporter{}
}

// ReportActive records the call.
func (f *FakeReporter) ReportActive(includeIdentity bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ActiveCalls = append(f.ActiveCalls, includeIdentity)
}

// ReportInactive records the call.
func (f *FakeReporter) ReportInactive() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InactiveCalls++
}

// SubmitDonation records the call.
func (f *FakeReporter) SubmitDonation(charityID string, amount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Donations = append(f.Donations, Donation{CharityID: charityID, Amount: amount})
}

// ActiveCount returns how many times ReportActive was called.
func (f *FakeReporter) ActiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ActiveCalls)
}

// InactiveCount returns how many times ReportInactive was called.
func (f *FakeReporter) InactiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.InactiveCalls
}
