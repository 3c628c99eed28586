// Package heartbeat reports liveness to the remote aggregator and folds
// its response (global donated total, recruit count) back onto the
// control loop. All requests are fire-and-forget: failures are logged
// and superseded by the next natural heartbeat.
package heartbeat

// DefaultBaseURL is the aggregator API root.
const DefaultBaseURL = "https://www.computeforhumanity.org/api/v1"

// Update is the useful part of a heartbeat response.
type Update struct {
	// Donated is the aggregator's display string for the global
	// donation total, e.g. "$1,234".
	Donated string

	// Recruits is the number of referred users, if reported.
	Recruits    int
	HasRecruits bool
}

// Reporter is the aggregator-facing surface the scheduler and control
// endpoints use.
type Reporter interface {
	// ReportActive tells the aggregator this node is eligible to run.
	// With includeIdentity false the request omits the identity, acting
	// as a read-only probe that still retrieves global totals.
	ReportActive(includeIdentity bool)

	// ReportInactive tells the aggregator this node stopped running.
	ReportInactive()

	// SubmitDonation records a donation vote for a charity. Best-effort
	// telemetry: nothing locally depends on its outcome.
	SubmitDonation(charityID string, amount int)
}
