// Package achieve contains the pure achievement rule tables. Rules are
// evaluated against ledger events and return the IDs that the event
// unlocks; applying them is the ledger's job and is idempotent, so
// re-evaluating the same event twice is always safe.
// This package has NO external dependencies; time is always passed in.
package achieve

import "time"

// ID identifies a single achievement. The IDs are the emoji strings the
// original data files persisted, so existing records remain readable.
type ID string

const (
	// Points milestone.
	Reached42 ID = "👽"

	// Donation achievements.
	FirstDonation ID = "💌"
	RepeatDonor   ID = "💕"
	BigDonation   ID = "💝"
	Donated10K    ID = "🏅"
	MidnightGift  ID = "🌜"
	NoonGift      ID = "🌞"

	// Calendar achievements (at most one per donation, first match wins).
	NewYearsDay  ID = "☄️"
	Valentines   ID = "🌹"
	LeapDay      ID = "🗓"
	StPatricks   ID = "🍀"
	AprilFools   ID = "🙃"
	EarthDay     ID = "🌎"
	IndependDay  ID = "🇺🇸"
	PeaceDay     ID = "🕊"
	Halloween    ID = "🎃"
	Christmas    ID = "🎄"
	NewYearsEve  ID = "🎊"

	// Recruit thresholds.
	Recruited1   ID = "💑"
	Recruited3   ID = "📬"
	Recruited10  ID = "🗣"
	Recruited25  ID = "💪"
	Recruited75  ID = "🏋"
	Recruited200 ID = "🎖"
)

// Rule describes one achievement for display purposes. Requires gates
// visibility in listings only: an achievement whose prerequisite is still
// locked is hidden, but it can still be unlocked by its own rule.
type Rule struct {
	Text     string
	Requires ID // "" means always visible
}

// Rules is the static achievement table, keyed by ID.
var Rules = map[ID]Rule{
	Reached42: {Text: "Earn 42 hearts"},

	FirstDonation: {Text: "Donate your hearts for the first time"},
	RepeatDonor:   {Text: "Donate a second time", Requires: FirstDonation},
	BigDonation:   {Text: "Donate 500 or more hearts at once", Requires: FirstDonation},
	Donated10K:    {Text: "Donate 10,000 hearts in total", Requires: BigDonation},
	MidnightGift:  {Text: "Donate at the stroke of midnight", Requires: FirstDonation},
	NoonGift:      {Text: "Donate exactly at noon", Requires: FirstDonation},

	NewYearsDay: {Text: "Donate on New Year's Day", Requires: FirstDonation},
	Valentines:  {Text: "Donate on Valentine's Day", Requires: FirstDonation},
	LeapDay:     {Text: "Donate on leap day", Requires: FirstDonation},
	StPatricks:  {Text: "Donate on St. Patrick's Day", Requires: FirstDonation},
	AprilFools:  {Text: "Donate on April Fools' Day", Requires: FirstDonation},
	EarthDay:    {Text: "Donate on Earth Day", Requires: FirstDonation},
	IndependDay: {Text: "Donate on the Fourth of July", Requires: FirstDonation},
	PeaceDay:    {Text: "Donate on the International Day of Peace", Requires: FirstDonation},
	Halloween:   {Text: "Donate on Halloween", Requires: FirstDonation},
	Christmas:   {Text: "Donate on Christmas", Requires: FirstDonation},
	NewYearsEve: {Text: "Donate on New Year's Eve", Requires: FirstDonation},

	Recruited1:   {Text: "Recruit a friend"},
	Recruited3:   {Text: "Recruit 3 friends", Requires: Recruited1},
	Recruited10:  {Text: "Recruit 10 friends", Requires: Recruited3},
	Recruited25:  {Text: "Recruit 25 friends", Requires: Recruited10},
	Recruited75:  {Text: "Recruit 75 friends", Requires: Recruited25},
	Recruited200: {Text: "Recruit 200 friends", Requires: Recruited75},
}

// calendarDays is the fixed evaluation order for calendar achievements.
// The chain is exclusive: only the first matching day fires, so two
// calendar achievements can never come from the same donation. Existing
// unlocked-state semantics depend on this, so keep it an if/else chain
// in spirit even though no two entries share a date.
var calendarDays = []struct {
	month time.Month
	day   int
	id    ID
}{
	{time.January, 1, NewYearsDay},
	{time.February, 14, Valentines},
	{time.February, 29, LeapDay},
	{time.March, 17, StPatricks},
	{time.April, 1, AprilFools},
	{time.April, 22, EarthDay},
	{time.July, 4, IndependDay},
	{time.September, 21, PeaceDay},
	{time.October, 31, Halloween},
	{time.December, 25, Christmas},
	{time.December, 31, NewYearsEve},
}

// ForPoints returns achievements unlocked by the points balance reaching v.
func ForPoints(v int) []ID {
	if v >= 42 {
		return []ID{Reached42}
	}
	return nil
}

// ForDonation returns achievements unlocked by a single donation.
// amount is the hearts donated now, alreadyDonated the total before this
// donation, totalDonated the total after, and at the local wall-clock
// time of the action.
func ForDonation(amount, alreadyDonated, totalDonated int, at time.Time) []ID {
	ids := []ID{FirstDonation}

	if alreadyDonated > 0 {
		ids = append(ids, RepeatDonor)
	}
	if amount >= 500 {
		ids = append(ids, BigDonation)
	}
	if totalDonated >= 10000 {
		ids = append(ids, Donated10K)
	}

	// 1-based minute ordinal within the day: 00:00 is 1, 12:00 is 721.
	minuteOfDay := at.Hour()*60 + at.Minute() + 1
	if minuteOfDay == 1 {
		ids = append(ids, MidnightGift)
	}
	if minuteOfDay == 721 {
		ids = append(ids, NoonGift)
	}

	for _, c := range calendarDays {
		if at.Month() == c.month && at.Day() == c.day {
			ids = append(ids, c.id)
			break
		}
	}

	return ids
}

// ForRecruits returns achievements unlocked by the recruit count reaching n.
// Unlike the calendar chain, all matching thresholds fire: a single update
// can cross several at once.
func ForRecruits(n int) []ID {
	var ids []ID
	for _, t := range []struct {
		min int
		id  ID
	}{
		{1, Recruited1},
		{3, Recruited3},
		{10, Recruited10},
		{25, Recruited25},
		{75, Recruited75},
		{200, Recruited200},
	} {
		if n >= t.min {
			ids = append(ids, t.id)
		}
	}
	return ids
}

// Visible filters Rules down to the IDs whose prerequisite is satisfied
// by the unlocked set, for display listings. Order is unspecified.
func Visible(unlocked map[ID]bool) []ID {
	var ids []ID
	for id, rule := range Rules {
		if rule.Requires == "" || unlocked[rule.Requires] {
			ids = append(ids, id)
		}
	}
	return ids
}
