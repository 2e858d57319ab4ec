// Package votes holds the derived vote state, the read client that populates
// it, and the transaction pipeline that changes it.
package votes

// LeaderboardDisplayLimit is how many leaderboard entries are shown by
// default; the remainder stays available behind an expandable section.
const LeaderboardDisplayLimit = 10

// Tally is the aggregate vote count per outcome. Values are clamped to the
// safe integer range on the way in.
type Tally struct {
	Happy int64
	Sad   int64
}

// Total returns the number of votes cast.
func (t Tally) Total() int64 { return t.Happy + t.Sad }

// HappyPercent returns the happy share in [0,100]. Zero votes reads as 0/0.
func (t Tally) HappyPercent() float64 {
	if t.Total() == 0 {
		return 0
	}
	return float64(t.Happy) / float64(t.Total()) * 100
}

// SadPercent returns the sad share in [0,100].
func (t Tally) SadPercent() float64 {
	if t.Total() == 0 {
		return 0
	}
	return float64(t.Sad) / float64(t.Total()) * 100
}

// Cooldown is the caller's voting eligibility. SecondsRemaining is nil
// exactly when CanVote is true; NewCooldown enforces that invariant.
type Cooldown struct {
	CanVote          bool
	SecondsRemaining *int64
}

// NewCooldown builds a Cooldown honoring the nil-iff-can-vote invariant.
// seconds is ignored when canVote is true.
func NewCooldown(canVote bool, seconds int64) Cooldown {
	if canVote {
		return Cooldown{CanVote: true}
	}
	return Cooldown{CanVote: false, SecondsRemaining: &seconds}
}

// LeaderboardEntry is one validated leaderboard row.
type LeaderboardEntry struct {
	Address    string
	HappyCount int64
}

// State is the full derived vote state for one network, recomputed after
// every successful read or confirmed write.
type State struct {
	Tally       Tally
	Cooldown    Cooldown
	Leaderboard []LeaderboardEntry
}

// SplitLeaderboard cuts entries into the default-visible prefix and the
// expandable remainder.
func SplitLeaderboard(entries []LeaderboardEntry) (visible, rest []LeaderboardEntry) {
	if len(entries) <= LeaderboardDisplayLimit {
		return entries, nil
	}
	return entries[:LeaderboardDisplayLimit], entries[LeaderboardDisplayLimit:]
}
