package votes

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pittpv/happy-vote-app/internal/chain"
)

// stubContract is a canned ContractClient.
type stubContract struct {
	happy, sad *big.Int
	votesErr   error

	canVote    bool
	canVoteErr error
	remaining  *big.Int

	lbAddrs  []string
	lbCounts []*big.Int
	lbErr    error

	hasRefund  bool
	refundOn   bool
	refundErr  error
	votesCalls int
}

func (s *stubContract) Votes(ctx context.Context) (*big.Int, *big.Int, error) {
	s.votesCalls++
	return s.happy, s.sad, s.votesErr
}

func (s *stubContract) CanVote(ctx context.Context, voter string) (bool, error) {
	return s.canVote, s.canVoteErr
}

func (s *stubContract) TimeUntilNextVote(ctx context.Context, voter string) (*big.Int, error) {
	if s.canVote {
		return nil, fmt.Errorf("timeUntilNextVote queried for a voter who can vote")
	}
	return s.remaining, nil
}

func (s *stubContract) HappyLeaderboard(ctx context.Context) ([]string, []*big.Int, error) {
	return s.lbAddrs, s.lbCounts, s.lbErr
}

func (s *stubContract) HasFunction(name string) bool {
	return name != "refundEnabled" || s.hasRefund
}

func (s *stubContract) RefundEnabled(ctx context.Context) (bool, error) {
	return s.refundOn, s.refundErr
}

func newTestReader(t *testing.T, stub *stubContract) *Reader {
	t.Helper()
	return NewReader(chain.NewRegistry(nil), nil, WithBinder(
		func(n *chain.Network) (ContractClient, error) { return stub, nil },
	))
}

const voter = "0x1111111111111111111111111111111111111111"

// ---------------------------------------------------------------------------
// Tally
// ---------------------------------------------------------------------------

func TestTallyReads(t *testing.T) {
	r := newTestReader(t, &stubContract{happy: big.NewInt(10), sad: big.NewInt(5)})
	tally := r.Tally(context.Background(), "monad-testnet")
	assert.Equal(t, Tally{Happy: 10, Sad: 5}, tally)
}

func TestTallyFailsSoftOnReadError(t *testing.T) {
	r := newTestReader(t, &stubContract{votesErr: fmt.Errorf("boom")})
	tally := r.Tally(context.Background(), "monad-testnet")
	assert.Equal(t, Tally{}, tally)
}

func TestTallyFailsSoftOnUnknownNetwork(t *testing.T) {
	r := newTestReader(t, &stubContract{})
	assert.Equal(t, Tally{}, r.Tally(context.Background(), "mainnet"))
}

func TestTallyClampsWideValues(t *testing.T) {
	wide := new(big.Int).Lsh(big.NewInt(1), 120)
	r := newTestReader(t, &stubContract{happy: wide, sad: big.NewInt(1)})
	tally := r.Tally(context.Background(), "monad-testnet")
	assert.Equal(t, int64(1<<53-1), tally.Happy)
	assert.Equal(t, int64(1), tally.Sad)
}

// ---------------------------------------------------------------------------
// Cooldown
// ---------------------------------------------------------------------------

func TestCooldownCanVoteSkipsCountdownQuery(t *testing.T) {
	// The stub errors if timeUntilNextVote is called while canVote is true.
	r := newTestReader(t, &stubContract{canVote: true})
	cd, err := r.Cooldown(context.Background(), "monad-testnet", voter)
	require.NoError(t, err)
	assert.True(t, cd.CanVote)
	assert.Nil(t, cd.SecondsRemaining)
}

func TestCooldownBlockedReportsClampedSeconds(t *testing.T) {
	r := newTestReader(t, &stubContract{canVote: false, remaining: big.NewInt(86400)})
	cd, err := r.Cooldown(context.Background(), "monad-testnet", voter)
	require.NoError(t, err)
	assert.False(t, cd.CanVote)
	require.NotNil(t, cd.SecondsRemaining)
	assert.Equal(t, int64(86400), *cd.SecondsRemaining)
}

func TestCooldownClampsAbsurdCountdown(t *testing.T) {
	r := newTestReader(t, &stubContract{canVote: false, remaining: big.NewInt(99_999_999_999)})
	cd, err := r.Cooldown(context.Background(), "monad-testnet", voter)
	require.NoError(t, err)
	require.NotNil(t, cd.SecondsRemaining)
	assert.Equal(t, int64(31_536_000), *cd.SecondsRemaining)
}

func TestCooldownRejectsMalformedAddress(t *testing.T) {
	r := newTestReader(t, &stubContract{canVote: true})
	_, err := r.Cooldown(context.Background(), "monad-testnet", "0x1234")
	assert.Error(t, err)
}

func TestCooldownPropagatesCanVoteError(t *testing.T) {
	r := newTestReader(t, &stubContract{canVoteErr: fmt.Errorf("node down")})
	_, err := r.Cooldown(context.Background(), "monad-testnet", voter)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Leaderboard
// ---------------------------------------------------------------------------

func TestLeaderboardValidEntries(t *testing.T) {
	r := newTestReader(t, &stubContract{
		lbAddrs:  []string{voter, "0x2222222222222222222222222222222222222222"},
		lbCounts: []*big.Int{big.NewInt(9), big.NewInt(4)},
	})
	entries, err := r.Leaderboard(context.Background(), "monad-testnet")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, LeaderboardEntry{Address: voter, HappyCount: 9}, entries[0])
}

func TestLeaderboardDropsMalformedAddress(t *testing.T) {
	r := newTestReader(t, &stubContract{
		lbAddrs:  []string{"not-an-address", voter},
		lbCounts: []*big.Int{big.NewInt(9), big.NewInt(4)},
	})
	entries, err := r.Leaderboard(context.Background(), "monad-testnet")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, voter, entries[0].Address)
}

func TestLeaderboardDropsNonPositiveCounts(t *testing.T) {
	r := newTestReader(t, &stubContract{
		lbAddrs:  []string{voter, "0x2222222222222222222222222222222222222222"},
		lbCounts: []*big.Int{big.NewInt(0), big.NewInt(-3)},
	})
	entries, err := r.Leaderboard(context.Background(), "monad-testnet")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLeaderboardLengthMismatch(t *testing.T) {
	r := newTestReader(t, &stubContract{
		lbAddrs:  []string{voter},
		lbCounts: []*big.Int{big.NewInt(1), big.NewInt(2)},
	})
	_, err := r.Leaderboard(context.Background(), "monad-testnet")
	assert.Error(t, err)
}

func TestLeaderboardEmptyOnUnsupportedNetwork(t *testing.T) {
	r := newTestReader(t, &stubContract{
		lbAddrs:  []string{voter},
		lbCounts: []*big.Int{big.NewInt(1)},
	})
	entries, err := r.Leaderboard(context.Background(), "optimism")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// ---------------------------------------------------------------------------
// FeatureFlag
// ---------------------------------------------------------------------------

func TestFeatureFlagAbsentFromABI(t *testing.T) {
	r := newTestReader(t, &stubContract{hasRefund: false, refundOn: true})
	assert.False(t, r.FeatureFlag(context.Background(), "monad-testnet", "refundEnabled"))
}

func TestFeatureFlagEnabled(t *testing.T) {
	r := newTestReader(t, &stubContract{hasRefund: true, refundOn: true})
	assert.True(t, r.FeatureFlag(context.Background(), "monad-testnet", "refundEnabled"))
}

func TestFeatureFlagReadErrorIsFalse(t *testing.T) {
	r := newTestReader(t, &stubContract{hasRefund: true, refundErr: fmt.Errorf("boom")})
	assert.False(t, r.FeatureFlag(context.Background(), "monad-testnet", "refundEnabled"))
}

func TestFeatureFlagUnknownFlagIsFalse(t *testing.T) {
	r := newTestReader(t, &stubContract{})
	assert.False(t, r.FeatureFlag(context.Background(), "monad-testnet", "somethingElse"))
}

// ---------------------------------------------------------------------------
// Snapshot / binding
// ---------------------------------------------------------------------------

func TestSnapshotWithoutAddressDefaultsToCanVote(t *testing.T) {
	r := newTestReader(t, &stubContract{happy: big.NewInt(2), sad: big.NewInt(1)})
	st := r.Snapshot(context.Background(), "monad-testnet", "")
	assert.Equal(t, Tally{Happy: 2, Sad: 1}, st.Tally)
	assert.True(t, st.Cooldown.CanVote)
}

func TestSnapshotLeaderboardErrorDegrades(t *testing.T) {
	r := newTestReader(t, &stubContract{
		happy: big.NewInt(2), sad: big.NewInt(1),
		canVote: true,
		lbErr:   fmt.Errorf("boom"),
	})
	st := r.Snapshot(context.Background(), "monad-testnet", voter)
	assert.Equal(t, Tally{Happy: 2, Sad: 1}, st.Tally)
	assert.Nil(t, st.Leaderboard)
}

func TestReaderCachesClientPerNetwork(t *testing.T) {
	binds := 0
	stub := &stubContract{happy: big.NewInt(1), sad: big.NewInt(1)}
	r := NewReader(chain.NewRegistry(nil), nil, WithBinder(
		func(n *chain.Network) (ContractClient, error) {
			binds++
			return stub, nil
		},
	))
	r.Tally(context.Background(), "monad-testnet")
	r.Tally(context.Background(), "monad-testnet")
	assert.Equal(t, 1, binds)
	assert.Equal(t, 2, stub.votesCalls)
}

func TestDefaultBinderRefusesSentinelContract(t *testing.T) {
	r := NewReader(chain.NewRegistry(nil), nil)
	_, err := r.Cooldown(context.Background(), "optimism", voter)
	assert.ErrorIs(t, err, ErrContractNotConfigured)
}

func TestDefaultBinderRefusesDisallowedRPC(t *testing.T) {
	r := NewReader(chain.NewRegistry(nil), nil)
	_, err := r.bindDefault(&chain.Network{
		Key:             "local",
		ContractAddress: "0x3F6a9D2c8E1b4A7f0C5d8E2a6B9c1D4e7F0A3b58",
		RPCs:            []string{"http://127.0.0.1:8545"},
	})
	assert.ErrorIs(t, err, ErrRPCNotAllowed)
}
