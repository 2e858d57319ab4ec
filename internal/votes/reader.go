package votes

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"github.com/pittpv/happy-vote-app/internal/chain"
	"github.com/pittpv/happy-vote-app/internal/contract"
	"github.com/pittpv/happy-vote-app/internal/validate"
)

// Configuration errors surfaced by the reader. They fail closed: the
// dependent operation is disabled rather than attempted.
var (
	ErrContractNotConfigured = errors.New("no contract deployed on this network")
	ErrRPCNotAllowed         = errors.New("RPC endpoint not on allow-list")
)

// ContractClient is the read surface the Reader needs from a bound voting
// contract. *contract.Voting satisfies it.
type ContractClient interface {
	Votes(ctx context.Context) (happy, sad *big.Int, err error)
	CanVote(ctx context.Context, voter string) (bool, error)
	TimeUntilNextVote(ctx context.Context, voter string) (*big.Int, error)
	HappyLeaderboard(ctx context.Context) ([]string, []*big.Int, error)
	HasFunction(name string) bool
	RefundEnabled(ctx context.Context) (bool, error)
}

// Reader gives read-only access to the voting contract of each network,
// independent of wallet connection state. One bound contract client is
// cached per network key for the life of the process; a cache entry is never
// repointed at a different endpoint.
type Reader struct {
	registry *chain.Registry
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[string]ContractClient

	// bind builds the contract client for a network. Swapped in tests.
	bind func(n *chain.Network) (ContractClient, error)
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithBinder replaces contract client construction (tests point it at a
// fake client, bypassing the production allow-list).
func WithBinder(bind func(n *chain.Network) (ContractClient, error)) ReaderOption {
	return func(r *Reader) { r.bind = bind }
}

// NewReader creates a Reader over the given registry.
func NewReader(registry *chain.Registry, logger *zap.Logger, opts ...ReaderOption) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reader{
		registry: registry,
		logger:   logger,
		clients:  make(map[string]ContractClient),
	}
	r.bind = r.bindDefault
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// bindDefault builds the production client: the network must have a deployed
// contract, a well-formed address, and an allow-listed RPC endpoint.
func (r *Reader) bindDefault(n *chain.Network) (ContractClient, error) {
	if !n.HasContract() {
		return nil, fmt.Errorf("%w: %s", ErrContractNotConfigured, n.Key)
	}
	if !validate.IsWellFormedAddress(n.ContractAddress) {
		return nil, fmt.Errorf("malformed contract address for %s", n.Key)
	}
	rpcURL := n.PrimaryRPC()
	if !validate.IsAllowedRPCURL(rpcURL) {
		return nil, fmt.Errorf("%w: %s", ErrRPCNotAllowed, rpcURL)
	}
	return contract.NewVoting(chain.NewEVMClient(rpcURL), n.ContractAddress), nil
}

func (r *Reader) client(key string) (ContractClient, *chain.Network, error) {
	n, err := r.registry.Resolve(key)
	if err != nil {
		return nil, nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[key]; ok {
		return c, n, nil
	}
	c, err := r.bind(n)
	if err != nil {
		return nil, nil, err
	}
	r.clients[key] = c
	return c, n, nil
}

// Tally returns the current vote counts for a network. This is a
// display-only path and fails soft: any error yields a zero tally and a log
// line, never a user-facing failure.
func (r *Reader) Tally(ctx context.Context, key string) Tally {
	c, _, err := r.client(key)
	if err != nil {
		r.logger.Debug("tally unavailable", zap.String("network", key), zap.Error(err))
		return Tally{}
	}
	happy, sad, err := c.Votes(ctx)
	if err != nil {
		r.logger.Warn("tally read failed", zap.String("network", key), zap.Error(err))
		return Tally{}
	}
	return Tally{
		Happy: validate.SafeIntFromWide(happy),
		Sad:   validate.SafeIntFromWide(sad),
	}
}

// Cooldown returns whether address may vote on the network, and if not, the
// clamped seconds remaining. The remaining time is only queried when the
// contract says the address cannot vote.
func (r *Reader) Cooldown(ctx context.Context, key, address string) (Cooldown, error) {
	if !validate.IsWellFormedAddress(address) {
		return Cooldown{}, fmt.Errorf("malformed address")
	}
	c, _, err := r.client(key)
	if err != nil {
		return Cooldown{}, err
	}
	canVote, err := c.CanVote(ctx, address)
	if err != nil {
		return Cooldown{}, fmt.Errorf("canVote: %w", err)
	}
	if canVote {
		return NewCooldown(true, 0), nil
	}
	remaining, err := c.TimeUntilNextVote(ctx, address)
	if err != nil {
		return Cooldown{}, fmt.Errorf("timeUntilNextVote: %w", err)
	}
	seconds := validate.ClampCountdown(validate.SafeIntFromWide(remaining))
	return NewCooldown(false, seconds), nil
}

// Leaderboard returns the validated leaderboard for a network, in contract
// order. Networks without leaderboard support return an empty slice. Entries
// with a malformed address or non-positive count are dropped entirely.
func (r *Reader) Leaderboard(ctx context.Context, key string) ([]LeaderboardEntry, error) {
	c, n, err := r.client(key)
	if err != nil {
		return nil, err
	}
	if !n.SupportsLeaderboard {
		return []LeaderboardEntry{}, nil
	}
	addrs, counts, err := c.HappyLeaderboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if len(addrs) != len(counts) {
		return nil, fmt.Errorf("leaderboard: mismatched lengths %d/%d", len(addrs), len(counts))
	}

	entries := make([]LeaderboardEntry, 0, len(addrs))
	for i := range addrs {
		count := validate.SafeIntFromWide(counts[i])
		if !validate.IsWellFormedAddress(addrs[i]) || count <= 0 {
			r.logger.Debug("dropping malformed leaderboard entry",
				zap.String("address", addrs[i]), zap.Int64("count", count))
			continue
		}
		entries = append(entries, LeaderboardEntry{Address: addrs[i], HappyCount: count})
	}
	return entries, nil
}

// FeatureFlag probes an optional boolean contract flag. Flags absent from
// the ABI (older deployments) and read errors both come back false; this
// path never errors out.
func (r *Reader) FeatureFlag(ctx context.Context, key, name string) bool {
	c, _, err := r.client(key)
	if err != nil {
		return false
	}
	if !c.HasFunction(name) {
		return false
	}
	switch name {
	case "refundEnabled":
		enabled, err := c.RefundEnabled(ctx)
		if err != nil {
			r.logger.Debug("feature flag read failed", zap.String("flag", name), zap.Error(err))
			return false
		}
		return enabled
	default:
		return false
	}
}

// Snapshot reads the full vote state for one network and address. address
// may be empty (no wallet connected): the cooldown then defaults to
// can-vote, matching a fresh session. Leaderboard errors degrade to an
// empty board; the tally path already fails soft.
func (r *Reader) Snapshot(ctx context.Context, key, address string) State {
	st := State{Tally: r.Tally(ctx, key), Cooldown: NewCooldown(true, 0)}

	if address != "" {
		cd, err := r.Cooldown(ctx, key, address)
		if err != nil {
			r.logger.Warn("cooldown read failed", zap.String("network", key), zap.Error(err))
		} else {
			st.Cooldown = cd
		}
	}

	lb, err := r.Leaderboard(ctx, key)
	if err != nil {
		r.logger.Warn("leaderboard read failed", zap.String("network", key), zap.Error(err))
		lb = nil
	}
	st.Leaderboard = lb
	return st
}
