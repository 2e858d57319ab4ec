// Package app holds the application state coordinator: the single place
// that reconciles wallet-session events, the user's network selection, and
// background polling into one consistent view model.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pittpv/happy-vote-app/internal/chain"
	"github.com/pittpv/happy-vote-app/internal/validate"
	"github.com/pittpv/happy-vote-app/internal/votes"
	"github.com/pittpv/happy-vote-app/internal/wallet"
)

// ErrVoteInFlight is returned when the user tries to change networks while
// a vote attempt is in a non-terminal phase.
var ErrVoteInFlight = errors.New("cannot switch networks while a vote is in flight")

// Prefs persists the user's network selection across runs.
type Prefs interface {
	SetPreferredNetwork(key string) error
}

// View is the consistent view model derived from session, selection, and
// the latest reads. CooldownRemaining is nil exactly when CanVote is true.
type View struct {
	SelectedNetwork   string
	EffectiveNetwork  string
	NetworkCorrect    bool
	Warning           string
	Connected         bool
	Address           string
	Tally             votes.Tally
	CanVote           bool
	CooldownRemaining *int64
	Leaderboard       []votes.LeaderboardEntry
}

// Coordinator merges wallet events, user network selection, and polling
// into one state object updated only through its methods.
type Coordinator struct {
	registry *chain.Registry
	session  *wallet.Session
	reader   *votes.Reader
	pipeline *votes.Pipeline
	prefs    Prefs
	logger   *zap.Logger

	mu       sync.Mutex
	selected string
	state    votes.State
	// cooldownUntil drives the live countdown; zero when the address can
	// vote. Derived from the last read, ticked locally.
	cooldownUntil time.Time

	now func() time.Time
}

// NewCoordinator creates a coordinator with initialKey as the selected
// network. An unknown key falls back to the registry's first network.
// prefs may be nil (nothing is persisted, used in tests).
func NewCoordinator(registry *chain.Registry, session *wallet.Session, reader *votes.Reader,
	pipeline *votes.Pipeline, prefs Prefs, initialKey string, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		registry: registry,
		session:  session,
		reader:   reader,
		pipeline: pipeline,
		prefs:    prefs,
		logger:   logger,
		now:      time.Now,
	}
	if _, err := registry.Resolve(initialKey); err != nil {
		fallback := registry.All()[0].Key
		logger.Warn("persisted network unknown, falling back",
			zap.String("persisted", initialKey), zap.String("fallback", fallback))
		initialKey = fallback
	}
	c.selected = initialKey

	// Disconnect clears session-derived state immediately, before any
	// in-flight read or confirmation for the old session resolves.
	session.OnChange(func(snap wallet.Snapshot) {
		if snap.Status == wallet.StatusDisconnected {
			c.mu.Lock()
			c.state.Cooldown = votes.NewCooldown(true, 0)
			c.cooldownUntil = time.Time{}
			c.mu.Unlock()
		}
	})
	return c
}

// Selected returns the user-selected network key.
func (c *Coordinator) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SelectNetwork changes the selected network and persists the preference.
// Refused while a vote attempt is in flight: changing the target under a
// live attempt is undefined behavior, so the selector stays locked.
func (c *Coordinator) SelectNetwork(key string) error {
	if c.pipeline != nil && c.pipeline.Busy() {
		return ErrVoteInFlight
	}
	n, err := c.registry.Resolve(key)
	if err != nil {
		return fmt.Errorf("unknown network %q", key)
	}

	c.mu.Lock()
	c.selected = n.Key
	// Displayed state belongs to the previous network; drop it rather
	// than show stale numbers against the new selection.
	c.state = votes.State{Cooldown: votes.NewCooldown(true, 0)}
	c.cooldownUntil = time.Time{}
	c.mu.Unlock()

	if c.prefs != nil {
		if err := c.prefs.SetPreferredNetwork(n.Key); err != nil {
			c.logger.Warn("persisting network preference failed", zap.Error(err))
		}
	}
	return nil
}

// Effective resolves the effective network and whether it matches intent.
//
// A remote wallet is authoritative for its own chain: its reported chain
// wins, and a mismatch with the stored preference is surfaced as a warning,
// never auto-switched. A local wallet treats the selection as intent; the
// mismatch is correctable via an explicit switch action.
func (c *Coordinator) Effective() (effectiveKey string, correct bool, warning string) {
	c.mu.Lock()
	selected := c.selected
	c.mu.Unlock()

	snap := c.session.Snapshot()
	sel, err := c.registry.Resolve(selected)
	if err != nil {
		return selected, false, "selected network is not registered"
	}

	switch snap.Status {
	case wallet.StatusConnectedRemote:
		n, ok := c.registry.ResolveByChainID(snap.ChainID)
		if !ok {
			return selected, false, fmt.Sprintf("wallet is on unsupported chain %d", snap.ChainID)
		}
		if n.Key != selected {
			return n.Key, false, fmt.Sprintf("wallet is on %s but %s is selected", n.DisplayName, sel.DisplayName)
		}
		return n.Key, true, ""

	case wallet.StatusConnectedLocal:
		if snap.ChainID != sel.ChainID {
			return selected, false, fmt.Sprintf("wallet is attached to chain %d; switch to %s", snap.ChainID, sel.DisplayName)
		}
		return selected, true, ""

	default:
		// No wallet: reads follow the selection and nothing can mismatch.
		return selected, true, ""
	}
}

// SwitchWalletNetwork explicitly asks the wallet to move to the selected
// network's chain. This is the user-triggered switch action; the
// coordinator never calls it on its own.
func (c *Coordinator) SwitchWalletNetwork(ctx context.Context) error {
	n, err := c.registry.Resolve(c.Selected())
	if err != nil {
		return err
	}
	return c.session.SwitchChain(ctx, n.ChainID)
}

// Refresh reads the full vote state for the selected network. The read is
// tagged with the network key and session epoch it was issued for; if either
// moved while the read was in flight, the result is discarded so state from
// network A can never overwrite a view of network B.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	key := c.selected
	c.mu.Unlock()
	epoch := c.session.Epoch()
	address := c.session.Address()

	st := c.reader.Snapshot(ctx, key, address)

	c.mu.Lock()
	defer c.mu.Unlock()
	if key != c.selected {
		c.logger.Debug("discarding stale read", zap.String("for", key), zap.String("current", c.selected))
		return
	}
	if address != "" && c.session.Epoch() != epoch {
		c.logger.Debug("discarding read from dead session", zap.Uint64("epoch", epoch))
		return
	}
	c.applyLocked(st)
}

// ApplyOutcome folds a terminal vote outcome into the view. Confirmed
// outcomes carry a refreshed state; it is subject to the same tagging rule,
// so a confirmation that resolves after disconnect or a network change is
// dropped instead of resurrecting dead state.
func (c *Coordinator) ApplyOutcome(networkKey string, epoch uint64, outcome votes.Outcome) {
	if outcome.Phase != votes.PhaseConfirmed || outcome.State == nil {
		return
	}
	if !c.session.Live(epoch) {
		c.logger.Debug("discarding confirmation for dead session", zap.String("tx", outcome.TxHash))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if networkKey != c.selected {
		return
	}
	c.applyLocked(*outcome.State)
}

func (c *Coordinator) applyLocked(st votes.State) {
	c.state = st
	if st.Cooldown.CanVote || st.Cooldown.SecondsRemaining == nil {
		c.cooldownUntil = time.Time{}
	} else {
		c.cooldownUntil = c.now().Add(time.Duration(*st.Cooldown.SecondsRemaining) * time.Second)
	}
}

// Vote submits one vote attempt against the selected network and applies
// the outcome. The pipeline owns duplicate-submission protection.
func (c *Coordinator) Vote(ctx context.Context, isHappy bool) (votes.Outcome, error) {
	key, correct, warning := c.Effective()
	if !correct {
		return votes.Outcome{}, fmt.Errorf("%s", validate.SanitizeDisplayText(warning))
	}
	epoch := c.session.Epoch()

	outcome, err := c.pipeline.Submit(ctx, key, isHappy)
	if err != nil {
		return votes.Outcome{}, err
	}
	c.ApplyOutcome(key, epoch, outcome)
	return outcome, nil
}

// Busy reports whether a vote attempt is in a non-terminal phase. The UI
// disables the vote affordance and the network selector on it.
func (c *Coordinator) Busy() bool {
	return c.pipeline != nil && c.pipeline.Busy()
}

// View assembles the current view model, ticking the cooldown countdown
// from the last read without another network round trip.
func (c *Coordinator) View() View {
	effective, correct, warning := c.Effective()
	snap := c.session.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		SelectedNetwork:  c.selected,
		EffectiveNetwork: effective,
		NetworkCorrect:   correct,
		Warning:          warning,
		Connected:        snap.Status.Connected(),
		Address:          snap.Address,
		Tally:            c.state.Tally,
		Leaderboard:      c.state.Leaderboard,
		CanVote:          true,
	}
	if !c.cooldownUntil.IsZero() {
		remaining := validate.ClampCountdown(int64(c.cooldownUntil.Sub(c.now()) / time.Second))
		if remaining > 0 {
			v.CanVote = false
			v.CooldownRemaining = &remaining
		}
	}
	return v
}

// Poll refreshes on the given interval until ctx is cancelled. Timers stop
// with the context, so teardown cannot leave a poller writing stale state.
func (c *Coordinator) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}
