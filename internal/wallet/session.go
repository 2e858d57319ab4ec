package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/pittpv/happy-vote-app/internal/validate"
)

// Session status values.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnectedLocal
	StatusConnectedRemote
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnectedLocal:
		return "connected (local)"
	case StatusConnectedRemote:
		return "connected (remote)"
	default:
		return "disconnected"
	}
}

// Connected reports whether the status is one of the connected states.
func (s Status) Connected() bool {
	return s == StatusConnectedLocal || s == StatusConnectedRemote
}

var (
	// ErrAlreadyConnected is returned by Connect when a session exists.
	ErrAlreadyConnected = errors.New("a wallet session is already active")
	// ErrNotConnected is returned by operations that need a live session.
	ErrNotConnected = errors.New("no wallet session")
)

// Snapshot is an immutable view of the session at one instant.
type Snapshot struct {
	Status  Status
	Kind    Kind
	Address string
	ChainID int64
	Epoch   uint64
}

// Session is the wallet session state machine. There is one per process.
// Address and chain are updated only from the result of an explicit connect
// or from wallet-originated events, never inferred.
//
// Every connect and disconnect bumps the epoch. In-flight operations capture
// the epoch when they start and check Live before applying results, so work
// issued against an old session can never write into a new one.
type Session struct {
	logger *zap.Logger

	mu        sync.Mutex
	status    Status
	transport Transport
	address   string
	chainID   int64
	epoch     uint64
	stop      chan struct{}
	onChange  func(Snapshot)
}

// NewSession creates a session in the Disconnected state.
func NewSession(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{logger: logger}
}

// OnChange registers the single observer notified after every transition.
// The callback runs without the session lock held.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Connect runs the connect flow on the given transport. On failure the
// session returns to Disconnected and the error is safe to display.
func (s *Session) Connect(ctx context.Context, t Transport) error {
	s.mu.Lock()
	if s.status != StatusDisconnected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.status = StatusConnecting
	s.mu.Unlock()
	s.notify()

	res, err := t.Connect(ctx)
	if err != nil {
		s.mu.Lock()
		s.status = StatusDisconnected
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("connect failed: %s", validate.SanitizeDisplayText(err.Error()))
	}
	if !validate.IsWellFormedAddress(res.Address) {
		_ = t.Disconnect()
		s.mu.Lock()
		s.status = StatusDisconnected
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("wallet reported a malformed address")
	}

	s.mu.Lock()
	s.transport = t
	s.address = res.Address
	s.chainID = res.ChainID
	s.epoch++
	s.stop = make(chan struct{})
	if t.Kind() == KindRemote {
		s.status = StatusConnectedRemote
	} else {
		s.status = StatusConnectedLocal
	}
	stop := s.stop
	s.mu.Unlock()

	go s.pump(t, stop)
	s.notify()
	return nil
}

// Disconnect synchronously clears all session state, then tears down the
// transport. State is gone before the transport teardown can block, so a
// late-resolving operation from the old session sees a dead epoch.
func (s *Session) Disconnect() {
	s.mu.Lock()
	t := s.transport
	s.clearLocked()
	s.mu.Unlock()
	s.notify()

	if t != nil {
		if err := t.Disconnect(); err != nil {
			s.logger.Debug("transport teardown", zap.Error(err))
		}
	}
}

// clearLocked resets to Disconnected. Caller holds the lock.
func (s *Session) clearLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.transport = nil
	s.address = ""
	s.chainID = 0
	s.status = StatusDisconnected
	s.epoch++
}

// SwitchChain asks the active wallet to attach to another chain.
func (s *Session) SwitchChain(ctx context.Context, chainID int64) error {
	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()
	if t == nil {
		return ErrNotConnected
	}
	return t.SwitchChain(ctx, chainID)
}

// SignTx signs through the active transport.
func (s *Session) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()
	if t == nil {
		return nil, ErrNotConnected
	}
	return t.SignTx(ctx, tx, chainID)
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Status:  s.status,
		Kind:    KindNone,
		Address: s.address,
		ChainID: s.chainID,
		Epoch:   s.epoch,
	}
	if s.transport != nil {
		snap.Kind = s.transport.Kind()
	}
	return snap
}

// Connected reports whether a wallet is attached.
func (s *Session) Connected() bool { return s.Snapshot().Status.Connected() }

// Address returns the connected address, or "".
func (s *Session) Address() string { return s.Snapshot().Address }

// ChainID returns the chain the wallet reports, or 0.
func (s *Session) ChainID() int64 { return s.Snapshot().ChainID }

// Epoch returns the current session epoch.
func (s *Session) Epoch() uint64 { return s.Snapshot().Epoch }

// Live reports whether epoch still identifies the active session. Handlers
// for in-flight work call this before applying their result.
func (s *Session) Live(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch == epoch && s.status.Connected()
}

// HandleEvent applies one wallet-originated event to the state machine.
// Exported so transports and tests drive transitions the same way.
func (s *Session) HandleEvent(ev Event) {
	s.mu.Lock()
	if !s.status.Connected() {
		s.mu.Unlock()
		return
	}

	switch ev.Type {
	case EventAccountsChanged:
		if len(ev.Accounts) == 0 {
			// Wallet revoked access: equivalent to a disconnect.
			t := s.transport
			s.clearLocked()
			s.mu.Unlock()
			s.notify()
			if t != nil {
				_ = t.Disconnect()
			}
			return
		}
		next := ev.Accounts[0]
		if !validate.IsWellFormedAddress(next) {
			s.logger.Warn("ignoring accounts-changed with malformed address")
			s.mu.Unlock()
			return
		}
		if next != s.address {
			s.address = next
			// Same session, new identity: derived per-address state
			// (cooldown, vote eligibility) must be recomputed.
			s.epoch++
		}

	case EventChainChanged:
		// Chain moves never change which account is connected.
		s.chainID = ev.ChainID

	case EventSessionDropped:
		s.clearLocked()
	}
	s.mu.Unlock()
	s.notify()
}

// pump feeds transport events into the state machine until the session ends.
func (s *Session) pump(t Transport, stop chan struct{}) {
	for {
		select {
		case ev, ok := <-t.Events():
			if !ok {
				return
			}
			s.HandleEvent(ev)
		case <-stop:
			return
		}
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onChange
	snap := Snapshot{Status: s.status, Address: s.address, ChainID: s.chainID, Epoch: s.epoch, Kind: KindNone}
	if s.transport != nil {
		snap.Kind = s.transport.Kind()
	}
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
