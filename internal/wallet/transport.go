// Package wallet owns the wallet session: which transport is active, the
// connected address, the chain the wallet reports, and the state machine
// that reconciles wallet-originated events.
package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// Kind identifies the wallet transport flavor.
type Kind string

const (
	KindNone   Kind = "none"
	KindLocal  Kind = "local"  // key material held by this process
	KindRemote Kind = "remote" // out-of-band session over a relay
)

// ErrUserRejected marks a signing request the user declined. Rejections are
// terminal and never retried automatically.
var ErrUserRejected = errors.New("signing rejected by user")

// EventType enumerates wallet-originated events.
type EventType int

const (
	// EventAccountsChanged carries the wallet's current account list; an
	// empty list means the wallet revoked access.
	EventAccountsChanged EventType = iota
	// EventChainChanged carries the chain the wallet is now attached to.
	EventChainChanged
	// EventSessionDropped means the transport's underlying session ended.
	EventSessionDropped
)

// Event is one wallet-originated change, mapped to exactly one session
// transition.
type Event struct {
	Type     EventType
	Accounts []string
	ChainID  int64
}

// ConnectResult is the authoritative outcome of a successful connect.
type ConnectResult struct {
	Address string
	ChainID int64
}

// Transport is the capability contract both wallet flavors expose. The
// session manager, pipeline, and coordinator depend only on this.
type Transport interface {
	Kind() Kind
	// Connect establishes the session and returns the connected address
	// and the chain the wallet reports. It must not succeed with an empty
	// address.
	Connect(ctx context.Context) (ConnectResult, error)
	// Disconnect tears down the session and any underlying resources.
	Disconnect() error
	// SwitchChain asks the wallet to attach to another chain. The result
	// arrives as an EventChainChanged, not as a return value.
	SwitchChain(ctx context.Context, chainID int64) error
	// SignTx signs the transaction, returning raw signed bytes, or
	// ErrUserRejected when the user declines.
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) ([]byte, error)
	// Events streams wallet-originated changes until Disconnect.
	Events() <-chan Event
}
