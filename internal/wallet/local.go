package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// LocalTransport is a wallet whose key material lives in the local keystore.
// It is the injected-provider analog: the process itself holds the keys and
// signing never leaves it.
type LocalTransport struct {
	store     KeyStore
	requested string // wallet name the user asked for; may be empty
	logger    *zap.Logger

	mu        sync.Mutex
	name      string
	address   string
	chainID   int64
	connected bool
	events    chan Event
}

// NewLocalTransport creates a local transport. requested selects a stored
// wallet by name; chainID is the chain the transport starts attached to
// (the user's selected network).
func NewLocalTransport(store KeyStore, requested string, chainID int64, logger *zap.Logger) *LocalTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalTransport{
		store:     store,
		requested: requested,
		chainID:   chainID,
		logger:    logger,
		events:    make(chan Event, 8),
	}
}

// Kind returns KindLocal.
func (t *LocalTransport) Kind() Kind { return KindLocal }

// Connect resolves the wallet to use and derives its address. When several
// wallets are stored, the requested name wins; a requested name that cannot
// be identified falls back to the first stored wallet as a last resort, and
// the ambiguity is logged rather than hidden.
func (t *LocalTransport) Connect(ctx context.Context) (ConnectResult, error) {
	names, err := t.store.Names()
	if err != nil {
		return ConnectResult{}, fmt.Errorf("listing wallets: %w", err)
	}
	if len(names) == 0 {
		return ConnectResult{}, fmt.Errorf("no local wallets stored")
	}

	name := names[0]
	if t.requested != "" {
		found := false
		for _, n := range names {
			if n == t.requested {
				name, found = n, true
				break
			}
		}
		if !found {
			t.logger.Warn("requested wallet not identified, using first available",
				zap.String("requested", t.requested),
				zap.String("using", name),
				zap.Int("stored", len(names)))
		}
	} else if len(names) > 1 {
		t.logger.Warn("multiple wallets stored and none requested, using first",
			zap.String("using", name), zap.Int("stored", len(names)))
	}

	hexKey, err := t.store.Get(name)
	if err != nil {
		return ConnectResult{}, fmt.Errorf("loading wallet %q: %w", name, err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return ConnectResult{}, fmt.Errorf("parsing key for %q: %w", name, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = name
	t.address = crypto.PubkeyToAddress(key.PublicKey).Hex()
	t.connected = true
	return ConnectResult{Address: t.address, ChainID: t.chainID}, nil
}

// Disconnect clears the transport state.
func (t *LocalTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	t.name = ""
	t.address = ""
	return nil
}

// SwitchChain reattaches the transport to another chain. Local keys sign for
// any chain, so this always succeeds and is reported back as an event, the
// same way a wallet-driven switch would be.
func (t *LocalTransport) SwitchChain(ctx context.Context, chainID int64) error {
	t.mu.Lock()
	t.chainID = chainID
	t.mu.Unlock()

	select {
	case t.events <- Event{Type: EventChainChanged, ChainID: chainID}:
	default:
		t.logger.Warn("dropping chain-changed event: consumer not draining")
	}
	return nil
}

// SignTx signs with the connected wallet's key using the London signer.
func (t *LocalTransport) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	t.mu.Lock()
	name := t.name
	connected := t.connected
	t.mu.Unlock()

	if !connected {
		return nil, fmt.Errorf("transport not connected")
	}

	hexKey, err := t.store.Get(name)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling signed tx: %w", err)
	}
	return raw, nil
}

// Events returns the transport's event stream.
func (t *LocalTransport) Events() <-chan Event {
	return t.events
}
