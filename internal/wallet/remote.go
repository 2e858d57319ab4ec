package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Relay protocol methods. The relay stands in for a wallet-connect-style
// session: the wallet on the other end is authoritative for its own chain
// and accounts, and everything it tells us arrives as an event.
const (
	relayConnect      = "session_connect"
	relayConnected    = "session_connected"
	relayDelete       = "session_delete"
	relayAccounts     = "accounts_changed"
	relayChain        = "chain_changed"
	relayDisconnected = "session_disconnected"
	relaySwitchChain  = "switch_chain"
	relaySignRequest  = "sign_request"
	relaySignResponse = "sign_response"
	relaySignRejected = "sign_rejected"
)

// noDeadline clears a websocket read/write deadline.
var noDeadline time.Time

type relayMessage struct {
	Method   string   `json:"method"`
	Project  string   `json:"project,omitempty"`
	Address  string   `json:"address,omitempty"`
	Accounts []string `json:"accounts,omitempty"`
	ChainID  int64    `json:"chainId,omitempty"`
	Tx       string   `json:"tx,omitempty"`  // unsigned tx, binary hex
	Raw      string   `json:"raw,omitempty"` // signed tx, binary hex
	Reason   string   `json:"reason,omitempty"`
}

// RemoteTransport is a wallet reached over a websocket relay session. All
// state changes are event-driven: the transport never polls the wallet, it
// subscribes to the relay stream.
type RemoteTransport struct {
	relayURL  string
	projectID string
	logger    *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	events chan Event
	// signResp receives the wallet's answer to the single in-flight
	// signing request. The pipeline guarantees one attempt at a time.
	signResp chan relayMessage
	done     chan struct{}
}

// NewRemoteTransport creates a remote transport for the given relay.
func NewRemoteTransport(relayURL, projectID string, logger *zap.Logger) *RemoteTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteTransport{
		relayURL:  relayURL,
		projectID: projectID,
		logger:    logger,
		events:    make(chan Event, 8),
		signResp:  make(chan relayMessage, 1),
		done:      make(chan struct{}),
	}
}

// Kind returns KindRemote.
func (t *RemoteTransport) Kind() Kind { return KindRemote }

// Connect dials the relay, proposes a session and waits for the wallet's
// authoritative connected message. Connection succeeds only on a connected
// message carrying a non-empty address; everything else within the context
// deadline is an error.
func (t *RemoteTransport) Connect(ctx context.Context) (ConnectResult, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.relayURL, nil)
	if err != nil {
		return ConnectResult{}, fmt.Errorf("dialing relay: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	if err := conn.WriteJSON(relayMessage{Method: relayConnect, Project: t.projectID}); err != nil {
		conn.Close()
		return ConnectResult{}, fmt.Errorf("proposing session: %w", err)
	}

	// The pairing flow (QR scan, wallet approval) happens out of band; we
	// just wait for the authoritative answer.
	for {
		var msg relayMessage
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			return ConnectResult{}, fmt.Errorf("waiting for session approval: %w", err)
		}
		switch msg.Method {
		case relayConnected:
			if msg.Address == "" {
				conn.Close()
				return ConnectResult{}, fmt.Errorf("relay reported connection without an address")
			}
			t.mu.Lock()
			t.conn = conn
			t.mu.Unlock()
			// Clear the pairing deadline; the read loop runs for the
			// session lifetime.
			_ = conn.SetReadDeadline(noDeadline)
			_ = conn.SetWriteDeadline(noDeadline)
			go t.readLoop(conn)
			return ConnectResult{Address: msg.Address, ChainID: msg.ChainID}, nil
		case relayDisconnected:
			conn.Close()
			return ConnectResult{}, fmt.Errorf("wallet declined the session")
		default:
			t.logger.Debug("ignoring relay message during pairing", zap.String("method", msg.Method))
		}
	}
}

// Disconnect ends the relay session and closes the socket.
func (t *RemoteTransport) Disconnect() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteJSON(relayMessage{Method: relayDelete})
	return conn.Close()
}

// SwitchChain asks the remote wallet to move to another chain. The wallet
// confirms via a chain_changed event; no confirmation means it refused.
func (t *RemoteTransport) SwitchChain(ctx context.Context, chainID int64) error {
	return t.write(relayMessage{Method: relaySwitchChain, ChainID: chainID})
}

// SignTx forwards the unsigned transaction to the remote wallet and waits
// for either signed bytes or a rejection.
func (t *RemoteTransport) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	unsigned, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encoding tx for relay: %w", err)
	}
	if err := t.write(relayMessage{Method: relaySignRequest, Tx: fmt.Sprintf("0x%x", unsigned)}); err != nil {
		return nil, fmt.Errorf("sending sign request: %w", err)
	}

	select {
	case msg := <-t.signResp:
		if msg.Method == relaySignRejected {
			return nil, ErrUserRejected
		}
		var raw []byte
		if _, err := fmt.Sscanf(msg.Raw, "0x%x", &raw); err != nil {
			return nil, fmt.Errorf("decoding signed tx: %w", err)
		}
		return raw, nil
	case <-t.done:
		return nil, fmt.Errorf("session dropped while awaiting signature")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Events returns the transport's event stream.
func (t *RemoteTransport) Events() <-chan Event {
	return t.events
}

// --- internal ---

func (t *RemoteTransport) write(msg relayMessage) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("relay session not established")
	}
	return conn.WriteJSON(msg)
}

func (t *RemoteTransport) readLoop(conn *websocket.Conn) {
	defer close(t.done)
	for {
		var msg relayMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.emit(Event{Type: EventSessionDropped})
			return
		}
		switch msg.Method {
		case relayAccounts:
			t.emit(Event{Type: EventAccountsChanged, Accounts: msg.Accounts})
		case relayChain:
			t.emit(Event{Type: EventChainChanged, ChainID: msg.ChainID})
		case relayDisconnected:
			t.emit(Event{Type: EventSessionDropped})
			return
		case relaySignResponse, relaySignRejected:
			select {
			case t.signResp <- msg:
			default:
				t.logger.Warn("unsolicited sign response dropped")
			}
		default:
			t.logger.Debug("ignoring relay message", zap.String("method", msg.Method))
		}
	}
}

func (t *RemoteTransport) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
		t.logger.Warn("dropping wallet event: consumer not draining",
			zap.Int("type", int(ev.Type)))
	}
}
