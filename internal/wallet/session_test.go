package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	addr1 = "0x1111111111111111111111111111111111111111"
	addr2 = "0x2222222222222222222222222222222222222222"
)

// stubTransport is a scriptable Transport.
type stubTransport struct {
	kind       Kind
	result     ConnectResult
	connectErr error
	events     chan Event

	mu          sync.Mutex
	disconnects int
	switchedTo  int64
}

func newStubTransport(kind Kind, address string, chainID int64) *stubTransport {
	return &stubTransport{
		kind:   kind,
		result: ConnectResult{Address: address, ChainID: chainID},
		events: make(chan Event, 8),
	}
}

func (t *stubTransport) Kind() Kind { return t.kind }

func (t *stubTransport) Connect(ctx context.Context) (ConnectResult, error) {
	if t.connectErr != nil {
		return ConnectResult{}, t.connectErr
	}
	return t.result, nil
}

func (t *stubTransport) Disconnect() error {
	t.mu.Lock()
	t.disconnects++
	t.mu.Unlock()
	return nil
}

func (t *stubTransport) SwitchChain(ctx context.Context, chainID int64) error {
	t.mu.Lock()
	t.switchedTo = chainID
	t.mu.Unlock()
	return nil
}

func (t *stubTransport) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	return []byte{0x02}, nil
}

func (t *stubTransport) Events() <-chan Event { return t.events }

func (t *stubTransport) disconnectCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disconnects
}

// ---------------------------------------------------------------------------
// connect / disconnect
// ---------------------------------------------------------------------------

func TestConnectLocal(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindLocal, addr1, 10143)))

	snap := s.Snapshot()
	assert.Equal(t, StatusConnectedLocal, snap.Status)
	assert.Equal(t, KindLocal, snap.Kind)
	assert.Equal(t, addr1, snap.Address)
	assert.Equal(t, int64(10143), snap.ChainID)
	assert.True(t, s.Connected())
}

func TestConnectRemote(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindRemote, addr1, 11155111)))
	assert.Equal(t, StatusConnectedRemote, s.Snapshot().Status)
}

func TestConnectFailureReturnsToDisconnected(t *testing.T) {
	tr := newStubTransport(KindLocal, addr1, 10143)
	tr.connectErr = fmt.Errorf("keystore empty")

	s := NewSession(nil)
	err := s.Connect(context.Background(), tr)
	require.Error(t, err)
	assert.Equal(t, StatusDisconnected, s.Snapshot().Status)
	assert.Empty(t, s.Address())
}

func TestConnectRejectsMalformedAddress(t *testing.T) {
	tr := newStubTransport(KindLocal, "0xnot-an-address", 10143)

	s := NewSession(nil)
	err := s.Connect(context.Background(), tr)
	require.Error(t, err)
	assert.Equal(t, StatusDisconnected, s.Snapshot().Status)
	// The half-open transport is torn down.
	assert.Equal(t, 1, tr.disconnectCount())
}

func TestConnectWhileConnected(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindLocal, addr1, 10143)))
	err := s.Connect(context.Background(), newStubTransport(KindLocal, addr2, 10143))
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestDisconnectClearsEverything(t *testing.T) {
	tr := newStubTransport(KindLocal, addr1, 10143)
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), tr))

	s.Disconnect()
	snap := s.Snapshot()
	assert.Equal(t, StatusDisconnected, snap.Status)
	assert.Empty(t, snap.Address)
	assert.Zero(t, snap.ChainID)
	assert.Equal(t, 1, tr.disconnectCount())
}

// ---------------------------------------------------------------------------
// epoch / Live
// ---------------------------------------------------------------------------

func TestEpochBumpsOnConnectAndDisconnect(t *testing.T) {
	s := NewSession(nil)
	e0 := s.Epoch()

	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindLocal, addr1, 10143)))
	e1 := s.Epoch()
	assert.Greater(t, e1, e0)

	s.Disconnect()
	assert.Greater(t, s.Epoch(), e1)
}

func TestLive(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindLocal, addr1, 10143)))
	epoch := s.Epoch()
	assert.True(t, s.Live(epoch))

	s.Disconnect()
	// Old epoch is dead, and the new epoch is not live either while
	// disconnected.
	assert.False(t, s.Live(epoch))
	assert.False(t, s.Live(s.Epoch()))
}

func TestAccountChangeBumpsEpoch(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindLocal, addr1, 10143)))
	epoch := s.Epoch()

	s.HandleEvent(Event{Type: EventAccountsChanged, Accounts: []string{addr2}})
	assert.Equal(t, addr2, s.Address())
	assert.Greater(t, s.Epoch(), epoch)
	assert.True(t, s.Connected())
}

func TestSameAccountEventKeepsEpoch(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindLocal, addr1, 10143)))
	epoch := s.Epoch()

	s.HandleEvent(Event{Type: EventAccountsChanged, Accounts: []string{addr1}})
	assert.Equal(t, epoch, s.Epoch())
}

// ---------------------------------------------------------------------------
// events
// ---------------------------------------------------------------------------

func TestEmptyAccountsMeansDisconnect(t *testing.T) {
	tr := newStubTransport(KindRemote, addr1, 10143)
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), tr))

	s.HandleEvent(Event{Type: EventAccountsChanged, Accounts: nil})
	assert.Equal(t, StatusDisconnected, s.Snapshot().Status)
	assert.Equal(t, 1, tr.disconnectCount())
}

func TestMalformedAccountEventIgnored(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindLocal, addr1, 10143)))

	s.HandleEvent(Event{Type: EventAccountsChanged, Accounts: []string{"garbage"}})
	assert.Equal(t, addr1, s.Address())
	assert.True(t, s.Connected())
}

func TestChainChangeKeepsAccount(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindLocal, addr1, 10143)))
	epoch := s.Epoch()

	s.HandleEvent(Event{Type: EventChainChanged, ChainID: 11155111})
	assert.Equal(t, int64(11155111), s.ChainID())
	assert.Equal(t, addr1, s.Address())
	// Chain moves do not invalidate in-flight work for the same account.
	assert.Equal(t, epoch, s.Epoch())
}

func TestSessionDroppedClearsState(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindRemote, addr1, 10143)))

	s.HandleEvent(Event{Type: EventSessionDropped})
	assert.Equal(t, StatusDisconnected, s.Snapshot().Status)
	assert.Empty(t, s.Address())
}

func TestEventsIgnoredWhileDisconnected(t *testing.T) {
	s := NewSession(nil)
	s.HandleEvent(Event{Type: EventChainChanged, ChainID: 42})
	assert.Zero(t, s.ChainID())
}

func TestTransportEventsReachStateMachine(t *testing.T) {
	tr := newStubTransport(KindRemote, addr1, 10143)
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), tr))

	tr.events <- Event{Type: EventChainChanged, ChainID: 11155111}
	assert.Eventually(t, func() bool {
		return s.ChainID() == 11155111
	}, time.Second, time.Millisecond)
}

// ---------------------------------------------------------------------------
// observer
// ---------------------------------------------------------------------------

func TestOnChangeObserverSeesTransitions(t *testing.T) {
	var mu sync.Mutex
	var statuses []Status

	s := NewSession(nil)
	s.OnChange(func(snap Snapshot) {
		mu.Lock()
		statuses = append(statuses, snap.Status)
		mu.Unlock()
	})

	require.NoError(t, s.Connect(context.Background(), newStubTransport(KindLocal, addr1, 10143)))
	s.Disconnect()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusConnecting, StatusConnectedLocal, StatusDisconnected}, statuses)
}

// ---------------------------------------------------------------------------
// passthrough
// ---------------------------------------------------------------------------

func TestSwitchChainRequiresSession(t *testing.T) {
	s := NewSession(nil)
	assert.ErrorIs(t, s.SwitchChain(context.Background(), 10143), ErrNotConnected)
}

func TestSignTxRequiresSession(t *testing.T) {
	s := NewSession(nil)
	_, err := s.SignTx(context.Background(), nil, big.NewInt(1))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSwitchChainPassesThrough(t *testing.T) {
	tr := newStubTransport(KindLocal, addr1, 10143)
	s := NewSession(nil)
	require.NoError(t, s.Connect(context.Background(), tr))

	require.NoError(t, s.SwitchChain(context.Background(), 11155111))
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, int64(11155111), tr.switchedTo)
}
