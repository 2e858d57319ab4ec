package votes

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/pittpv/happy-vote-app/internal/chain"
	"github.com/pittpv/happy-vote-app/internal/config"
	"github.com/pittpv/happy-vote-app/internal/contract"
	"github.com/pittpv/happy-vote-app/internal/validate"
	"github.com/pittpv/happy-vote-app/internal/wallet"
)

// Phase is the state of a vote attempt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseEstimatingGas
	PhaseSubmitting
	PhaseAwaitingConfirmation
	PhaseConfirmed
	PhaseFailed
	PhaseRejected
	PhaseTimedOutUnconfirmed
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseEstimatingGas:
		return "estimating gas"
	case PhaseSubmitting:
		return "submitting"
	case PhaseAwaitingConfirmation:
		return "awaiting confirmation"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseFailed:
		return "failed"
	case PhaseRejected:
		return "rejected"
	case PhaseTimedOutUnconfirmed:
		return "timed out unconfirmed"
	default:
		return "idle"
	}
}

// Terminal reports whether the phase ends an attempt.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseConfirmed, PhaseFailed, PhaseRejected, PhaseTimedOutUnconfirmed:
		return true
	default:
		return false
	}
}

// ErrAttemptInFlight is returned when a vote is submitted while another
// attempt has not reached a terminal phase. The contract would reject a
// duplicate anyway, but the client never relies on that alone.
var ErrAttemptInFlight = errors.New("a vote attempt is already in flight")

// Outcome is the terminal result of one vote attempt. Reason is already
// sanitized for display. State carries the post-confirmation refresh and is
// set only when Phase is PhaseConfirmed.
type Outcome struct {
	Phase   Phase
	TxHash  string
	Reason  string
	IsHappy bool
	State   *State
}

// Wallet is what the pipeline needs from the wallet session.
type Wallet interface {
	Connected() bool
	Address() string
	ChainID() int64
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// RPCClient is the write-path slice of the RPC client.
// *chain.EVMClient satisfies it.
type RPCClient interface {
	EstimateGas(ctx context.Context, from, to, calldata string) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	PendingNonce(ctx context.Context, address string) (uint64, error)
	SendRawTransaction(ctx context.Context, rawTx string) (string, error)
	TransactionReceipt(ctx context.Context, hash string) (*chain.Receipt, error)
	WaitForReceipt(ctx context.Context, hash string, interval time.Duration) (*chain.Receipt, error)
}

// Pipeline runs vote attempts. One instance serves the whole process; at
// most one attempt is in a non-terminal phase at any time.
type Pipeline struct {
	registry *chain.Registry
	reader   *Reader
	wallet   Wallet
	logger   *zap.Logger

	dial           func(rpcURL string) RPCClient
	confirmTimeout time.Duration
	pollInterval   time.Duration

	mu    sync.Mutex
	phase Phase
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithDialer replaces RPC client construction (tests).
func WithDialer(dial func(rpcURL string) RPCClient) PipelineOption {
	return func(p *Pipeline) { p.dial = dial }
}

// WithConfirmTimeout overrides the receipt wait bound.
func WithConfirmTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.confirmTimeout = d }
}

// WithPollInterval overrides the receipt poll interval.
func WithPollInterval(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.pollInterval = d }
}

// NewPipeline creates a Pipeline.
func NewPipeline(registry *chain.Registry, reader *Reader, w Wallet, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		registry:       registry,
		reader:         reader,
		wallet:         w,
		logger:         logger,
		confirmTimeout: config.TxConfirmTimeout,
		pollInterval:   config.ReceiptPollInterval,
		phase:          PhaseIdle,
	}
	p.dial = func(rpcURL string) RPCClient { return chain.NewEVMClient(rpcURL) }
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Phase returns the current attempt phase.
func (p *Pipeline) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Busy reports whether an attempt is in a non-terminal, non-idle phase.
// Callers disable the vote affordance and the network selector on it.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase != PhaseIdle && !p.phase.Terminal()
}

func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != PhaseIdle && !p.phase.Terminal() {
		return ErrAttemptInFlight
	}
	p.phase = PhaseValidating
	return nil
}

func (p *Pipeline) setPhase(ph Phase) {
	p.mu.Lock()
	p.phase = ph
	p.mu.Unlock()
}

// fail terminates the attempt with a sanitized, user-readable reason.
func (p *Pipeline) fail(ph Phase, isHappy bool, hash, reason string) Outcome {
	p.setPhase(ph)
	return Outcome{
		Phase:   ph,
		TxHash:  hash,
		Reason:  validate.SanitizeDisplayText(reason),
		IsHappy: isHappy,
	}
}

// Submit runs one vote attempt end to end and returns its terminal outcome.
// ErrAttemptInFlight is the only error return; everything else is expressed
// as a terminal Outcome so callers surface exactly one message per attempt.
func (p *Pipeline) Submit(ctx context.Context, networkKey string, isHappy bool) (Outcome, error) {
	if err := p.begin(); err != nil {
		return Outcome{}, err
	}

	// Validating. Any failure here is terminal: nothing has been sent and
	// no state has been touched.
	if !p.wallet.Connected() {
		return p.fail(PhaseFailed, isHappy, "", "connect a wallet before voting"), nil
	}
	network, err := p.registry.Resolve(networkKey)
	if err != nil {
		return p.fail(PhaseFailed, isHappy, "", fmt.Sprintf("unknown network %q", networkKey)), nil
	}
	if !network.HasContract() {
		return p.fail(PhaseFailed, isHappy, "", fmt.Sprintf("voting is not deployed on %s", network.DisplayName)), nil
	}
	if !validate.IsWellFormedAddress(network.ContractAddress) {
		return p.fail(PhaseFailed, isHappy, "", "contract address is malformed; check configuration"), nil
	}
	from := p.wallet.Address()
	if !validate.IsWellFormedAddress(from) {
		return p.fail(PhaseFailed, isHappy, "", "wallet address is malformed"), nil
	}
	if walletChain := p.wallet.ChainID(); walletChain != network.ChainID {
		return p.fail(PhaseFailed, isHappy, "", fmt.Sprintf(
			"wallet is on chain %d but %s is chain %d; switch networks first",
			walletChain, network.DisplayName, network.ChainID)), nil
	}
	if !validate.IsWellFormedABI([]byte(contract.VotingABIJSON)) {
		return p.fail(PhaseFailed, isHappy, "", "contract ABI failed validation"), nil
	}
	rpcURL := network.PrimaryRPC()
	if !validate.IsAllowedRPCURL(rpcURL) {
		return p.fail(PhaseFailed, isHappy, "", "network RPC endpoint is not allow-listed"), nil
	}

	calldata, err := contract.NewVoting(nil, network.ContractAddress).VoteCalldata(isHappy)
	if err != nil {
		return p.fail(PhaseFailed, isHappy, "", "building vote call: "+err.Error()), nil
	}

	// EstimatingGas. Estimator failure falls back to a conservative
	// default instead of aborting; the estimate is then scaled by the
	// outcome's configured headroom.
	p.setPhase(PhaseEstimatingGas)
	client := p.dial(rpcURL)

	gas, err := client.EstimateGas(ctx, from, network.ContractAddress, calldata)
	if err != nil {
		gas = config.GasLimitVoteFallback
		p.logger.Warn("gas estimation failed, using fallback",
			zap.String("network", networkKey),
			zap.Uint64("fallback", gas),
			zap.Error(err))
	}
	bump := config.GasBumpHappyPercent
	if !isHappy {
		bump = config.GasBumpSadPercent
	}
	gas = gas * bump / 100

	gasPrice, err := client.GasPrice(ctx)
	if err != nil {
		return p.fail(PhaseFailed, isHappy, "", "getting gas price: "+err.Error()), nil
	}
	nonce, err := client.PendingNonce(ctx, from)
	if err != nil {
		return p.fail(PhaseFailed, isHappy, "", "getting nonce: "+err.Error()), nil
	}

	// Submitting. Exactly one transaction per attempt: after a send error
	// or a rejection the attempt terminates, it never re-sends.
	p.setPhase(PhaseSubmitting)
	chainID := big.NewInt(network.ChainID)
	to := common.HexToAddress(network.ContractAddress)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      common.FromHex(calldata),
	})

	raw, err := p.wallet.SignTx(ctx, tx, chainID)
	if err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			// No hash recorded; the next click starts a fresh attempt.
			return p.fail(PhaseRejected, isHappy, "", "signing rejected; the vote was not sent"), nil
		}
		return p.fail(PhaseFailed, isHappy, "", "signing failed: "+err.Error()), nil
	}

	hash, err := client.SendRawTransaction(ctx, fmt.Sprintf("0x%x", raw))
	if err != nil {
		return p.fail(PhaseFailed, isHappy, "",
			"broadcast failed: "+chain.ExtractRevertReason(err.Error())), nil
	}

	// AwaitingConfirmation, bounded. On expiry, one manual receipt lookup
	// decides between late confirmation and TimedOutUnconfirmed; the
	// attempt never claims success without a receipt.
	p.setPhase(PhaseAwaitingConfirmation)
	waitCtx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	receipt, err := client.WaitForReceipt(waitCtx, hash, p.pollInterval)
	cancel()
	if err != nil {
		if !errors.Is(err, chain.ErrNotMined) {
			return p.fail(PhaseFailed, isHappy, hash, "waiting for confirmation: "+err.Error()), nil
		}
		receipt, err = client.TransactionReceipt(ctx, hash)
		if err != nil || receipt == nil {
			return p.fail(PhaseTimedOutUnconfirmed, isHappy, hash, fmt.Sprintf(
				"not confirmed within %s; check transaction %s manually", p.confirmTimeout, hash)), nil
		}
	}

	// A mined-but-reverted receipt is a failure, not a success.
	if receipt.Status != 1 {
		return p.fail(PhaseFailed, isHappy, hash, "transaction reverted on-chain"), nil
	}

	p.setPhase(PhaseConfirmed)
	outcome := Outcome{Phase: PhaseConfirmed, TxHash: hash, IsHappy: isHappy}

	// The vote itself succeeded; refresh failures only cost freshness and
	// are logged inside Snapshot.
	refreshed := p.reader.Snapshot(ctx, networkKey, from)
	outcome.State = &refreshed
	return outcome, nil
}
