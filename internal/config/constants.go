package config

import "time"

// Gas limits and scaling used by the vote transaction pipeline. The fallback
// is a conservative upper bound used only when the node cannot simulate the
// call; actual gas used will be lower.
const (
	GasLimitVoteFallback = uint64(200_000)

	// Estimate scaling per vote outcome, expressed as percent. The sad path
	// touches leaderboard-removal bookkeeping on some deployments and needs
	// more headroom than the happy path. Policy values, never derived from
	// chain data.
	GasBumpHappyPercent = uint64(120)
	GasBumpSadPercent   = uint64(150)
)

// Timeouts used across the pipeline and CLI.
const (
	RPCCallTimeout      = 15 * time.Second // single JSON-RPC round trip
	ConnectTimeout      = 60 * time.Second // wallet connect, incl. remote pairing
	TxConfirmTimeout    = 3 * time.Minute  // receipt wait before manual lookup
	ReceiptPollInterval = 2 * time.Second
	RefreshInterval     = 30 * time.Second // background tally/cooldown polling
)

// DefaultNetwork is used when no preference is persisted or when the
// persisted key is unknown.
const DefaultNetwork = "monad-testnet"
