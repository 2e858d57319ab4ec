package chain

import (
	"errors"
	"strings"
)

// ErrNetworkNotFound is returned when a network key is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// ZeroAddress is the sentinel contract address for networks that are
// registered but have no deployment yet. Every write and most reads must
// short-circuit with a configuration error when they see it.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Network holds all metadata for a single supported chain.
type Network struct {
	Key              string   `json:"key"`
	DisplayName      string   `json:"display_name"`
	ChainID          int64    `json:"chain_id"`
	RPCs             []string `json:"rpcs"` // ordered, first is primary
	ExplorerName     string   `json:"explorer_name"`
	ExplorerURL      string   `json:"explorer_url"`
	CurrencyName     string   `json:"currency_name"`
	CurrencySymbol   string   `json:"currency_symbol"`
	CurrencyDecimals int      `json:"currency_decimals"`
	// ContractAddress is the voting contract deployment, or ZeroAddress
	// when the network is registered but not deployable-against.
	ContractAddress     string `json:"contract_address"`
	SupportsLeaderboard bool   `json:"supports_leaderboard"`
}

// HasContract reports whether a voting contract is deployed on this network.
func (n *Network) HasContract() bool {
	return n.ContractAddress != "" && !strings.EqualFold(n.ContractAddress, ZeroAddress)
}

// PrimaryRPC returns the first RPC endpoint, or "" when none is registered.
func (n *Network) PrimaryRPC() string {
	if len(n.RPCs) == 0 {
		return ""
	}
	return n.RPCs[0]
}

// TxURL returns the explorer link for a transaction hash (display only).
func (n *Network) TxURL(hash string) string {
	return strings.TrimSuffix(n.ExplorerURL, "/") + "/tx/" + hash
}

// Registry is the static network registry. It is built once at startup and
// never mutated afterwards.
type Registry struct {
	networks []Network
	byKey    map[string]*Network
	byID     map[int64]*Network
}

// NewRegistry builds the registry of supported networks. overrides maps a
// network key to a contract address that replaces the built-in one (used for
// deploy-time configuration); unknown keys are ignored.
func NewRegistry(overrides map[string]string) *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byKey:    make(map[string]*Network, len(networks)),
		byID:     make(map[int64]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		if addr, ok := overrides[n.Key]; ok && addr != "" {
			n.ContractAddress = addr
		}
		r.byKey[n.Key] = n
		r.byID[n.ChainID] = n
	}
	return r
}

// clone returns an independent copy, RPC list included, so callers cannot
// mutate registry state through a resolved network.
func (n *Network) clone() *Network {
	c := *n
	c.RPCs = append([]string(nil), n.RPCs...)
	return &c
}

// All returns a copy of every network in registry order.
func (r *Registry) All() []Network {
	out := make([]Network, len(r.networks))
	for i := range r.networks {
		out[i] = *r.networks[i].clone()
	}
	return out
}

// Resolve finds a network by its key (e.g. "monad-testnet"). The returned
// network is a copy; mutating it does not affect later lookups.
func (r *Registry) Resolve(key string) (*Network, error) {
	n, ok := r.byKey[strings.ToLower(key)]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return n.clone(), nil
}

// ResolveByChainID finds a network by its numeric chain ID. ok is false when
// the chain is not one we support. The returned network is a copy.
func (r *Registry) ResolveByChainID(id int64) (*Network, bool) {
	n, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// --- network data ---

func allNetworks() []Network {
	return []Network{
		{
			Key: "monad-testnet", DisplayName: "Monad Testnet", ChainID: 10143,
			RPCs:         []string{"https://rpc1.monad.xyz", "https://testnet-rpc.monad.xyz"},
			ExplorerName: "MonadExplorer", ExplorerURL: "https://testnet.monadexplorer.com",
			CurrencyName: "Monad", CurrencySymbol: "MON", CurrencyDecimals: 18,
			ContractAddress:     "0x8B5C1a7E2d9F0b3A4C6E8d1F2a3B4c5D6e7F8A90",
			SupportsLeaderboard: true,
		},
		{
			Key: "sepolia", DisplayName: "Sepolia", ChainID: 11155111,
			RPCs:         []string{"https://rpc.sepolia.org", "https://sepolia.gateway.tenderly.co"},
			ExplorerName: "Etherscan", ExplorerURL: "https://sepolia.etherscan.io",
			CurrencyName: "Sepolia Ether", CurrencySymbol: "ETH", CurrencyDecimals: 18,
			ContractAddress:     "0x3F6a9D2c8E1b4A7f0C5d8E2a6B9c1D4e7F0A3b58",
			SupportsLeaderboard: true,
		},
		{
			Key: "optimism", DisplayName: "Optimism", ChainID: 10,
			RPCs:         []string{"https://mainnet.optimism.io"},
			ExplorerName: "Etherscan", ExplorerURL: "https://optimistic.etherscan.io",
			CurrencyName: "Ether", CurrencySymbol: "ETH", CurrencyDecimals: 18,
			ContractAddress:     ZeroAddress, // registered, not deployed yet
			SupportsLeaderboard: false,
		},
		{
			Key: "arbitrum", DisplayName: "Arbitrum One", ChainID: 42161,
			RPCs:         []string{"https://arb1.arbitrum.io/rpc"},
			ExplorerName: "Arbiscan", ExplorerURL: "https://arbiscan.io",
			CurrencyName: "Ether", CurrencySymbol: "ETH", CurrencyDecimals: 18,
			ContractAddress:     ZeroAddress, // registered, not deployed yet
			SupportsLeaderboard: false,
		},
	}
}
