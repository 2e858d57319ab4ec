package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// ErrFunctionNotInABI is returned when a call targets a function absent from
// the contract's ABI (e.g. refundEnabled on an older deployment).
var ErrFunctionNotInABI = errors.New("function not in ABI")

// Caller is the read side of an RPC client. *chain.EVMClient satisfies it.
type Caller interface {
	CallContract(ctx context.Context, to, calldata string) (string, error)
}

// Voting is a typed binding over the voting contract's read surface plus
// calldata construction for the one write it exposes.
type Voting struct {
	caller  Caller
	address string
	abi     []ABIEntry
}

// NewVoting binds the built-in voting ABI to a deployed contract address.
func NewVoting(c Caller, address string) *Voting {
	return &Voting{caller: c, address: address, abi: votingABI}
}

// Address returns the bound contract address.
func (v *Voting) Address() string { return v.address }

// HasFunction reports structurally whether the ABI carries a function by
// this name. Optional calls are gated on it instead of erroring at the node.
func (v *Voting) HasFunction(name string) bool {
	return v.find(name) != nil
}

// Votes returns the current happy and sad tallies.
func (v *Voting) Votes(ctx context.Context) (happy, sad *big.Int, err error) {
	data, err := v.read(ctx, "getVotes")
	if err != nil {
		return nil, nil, err
	}
	happyWord, sadWord := WordAt(data, 0), WordAt(data, 1)
	if happyWord == nil || sadWord == nil {
		return nil, nil, fmt.Errorf("getVotes: short result (%d bytes)", len(data))
	}
	if happy, err = DecodeUint(happyWord); err != nil {
		return nil, nil, err
	}
	if sad, err = DecodeUint(sadWord); err != nil {
		return nil, nil, err
	}
	return happy, sad, nil
}

// CanVote reports whether voter is outside the contract's cooldown window.
func (v *Voting) CanVote(ctx context.Context, voter string) (bool, error) {
	data, err := v.read(ctx, "canVote", voter)
	if err != nil {
		return false, err
	}
	word := WordAt(data, 0)
	if word == nil {
		return false, fmt.Errorf("canVote: short result (%d bytes)", len(data))
	}
	return DecodeBool(word)
}

// TimeUntilNextVote returns the seconds remaining until voter may vote again.
// Only meaningful when CanVote returned false.
func (v *Voting) TimeUntilNextVote(ctx context.Context, voter string) (*big.Int, error) {
	data, err := v.read(ctx, "timeUntilNextVote", voter)
	if err != nil {
		return nil, err
	}
	word := WordAt(data, 0)
	if word == nil {
		return nil, fmt.Errorf("timeUntilNextVote: short result (%d bytes)", len(data))
	}
	return DecodeUint(word)
}

// HappyLeaderboard returns the contract-maintained ranking as parallel
// address and count slices, in contract order.
func (v *Voting) HappyLeaderboard(ctx context.Context) ([]string, []*big.Int, error) {
	data, err := v.read(ctx, "getHappyLeaderboard")
	if err != nil {
		return nil, nil, err
	}
	addrs, err := DecodeAddressArray(data, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("getHappyLeaderboard addresses: %w", err)
	}
	counts, err := DecodeUintArray(data, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("getHappyLeaderboard counts: %w", err)
	}
	return addrs, counts, nil
}

// RefundEnabled probes the optional gas-refund flag. Callers must check
// HasFunction first; calling it against an older ABI returns
// ErrFunctionNotInABI without touching the network.
func (v *Voting) RefundEnabled(ctx context.Context) (bool, error) {
	data, err := v.read(ctx, "refundEnabled")
	if err != nil {
		return false, err
	}
	word := WordAt(data, 0)
	if word == nil {
		return false, fmt.Errorf("refundEnabled: short result (%d bytes)", len(data))
	}
	return DecodeBool(word)
}

// VoteCalldata builds calldata for vote(bool).
func (v *Voting) VoteCalldata(isHappy bool) (string, error) {
	fn := v.find("vote")
	if fn == nil {
		return "", fmt.Errorf("%w: vote", ErrFunctionNotInABI)
	}
	arg := "0"
	if isHappy {
		arg = "1"
	}
	return EncodeCall(fn, []string{arg})
}

// --- internal ---

func (v *Voting) find(name string) *ABIEntry {
	for i := range v.abi {
		if v.abi[i].Type == "function" && v.abi[i].Name == name {
			return &v.abi[i]
		}
	}
	return nil
}

func (v *Voting) read(ctx context.Context, name string, args ...string) ([]byte, error) {
	fn := v.find(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotInABI, name)
	}
	if !fn.IsReadFunction() {
		return nil, fmt.Errorf("function %q is not a read function (stateMutability: %s)", name, fn.StateMutability)
	}
	calldata, err := EncodeCall(fn, args)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}
	result, err := v.caller.CallContract(ctx, v.address, calldata)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}
	return ResultWords(result)
}
