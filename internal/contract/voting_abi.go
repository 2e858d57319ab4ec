package contract

// VotingABIJSON is the voting contract interface the client consumes. Older
// deployments may lack refundEnabled; callers probe with HasFunction before
// touching it.
const VotingABIJSON = `[
  {"name":"getVotes","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"happy","type":"uint256"},{"name":"sad","type":"uint256"}]},
  {"name":"canVote","type":"function","stateMutability":"view","inputs":[{"name":"voter","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"timeUntilNextVote","type":"function","stateMutability":"view","inputs":[{"name":"voter","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"vote","type":"function","stateMutability":"nonpayable","inputs":[{"name":"isHappy","type":"bool"}],"outputs":[]},
  {"name":"getHappyLeaderboard","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"addresses","type":"address[]"},{"name":"counts","type":"uint256[]"}]},
  {"name":"refundEnabled","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"name":"Voted","type":"event","inputs":[{"name":"voter","type":"address"},{"name":"isHappy","type":"bool"}]}
]`

// votingABI is the parsed form, built once at init.
var votingABI []ABIEntry

func init() {
	abi, err := ParseABI([]byte(VotingABIJSON))
	if err != nil {
		panic("contract: invalid built-in voting ABI: " + err.Error())
	}
	votingABI = abi
}

// VotingABI returns the parsed built-in voting ABI.
func VotingABI() []ABIEntry {
	return votingABI
}
