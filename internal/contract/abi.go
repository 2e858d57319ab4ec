package contract

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ABIEntry is one ABI entry (function, event, etc.).
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs"`
	StateMutability string     `json:"stateMutability"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// ParseABI parses raw ABI JSON into entries.
func ParseABI(data []byte) ([]ABIEntry, error) {
	var entries []ABIEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing ABI: %w", err)
	}
	return entries, nil
}

// Selector computes the 4-byte function selector, 0x-prefixed.
func Selector(fn *ABIEntry) string {
	types := make([]string, len(fn.Inputs))
	for i, p := range fn.Inputs {
		types[i] = p.Type
	}
	sig := fn.Name + "(" + strings.Join(types, ",") + ")"

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// EncodeCall builds calldata: selector + statically encoded args. Only the
// parameter types the voting ABI uses are supported.
func EncodeCall(fn *ABIEntry, args []string) (string, error) {
	var b strings.Builder
	b.WriteString(Selector(fn))

	for i, param := range fn.Inputs {
		var arg string
		if i < len(args) {
			arg = args[i]
		}
		word, err := encodeParam(param.Type, arg)
		if err != nil {
			return "", fmt.Errorf("encoding param %s: %w", param.Name, err)
		}
		b.WriteString(word)
	}
	return b.String(), nil
}

func encodeParam(typ, val string) (string, error) {
	val = strings.TrimPrefix(val, "0x")

	switch {
	case typ == "address":
		if len(val) != 40 {
			return "", fmt.Errorf("invalid address length: %d", len(val))
		}
		return fmt.Sprintf("%064s", strings.ToLower(val)), nil

	case typ == "bool":
		if val == "true" || val == "1" {
			return fmt.Sprintf("%064d", 1), nil
		}
		return fmt.Sprintf("%064d", 0), nil

	case strings.HasPrefix(typ, "uint") || strings.HasPrefix(typ, "int"):
		n := new(big.Int)
		if _, ok := n.SetString(val, 10); !ok {
			return "", fmt.Errorf("invalid integer: %s", val)
		}
		return fmt.Sprintf("%064x", n), nil

	default:
		return "", fmt.Errorf("unsupported parameter type: %s", typ)
	}
}

// --- result decoding ---

// ResultWords splits a 0x-hex eth_call result into raw bytes.
func ResultWords(hexData string) ([]byte, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(hexData, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding hex result: %w", err)
	}
	return data, nil
}

// WordAt returns the i-th 32-byte word of data, or nil when out of range.
func WordAt(data []byte, i int) []byte {
	start := i * 32
	if start+32 > len(data) {
		return nil
	}
	return data[start : start+32]
}

// DecodeUint decodes a 32-byte word as an unsigned integer.
func DecodeUint(word []byte) (*big.Int, error) {
	if len(word) != 32 {
		return nil, fmt.Errorf("short word: %d bytes", len(word))
	}
	return new(big.Int).SetBytes(word), nil
}

// DecodeBool decodes a 32-byte word as a bool.
func DecodeBool(word []byte) (bool, error) {
	if len(word) != 32 {
		return false, fmt.Errorf("short word: %d bytes", len(word))
	}
	return word[31] == 1, nil
}

// DecodeAddress decodes a 32-byte word as a 0x-prefixed address string.
func DecodeAddress(word []byte) (string, error) {
	if len(word) != 32 {
		return "", fmt.Errorf("short word: %d bytes", len(word))
	}
	return "0x" + hex.EncodeToString(word[12:]), nil
}

// DecodeAddressArray decodes a dynamic address[] output. head is the index
// of the head word holding the array's byte offset.
func DecodeAddressArray(data []byte, head int) ([]string, error) {
	elems, err := arrayElems(data, head)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(elems))
	for _, w := range elems {
		addr, err := DecodeAddress(w)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// DecodeUintArray decodes a dynamic uint256[] output. head is the index of
// the head word holding the array's byte offset.
func DecodeUintArray(data []byte, head int) ([]*big.Int, error) {
	elems, err := arrayElems(data, head)
	if err != nil {
		return nil, err
	}
	out := make([]*big.Int, 0, len(elems))
	for _, w := range elems {
		n, err := DecodeUint(w)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func arrayElems(data []byte, head int) ([][]byte, error) {
	headWord := WordAt(data, head)
	if headWord == nil {
		return nil, fmt.Errorf("result too short for head word %d", head)
	}
	offset := new(big.Int).SetBytes(headWord)
	if !offset.IsUint64() || offset.Uint64()+32 > uint64(len(data)) {
		return nil, fmt.Errorf("array offset out of range")
	}
	off := int(offset.Uint64())

	length := new(big.Int).SetBytes(data[off : off+32])
	if !length.IsUint64() {
		return nil, fmt.Errorf("array length out of range")
	}
	// Bound the claimed count by the bytes actually present before any
	// allocation; a hostile length word must not be able to wrap the math.
	avail := uint64(len(data)-off-32) / 32
	if length.Uint64() > avail {
		return nil, fmt.Errorf("array data truncated: want %s elements", length)
	}
	n := int(length.Uint64())

	elems := make([][]byte, n)
	for i := 0; i < n; i++ {
		start := off + 32 + i*32
		elems[i] = data[start : start+32]
	}
	return elems, nil
}
