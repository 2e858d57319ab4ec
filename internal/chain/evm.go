package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// ErrNotMined is returned by WaitForReceipt when the context expires before
// the transaction is found in a block.
var ErrNotMined = errors.New("transaction not mined")

// EVMClient is a minimal JSON-RPC client for EVM chains. One client serves a
// single endpoint; callers cache one per network and never repoint it.
type EVMClient struct {
	url    string
	client *http.Client
}

// NewEVMClient creates a JSON-RPC client pointed at url.
func NewEVMClient(url string) *EVMClient {
	return &EVMClient{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// CallContract performs a read-only eth_call against a contract.
func (c *EVMClient) CallContract(ctx context.Context, to, calldata string) (string, error) {
	result, err := c.call(ctx, "eth_call", map[string]string{
		"to":   to,
		"data": calldata,
	}, "latest")
	if err != nil {
		return "", err
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return s, nil
}

// EstimateGas asks the node to simulate the call and return a gas estimate.
func (c *EVMClient) EstimateGas(ctx context.Context, from, to, calldata string) (uint64, error) {
	params := map[string]string{"from": from, "to": to}
	if calldata != "" {
		params["data"] = calldata
	}
	result, err := c.call(ctx, "eth_estimateGas", params, "latest")
	if err != nil {
		return 0, err
	}
	n, err := hexWord(result)
	if err != nil {
		return 0, fmt.Errorf("parsing gas estimate: %w", err)
	}
	return n.Uint64(), nil
}

// GasPrice returns the current gas price in wei.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	result, err := c.call(ctx, "eth_gasPrice")
	if err != nil {
		return nil, err
	}
	n, err := hexWord(result)
	if err != nil {
		return nil, fmt.Errorf("parsing gas price: %w", err)
	}
	return n, nil
}

// ChainID returns the chain's numeric ID.
func (c *EVMClient) ChainID(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	n, err := hexWord(result)
	if err != nil {
		return 0, fmt.Errorf("parsing chain id: %w", err)
	}
	return n.Int64(), nil
}

// PendingNonce returns the transaction count including queued transactions.
func (c *EVMClient) PendingNonce(ctx context.Context, address string) (uint64, error) {
	result, err := c.call(ctx, "eth_getTransactionCount", address, "pending")
	if err != nil {
		return 0, err
	}
	n, err := hexWord(result)
	if err != nil {
		return 0, fmt.Errorf("parsing nonce: %w", err)
	}
	return n.Uint64(), nil
}

// SendRawTransaction broadcasts a signed raw transaction and returns its hash.
func (c *EVMClient) SendRawTransaction(ctx context.Context, rawTx string) (string, error) {
	result, err := c.call(ctx, "eth_sendRawTransaction", rawTx)
	if err != nil {
		return "", err
	}
	hash, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return hash, nil
}

// Receipt holds the on-chain receipt of a mined transaction.
type Receipt struct {
	Hash        string
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
}

// TransactionReceipt fetches the receipt for hash.
// Returns nil, nil while the transaction is still pending.
func (c *EVMClient) TransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil // still pending
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var r struct {
		Status      string `json:"status"`
		BlockNumber string `json:"blockNumber"`
		GasUsed     string `json:"gasUsed"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}

	receipt := &Receipt{Hash: hash}
	if s, ok := parseBigHex(r.Status); ok {
		receipt.Status = s.Uint64()
	}
	if bn, ok := parseBigHex(r.BlockNumber); ok {
		receipt.BlockNumber = bn.Uint64()
	}
	if gu, ok := parseBigHex(r.GasUsed); ok {
		receipt.GasUsed = gu.Uint64()
	}
	return receipt, nil
}

// WaitForReceipt polls at interval until the transaction is mined or ctx is
// done. A mined-but-reverted receipt is returned without error; the caller
// decides what receipt status means. Expiry returns ErrNotMined.
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash string, interval time.Duration) (*Receipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrNotMined, hash)
		case <-ticker.C:
		}
	}
}

// --- JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *EVMClient) call(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result interface{}
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}
	return result, nil
}

func hexWord(result interface{}) (*big.Int, error) {
	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result: %T", result)
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("not a hex quantity: %s", hexStr)
	}
	return n, nil
}

func parseBigHex(s string) (*big.Int, bool) {
	n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	return n, ok
}

// ExtractRevertReason pulls a human-readable revert reason out of an RPC
// error message when one is present.
func ExtractRevertReason(errMsg string) string {
	if idx := strings.Index(errMsg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx:])
	}
	if idx := strings.Index(errMsg, "revert"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx:])
	}
	return errMsg
}
