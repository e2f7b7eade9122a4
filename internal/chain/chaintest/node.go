// Package chaintest provides a minimal JSON-RPC node for tests.
package chaintest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Default values answered by a fresh Node.
const (
	DefaultBlockNumber = 42
	DefaultChainID     = 1043
)

// Handler answers one JSON-RPC method. A non-nil error is sent back as a
// JSON-RPC error object carrying err.Error() as its message.
type Handler func(params []json.RawMessage) (any, error)

// Node is an httptest server speaking enough JSON-RPC for ethclient.
type Node struct {
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    map[string]int
}

// NewNode starts a node answering eth_blockNumber and eth_chainId. It is
// closed when the test finishes.
func NewNode(t testing.TB) *Node {
	t.Helper()

	n := &Node{
		handlers: map[string]Handler{
			"eth_blockNumber": Result(hexutil.Uint64(DefaultBlockNumber)),
			"eth_chainId":     Result(hexutil.Uint64(DefaultChainID)),
		},
		calls: make(map[string]int),
	}
	n.server = httptest.NewServer(http.HandlerFunc(n.serveHTTP))
	t.Cleanup(n.server.Close)
	return n
}

// URL returns the node's endpoint.
func (n *Node) URL() string {
	return n.server.URL
}

// Handle installs h for method, replacing any previous handler.
func (n *Node) Handle(method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// Calls returns how many times method has been requested.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// Result returns a handler that always answers v.
func Result(v any) Handler {
	return func([]json.RawMessage) (any, error) {
		return v, nil
	}
}

// Fail returns a handler that always answers with a JSON-RPC error.
func Fail(message string) Handler {
	return func([]json.RawMessage) (any, error) {
		return nil, errors.New(message)
	}
}

// EthCall adapts fn into an eth_call handler.
func EthCall(fn func(to common.Address, data []byte) ([]byte, error)) Handler {
	return func(params []json.RawMessage) (any, error) {
		if len(params) == 0 {
			return nil, errors.New("missing call object")
		}
		var arg struct {
			To    common.Address `json:"to"`
			Input hexutil.Bytes  `json:"input"`
			Data  hexutil.Bytes  `json:"data"`
		}
		if err := json.Unmarshal(params[0], &arg); err != nil {
			return nil, err
		}
		data := arg.Input
		if len(data) == 0 {
			data = arg.Data
		}
		out, err := fn(arg.To, data)
		if err != nil {
			return nil, err
		}
		return hexutil.Bytes(out), nil
	}
}

type request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (n *Node) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	var params []json.RawMessage
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			http.Error(w, "invalid params", http.StatusBadRequest)
			return
		}
	}

	n.mu.Lock()
	n.calls[req.Method]++
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := response{JSONRPC: "2.0", ID: req.ID}
	if !ok {
		resp.Error = &rpcError{Code: -32601, Message: "the method " + req.Method + " does not exist/is not available"}
	} else if result, err := h(params); err != nil {
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	} else {
		resp.Result = result
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
