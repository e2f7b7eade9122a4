package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surefi/surefi-gateway/internal/apperr"
	"github.com/surefi/surefi-gateway/internal/chain/chaintest"
)

func TestConnect_ReportsStatus(t *testing.T) {
	node := chaintest.NewNode(t)

	conn, err := Connect(context.Background(), Config{RPCURL: node.URL(), DialTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer conn.Close()

	status := conn.Status()
	assert.Equal(t, uint64(chaintest.DefaultBlockNumber), status.BlockNumber)
	assert.Equal(t, int64(chaintest.DefaultChainID), status.ChainID.Int64())
	assert.Equal(t, node.URL(), conn.URL())
	assert.Equal(t, 1, node.Calls("eth_blockNumber"))
	assert.Equal(t, 1, node.Calls("eth_chainId"))
}

func TestConnect_EmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestConnect_LivenessFailure(t *testing.T) {
	node := chaintest.NewNode(t)
	node.Handle("eth_blockNumber", chaintest.Fail("node is syncing"))

	_, err := Connect(context.Background(), Config{RPCURL: node.URL()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
	assert.Equal(t, 0, node.Calls("eth_chainId"), "chain id must not be read after a failed liveness check")
}

func TestConnect_ChainIDFailure(t *testing.T) {
	node := chaintest.NewNode(t)
	node.Handle("eth_chainId", chaintest.Fail("method not supported"))

	_, err := Connect(context.Background(), Config{RPCURL: node.URL()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not supported")
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestConnect_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := Connect(context.Background(), Config{RPCURL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestConnect_UnsupportedScheme(t *testing.T) {
	_, err := Connect(context.Background(), Config{RPCURL: "ftp://example.invalid"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestConnector_Ping(t *testing.T) {
	node := chaintest.NewNode(t)

	conn, err := Connect(context.Background(), Config{RPCURL: node.URL()})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Ping(context.Background()))

	node.Handle("eth_blockNumber", chaintest.Fail("connection refused"))
	err = conn.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindRemoteCall, apperr.KindOf(err))
	assert.Equal(t, "connection refused", err.Error())
}
