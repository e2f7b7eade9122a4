// Package chain manages the connection to the EVM JSON-RPC endpoint.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/surefi/surefi-gateway/internal/apperr"
)

// ErrUnreachable is returned when the endpoint does not answer the liveness check.
var ErrUnreachable = errors.New("rpc endpoint unreachable")

// Config holds the connection settings.
type Config struct {
	RPCURL string
	// DialTimeout bounds dialing plus the startup diagnostic reads. Zero means no bound.
	DialTimeout time.Duration
}

// Status is what the node reported at connect time.
type Status struct {
	ChainID     *big.Int
	BlockNumber uint64
}

// Connector is a live client for one endpoint.
type Connector struct {
	client *ethclient.Client
	url    string
	status Status
}

// Connect dials the endpoint and checks that it answers. Every failure is a
// configuration error: the caller is expected to abort startup.
func Connect(ctx context.Context, cfg Config) (*Connector, error) {
	if cfg.RPCURL == "" {
		return nil, apperr.Configuration("connect", errors.New("rpc url is empty"))
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, apperr.Configuration("connect", fmt.Errorf("dialing %s: %w", cfg.RPCURL, err))
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		client.Close()
		return nil, apperr.Configuration("connect", fmt.Errorf("%w: %s: %v", ErrUnreachable, cfg.RPCURL, err))
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, apperr.Configuration("connect", fmt.Errorf("reading chain id: %w", err))
	}

	return &Connector{
		client: client,
		url:    cfg.RPCURL,
		status: Status{ChainID: chainID, BlockNumber: head},
	}, nil
}

// Client returns the underlying ethclient. It is safe for concurrent use.
func (c *Connector) Client() *ethclient.Client {
	return c.client
}

// URL returns the endpoint this connector was dialed with.
func (c *Connector) URL() string {
	return c.url
}

// Status returns the chain ID and block height seen at connect time.
func (c *Connector) Status() Status {
	return c.status
}

// Ping checks the endpoint still answers.
func (c *Connector) Ping(ctx context.Context) error {
	if _, err := c.client.BlockNumber(ctx); err != nil {
		return apperr.RemoteCall("ping", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *Connector) Close() {
	c.client.Close()
}
