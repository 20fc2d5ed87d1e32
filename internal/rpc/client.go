package rpc

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/cthucoin/indexer/internal/config"
	"github.com/cthucoin/indexer/internal/logger"
)

// Client wraps the go-ethereum RPC client with retry-aware convenience
// methods for the indexer.
type Client struct {
	eth      *ethclient.Client
	rpc      *rpc.Client
	endpoint string
	retry    config.RetryConfig
	log      *logger.Logger
}

// Dial connects to the given endpoint. The connection itself is lazy for
// http endpoints; use ChainID for the actual connectivity check.
func Dial(ctx context.Context, endpoint string, retry config.RetryConfig, log *logger.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return &Client{
		eth:      ethclient.NewClient(rpcClient),
		rpc:      rpcClient,
		endpoint: endpoint,
		retry:    retry,
		log:      log,
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.eth.Close()
}

// SupportsSubscriptions reports whether the endpoint can serve
// eth_subscribe (websocket endpoints only).
func (c *Client) SupportsSubscriptions() bool {
	return strings.HasPrefix(c.endpoint, "ws://") || strings.HasPrefix(c.endpoint, "wss://")
}

// ChainID resolves the network identity. Used as the startup connectivity
// probe: a failure here is fatal for the process.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := retryWithBackoff(ctx, c.retry, c.log, "eth_chainId", func() error {
		var err error
		id, err = c.eth.ChainID(ctx)
		return err
	})
	return id, err
}

// BlockNumber returns the current head block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var head uint64
	err := retryWithBackoff(ctx, c.retry, c.log, "eth_blockNumber", func() error {
		var err error
		head, err = c.eth.BlockNumber(ctx)
		return err
	})
	return head, err
}

// FilterLogs retrieves logs matching the given filter query.
func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := retryWithBackoff(ctx, c.retry, c.log, "eth_getLogs", func() error {
		var err error
		logs, err = c.eth.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// SubscribeFilterLogs opens a live log subscription. Only valid on
// websocket endpoints; delivery and internal reconnects are the node
// client's responsibility.
func (c *Client) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.eth.SubscribeFilterLogs(ctx, query, ch)
}
