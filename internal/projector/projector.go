// Package projector contains the three event projectors. Each owns a
// disjoint set of contract events and a disjoint set of documents in the
// aggregate store; they share no state and are independently restartable.
package projector

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cthucoin/indexer/internal/events"
	"github.com/cthucoin/indexer/internal/metrics"
)

// Projector consumes raw logs for one contract and maintains derived
// aggregate state. HandleLog never returns an error: per-event failures
// are logged and dropped so one bad event cannot stall the stream.
type Projector interface {
	Name() string
	Contract() common.Address
	Topics() []common.Hash
	HandleLog(ctx context.Context, lg types.Log)
}

// lowerAddr is the canonical document key form of an address.
func lowerAddr(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// addBig adds delta to a decimal integer string, treating a missing or
// malformed current value as zero. Amounts exceed 53 bits, so all token
// arithmetic stays in big.Int and is stored as strings.
func addBig(current string, delta *big.Int) string {
	cur, ok := new(big.Int).SetString(current, 10)
	if !ok {
		cur = new(big.Int)
	}
	return new(big.Int).Add(cur, delta).String()
}

// weiToEther converts an 18-decimal fixed-point amount to a float64
// magnitude. Lossy above ~2^53 wei: the stats documents have
// always accumulated float values and the store's increment primitive is
// numeric, so the legacy behavior is kept. Full-precision strings are
// preserved on the audit records.
func weiToEther(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		big.NewFloat(1e18),
	).Float64()
	return f
}

// observe records common per-event bookkeeping.
func observe(projector string, ev events.Event) {
	metrics.EventsHandled.WithLabelValues(projector, ev.EventName()).Inc()
	metrics.LastHandledBlock.WithLabelValues(projector).Set(float64(ev.RawLog().BlockNumber))
}
