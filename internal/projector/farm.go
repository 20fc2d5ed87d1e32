package projector

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cthucoin/indexer/internal/events"
	"github.com/cthucoin/indexer/internal/logger"
	"github.com/cthucoin/indexer/internal/metrics"
	"github.com/cthucoin/indexer/internal/store"
)

const farmStatsPath = "stats/farm"

// poolNames maps farm pool ids to display names. Unknown pools fall back
// to "Pool {pid}".
var poolNames = map[int64]string{
	0: "CTHU/MONAD LP",
	1: "CTHU/USDT LP",
	2: "MONAD/USDT LP",
	3: "Graduated Tokens",
}

// Farm projects staking events into the farmEvents audit collection and
// the stats/farm aggregate document. All stats mutations go through the
// store's commutative increment primitive: events for the same pool are
// handled concurrently and a read-modify-write here would lose updates.
type Farm struct {
	contract common.Address
	dec      *events.Decoder
	store    store.Store
	log      *logger.Logger
}

func NewFarm(contract common.Address, st store.Store, log *logger.Logger) *Farm {
	return &Farm{
		contract: contract,
		dec:      events.NewDecoder(events.FarmABI),
		store:    st,
		log:      log,
	}
}

func (p *Farm) Name() string             { return "farm" }
func (p *Farm) Contract() common.Address { return p.contract }
func (p *Farm) Topics() []common.Hash    { return p.dec.Topics() }

func (p *Farm) HandleLog(ctx context.Context, lg types.Log) {
	ev, err := p.dec.Decode(lg)
	if err != nil {
		metrics.DecodeErrors.WithLabelValues(p.Name()).Inc()
		p.log.Warnf("dropping undecodable log: %v", err)
		return
	}
	observe(p.Name(), ev)

	switch e := ev.(type) {
	case *events.Deposit:
		p.handleStakeChange(ctx, "deposit", e.User, e.Pid, e.Amount, e.Raw, +1)
	case *events.Withdraw:
		p.handleStakeChange(ctx, "withdraw", e.User, e.Pid, e.Amount, e.Raw, -1)
	case *events.EmergencyWithdraw:
		p.handleStakeChange(ctx, "emergency_withdraw", e.User, e.Pid, e.Amount, e.Raw, -1)
	case *events.Harvest:
		p.handleHarvest(ctx, e)
	}
}

func poolName(pid int64) string {
	if name, ok := poolNames[pid]; ok {
		return name
	}
	return fmt.Sprintf("Pool %d", pid)
}

func (p *Farm) handleStakeChange(ctx context.Context, kind string, user common.Address, pid, amount *big.Int, raw types.Log, sign float64) {
	if err := p.appendEvent(ctx, kind, user, pid, amount, raw); err != nil {
		p.storeError(kind, err)
		return
	}

	change := weiToEther(amount) * sign
	err := p.store.Merge(ctx, farmStatsPath, map[string]any{
		fmt.Sprintf("pool%dTotalStaked", pid.Int64()): store.Increment(change),
		"totalStaked": store.Increment(change),
		"lastUpdate":  store.ServerTimestamp,
	})
	if err != nil {
		p.storeError(kind, err)
		return
	}

	p.checkStakedTotal(ctx)
}

func (p *Farm) handleHarvest(ctx context.Context, e *events.Harvest) {
	if err := p.appendEvent(ctx, "harvest", e.User, e.Pid, e.Amount, e.Raw); err != nil {
		p.storeError("harvest", err)
		return
	}

	amount := weiToEther(e.Amount)
	err := p.store.Merge(ctx, farmStatsPath, map[string]any{
		fmt.Sprintf("pool%dTotalHarvested", e.Pid.Int64()): store.Increment(amount),
		"totalHarvested": store.Increment(amount),
		"lastUpdate":     store.ServerTimestamp,
	})
	if err != nil {
		p.storeError("harvest", err)
	}
}

func (p *Farm) appendEvent(ctx context.Context, kind string, user common.Address, pid, amount *big.Int, raw types.Log) error {
	_, err := p.store.Add(ctx, "farmEvents", map[string]any{
		"type":        kind,
		"user":        lowerAddr(user),
		"poolId":      pid.Int64(),
		"poolName":    poolName(pid.Int64()),
		"amount":      amount.String(),
		"timestamp":   store.ServerTimestamp,
		"txHash":      raw.TxHash.Hex(),
		"blockNumber": int64(raw.BlockNumber),
	})
	return err
}

// checkStakedTotal mirrors totalStaked into a gauge after each stake
// mutation. The total going negative means a deposit event was missed;
// it is surfaced, not repaired.
func (p *Farm) checkStakedTotal(ctx context.Context) {
	doc, err := p.store.Get(ctx, farmStatsPath)
	if err != nil || !doc.Exists() {
		return
	}

	total := doc.Float64("totalStaked")
	metrics.FarmTotalStaked.Set(total)
	if total < 0 {
		p.log.Warnf("totalStaked is negative (%f): a deposit event was likely missed", total)
	}
}

func (p *Farm) storeError(kind string, err error) {
	metrics.StoreErrors.WithLabelValues(p.Name()).Inc()
	p.log.Errorf("failed to persist farm %s: %v", kind, err)
}
