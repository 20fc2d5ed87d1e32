package projector

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cthucoin/indexer/internal/events"
	"github.com/cthucoin/indexer/internal/logger"
	"github.com/cthucoin/indexer/internal/store/memory"
)

var farmAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")

func newFarmFixture() (*Farm, *memory.Store) {
	st := memory.New()
	return NewFarm(farmAddr, st, logger.NewNopLogger()), st
}

func farmLog(t *testing.T, name string, pid int64, amount *big.Int) types.Log {
	return buildLog(t, events.FarmABI, name,
		[]common.Hash{addrTopic(traderAddr), common.BigToHash(big.NewInt(pid))},
		amount)
}

func TestFarm_ConcurrentDepositsSum(t *testing.T) {
	p, st := newFarmFixture()

	logs := []types.Log{
		farmLog(t, "Deposit", 0, ether(100)),
		farmLog(t, "Deposit", 0, ether(50)),
	}

	var wg sync.WaitGroup
	for _, lg := range logs {
		wg.Add(1)
		go func(lg types.Log) {
			defer wg.Done()
			p.HandleLog(context.Background(), lg)
		}(lg)
	}
	wg.Wait()

	doc := st.Doc(farmStatsPath)
	require.NotNil(t, doc)
	assert.InDelta(t, 150.0, doc["pool0TotalStaked"], 1e-9)
	assert.InDelta(t, 150.0, doc["totalStaked"], 1e-9)
	assert.NotNil(t, doc["lastUpdate"])

	assert.Len(t, st.Collection("farmEvents"), 2)
}

func TestFarm_WithdrawDecrements(t *testing.T) {
	p, st := newFarmFixture()
	ctx := context.Background()

	p.HandleLog(ctx, farmLog(t, "Deposit", 1, ether(100)))
	p.HandleLog(ctx, farmLog(t, "Withdraw", 1, ether(40)))

	doc := st.Doc(farmStatsPath)
	require.NotNil(t, doc)
	assert.InDelta(t, 60.0, doc["pool1TotalStaked"], 1e-9)
	assert.InDelta(t, 60.0, doc["totalStaked"], 1e-9)

	evs := st.Collection("farmEvents")
	require.Len(t, evs, 2)
	assert.Equal(t, "deposit", evs[0]["type"])
	assert.Equal(t, "withdraw", evs[1]["type"])
	assert.Equal(t, ether(40).String(), evs[1]["amount"])
	assert.Equal(t, "CTHU/USDT LP", evs[1]["poolName"])
}

func TestFarm_EmergencyWithdraw(t *testing.T) {
	p, st := newFarmFixture()
	ctx := context.Background()

	p.HandleLog(ctx, farmLog(t, "Deposit", 2, ether(10)))
	p.HandleLog(ctx, farmLog(t, "EmergencyWithdraw", 2, ether(10)))

	doc := st.Doc(farmStatsPath)
	require.NotNil(t, doc)
	assert.InDelta(t, 0.0, doc["pool2TotalStaked"], 1e-9)

	evs := st.Collection("farmEvents")
	require.Len(t, evs, 2)
	assert.Equal(t, "emergency_withdraw", evs[1]["type"])
}

func TestFarm_HarvestAccumulates(t *testing.T) {
	p, st := newFarmFixture()
	ctx := context.Background()

	p.HandleLog(ctx, farmLog(t, "Harvest", 3, ether(5)))
	p.HandleLog(ctx, farmLog(t, "Harvest", 3, ether(7)))

	doc := st.Doc(farmStatsPath)
	require.NotNil(t, doc)
	assert.InDelta(t, 12.0, doc["pool3TotalHarvested"], 1e-9)
	assert.InDelta(t, 12.0, doc["totalHarvested"], 1e-9)

	// harvesting never moves stake totals
	_, hasStaked := doc["totalStaked"]
	assert.False(t, hasStaked)

	evs := st.Collection("farmEvents")
	require.Len(t, evs, 2)
	assert.Equal(t, "harvest", evs[0]["type"])
	assert.Equal(t, "Graduated Tokens", evs[0]["poolName"])
}

func TestFarm_EventRecordKeepsFullPrecision(t *testing.T) {
	p, st := newFarmFixture()

	// one wei more than 100 ether; the float aggregate loses it but the
	// audit record must not
	amount := new(big.Int).Add(ether(100), big.NewInt(1))
	p.HandleLog(context.Background(), farmLog(t, "Deposit", 0, amount))

	evs := st.Collection("farmEvents")
	require.Len(t, evs, 1)
	assert.Equal(t, amount.String(), evs[0]["amount"])
	assert.Equal(t, int64(0), evs[0]["poolId"])
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", evs[0]["user"])
}

func TestFarm_PoolNameFallback(t *testing.T) {
	assert.Equal(t, "CTHU/MONAD LP", poolName(0))
	assert.Equal(t, "Pool 9", poolName(9))

	p, st := newFarmFixture()
	p.HandleLog(context.Background(), farmLog(t, "Deposit", 9, ether(1)))

	evs := st.Collection("farmEvents")
	require.Len(t, evs, 1)
	assert.Equal(t, "Pool 9", evs[0]["poolName"])

	doc := st.Doc(farmStatsPath)
	require.NotNil(t, doc)
	assert.InDelta(t, 1.0, doc["pool9TotalStaked"], 1e-9)
}
