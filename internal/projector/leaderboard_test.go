package projector

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cthucoin/indexer/internal/events"
	"github.com/cthucoin/indexer/internal/logger"
	"github.com/cthucoin/indexer/internal/store/memory"
)

var leaderboardAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")

const (
	weekFivePath  = "leaderboards/2026-W05"
	entryDocPath  = weekFivePath + "/entries/0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	burnerLowered = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newLeaderboardFixture() (*Leaderboard, *memory.Store) {
	st := memory.New()
	p := NewLeaderboard(leaderboardAddr, st, logger.NewNopLogger())
	p.SetClock(func() time.Time { return utc(2026, time.February, 2) })
	return p, st
}

func burnLog(t *testing.T, token common.Address, amount, weekNumber int64) types.Log {
	return buildLog(t, events.LeaderboardABI, "BurnForRank",
		[]common.Hash{addrTopic(token), addrTopic(traderAddr)},
		big.NewInt(amount), big.NewInt(weekNumber))
}

func TestLeaderboard_FirstBurnCreatesWeekAndEntry(t *testing.T) {
	p, st := newLeaderboardFixture()

	p.HandleLog(context.Background(), burnLog(t, tokenAddr, 10, 5))

	week := st.Doc(weekFivePath)
	require.NotNil(t, week)
	assert.Equal(t, 5, week["weekNumber"])
	assert.Equal(t, "2026-W05", week["weekId"])
	assert.Equal(t, "10", week["totalBurned"])
	assert.NotNil(t, week["startedAt"])

	entry := st.Doc(entryDocPath)
	require.NotNil(t, entry)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", entry["token"])
	assert.Equal(t, "10", entry["burnAmount"])
	assert.Equal(t, int64(1), entry["burnCount"])
	assert.Equal(t, "2026-W05", entry["weekId"])
	assert.NotNil(t, entry["firstBurnAt"])
	assert.NotNil(t, entry["lastBurnAt"])
}

func TestLeaderboard_RepeatedBurnsAccumulate(t *testing.T) {
	p, st := newLeaderboardFixture()
	ctx := context.Background()

	p.HandleLog(ctx, burnLog(t, tokenAddr, 10, 5))
	p.HandleLog(ctx, burnLog(t, tokenAddr, 20, 5))

	entry := st.Doc(entryDocPath)
	require.NotNil(t, entry)
	assert.Equal(t, "30", entry["burnAmount"])
	assert.Equal(t, int64(2), entry["burnCount"])

	week := st.Doc(weekFivePath)
	require.NotNil(t, week)
	assert.Equal(t, "30", week["totalBurned"])

	burns := st.Collection("burns")
	require.Len(t, burns, 2)
	assert.Equal(t, burnerLowered, burns[0]["burner"])
	assert.Equal(t, "10", burns[0]["amount"])
	assert.Equal(t, "20", burns[1]["amount"])
	assert.Equal(t, "2026-W05", burns[1]["weekId"])
	assert.Equal(t, int64(1337), burns[1]["blockNumber"])
}

func TestLeaderboard_WeekTotalSpansTokens(t *testing.T) {
	p, st := newLeaderboardFixture()
	ctx := context.Background()

	other := common.HexToAddress("0xEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEE")
	p.HandleLog(ctx, burnLog(t, tokenAddr, 10, 5))
	p.HandleLog(ctx, burnLog(t, other, 5, 5))

	week := st.Doc(weekFivePath)
	require.NotNil(t, week)
	assert.Equal(t, "15", week["totalBurned"])

	assert.Len(t, st.Collection(weekFivePath+"/entries"), 2)
}

func TestLeaderboard_TokenInfoDenormalized(t *testing.T) {
	p, st := newLeaderboardFixture()
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "tokens/0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", map[string]any{
		"name":   "Elder Token",
		"symbol": "ELDER",
	}))

	p.HandleLog(ctx, burnLog(t, tokenAddr, 10, 5))

	entry := st.Doc(entryDocPath)
	require.NotNil(t, entry)
	assert.Equal(t, "Elder Token", entry["name"])
	assert.Equal(t, "ELDER", entry["symbol"])
}

func TestLeaderboard_TokenInfoFallback(t *testing.T) {
	p, st := newLeaderboardFixture()

	p.HandleLog(context.Background(), burnLog(t, tokenAddr, 10, 5))

	entry := st.Doc(entryDocPath)
	require.NotNil(t, entry)
	assert.Equal(t, "Unknown", entry["name"])
	assert.Equal(t, "???", entry["symbol"])
}

func TestLeaderboard_DistinctWeeksStayApart(t *testing.T) {
	p, st := newLeaderboardFixture()
	ctx := context.Background()

	p.HandleLog(ctx, burnLog(t, tokenAddr, 10, 5))
	p.HandleLog(ctx, burnLog(t, tokenAddr, 7, 6))

	assert.Equal(t, "10", st.Doc(weekFivePath)["totalBurned"])

	weekSix := st.Doc("leaderboards/2026-W06")
	require.NotNil(t, weekSix)
	assert.Equal(t, "7", weekSix["totalBurned"])
	assert.Equal(t, 6, weekSix["weekNumber"])
}
