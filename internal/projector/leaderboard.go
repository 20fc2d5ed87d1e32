package projector

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cthucoin/indexer/internal/events"
	"github.com/cthucoin/indexer/internal/logger"
	"github.com/cthucoin/indexer/internal/metrics"
	"github.com/cthucoin/indexer/internal/store"
)

// Leaderboard projects burn events into weekly ranking documents. The
// entry mutation needs a create-or-update branch plus a coupled week
// total, so a plain increment is not enough: the whole read-modify-write
// runs in one store transaction and the store retries it on conflict.
type Leaderboard struct {
	contract common.Address
	dec      *events.Decoder
	store    store.Store
	log      *logger.Logger
	now      func() time.Time
}

func NewLeaderboard(contract common.Address, st store.Store, log *logger.Logger) *Leaderboard {
	return &Leaderboard{
		contract: contract,
		dec:      events.NewDecoder(events.LeaderboardABI),
		store:    st,
		log:      log,
		now:      time.Now,
	}
}

// SetClock overrides the wall clock used for week id derivation.
func (p *Leaderboard) SetClock(now func() time.Time) {
	p.now = now
}

func (p *Leaderboard) Name() string             { return "leaderboard" }
func (p *Leaderboard) Contract() common.Address { return p.contract }
func (p *Leaderboard) Topics() []common.Hash    { return p.dec.Topics() }

func (p *Leaderboard) HandleLog(ctx context.Context, lg types.Log) {
	ev, err := p.dec.Decode(lg)
	if err != nil {
		metrics.DecodeErrors.WithLabelValues(p.Name()).Inc()
		p.log.Warnf("dropping undecodable log: %v", err)
		return
	}
	observe(p.Name(), ev)

	if burn, ok := ev.(*events.BurnForRank); ok {
		p.handleBurn(ctx, burn)
	}
}

func (p *Leaderboard) handleBurn(ctx context.Context, e *events.BurnForRank) {
	token := lowerAddr(e.Token)
	weekNumber := int(e.WeekNumber.Int64())
	weekID := WeekID(weekNumber, p.now())
	weekPath := "leaderboards/" + weekID
	entryPath := weekPath + "/entries/" + token

	p.log.Infof("burn for rank: %s burned for %s in %s", e.Amount.String(), token, weekID)

	err := p.store.RunTransaction(ctx, func(tx store.Tx) error {
		weekDoc, err := tx.Get(weekPath)
		if err != nil {
			return err
		}
		entryDoc, err := tx.Get(entryPath)
		if err != nil {
			return err
		}

		if !weekDoc.Exists() {
			tx.Set(weekPath, map[string]any{
				"weekNumber":  weekNumber,
				"weekId":      weekID,
				"startedAt":   store.ServerTimestamp,
				"totalBurned": "0",
			})
		}

		if entryDoc.Exists() {
			tx.Update(entryPath, map[string]any{
				"burnAmount": addBig(entryDoc.String("burnAmount"), e.Amount),
				"burnCount":  entryDoc.Int64("burnCount") + 1,
				"lastBurnAt": store.ServerTimestamp,
			})
		} else {
			name, symbol := p.tokenInfo(ctx, token)
			tx.Set(entryPath, map[string]any{
				"token":       token,
				"name":        name,
				"symbol":      symbol,
				"burnAmount":  e.Amount.String(),
				"weekId":      weekID,
				"weekNumber":  weekNumber,
				"firstBurnAt": store.ServerTimestamp,
				"lastBurnAt":  store.ServerTimestamp,
				"burnCount":   int64(1),
			})
		}

		tx.Update(weekPath, map[string]any{
			"totalBurned": addBig(weekDoc.String("totalBurned"), e.Amount),
		})
		return nil
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues(p.Name()).Inc()
		p.log.Errorf("failed to persist BurnForRank for token %s: %v", token, err)
		return
	}

	// audit record outside the transaction; a duplicate on a store retry
	// is tolerable here
	_, err = p.store.Add(ctx, "burns", map[string]any{
		"token":       token,
		"burner":      lowerAddr(e.Burner),
		"amount":      e.Amount.String(),
		"weekNumber":  weekNumber,
		"weekId":      weekID,
		"timestamp":   store.ServerTimestamp,
		"txHash":      e.Raw.TxHash.Hex(),
		"blockNumber": int64(e.Raw.BlockNumber),
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues(p.Name()).Inc()
		p.log.Errorf("failed to persist burn audit record for token %s: %v", token, err)
	}
}

// tokenInfo reads the token's display fields outside the transaction.
// Best effort: a token burned before its creation event was indexed gets
// placeholder values.
func (p *Leaderboard) tokenInfo(ctx context.Context, token string) (string, string) {
	doc, err := p.store.Get(ctx, "tokens/"+token)
	if err != nil || !doc.Exists() {
		return "Unknown", "???"
	}

	name, symbol := doc.String("name"), doc.String("symbol")
	if name == "" {
		name = "Unknown"
	}
	if symbol == "" {
		symbol = "???"
	}
	return name, symbol
}
