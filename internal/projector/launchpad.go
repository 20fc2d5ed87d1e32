package projector

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cthucoin/indexer/internal/events"
	"github.com/cthucoin/indexer/internal/logger"
	"github.com/cthucoin/indexer/internal/metrics"
	"github.com/cthucoin/indexer/internal/store"
)

// Launchpad projects bonding curve events into token documents, trade
// subcollections and sell lock subcollections.
type Launchpad struct {
	contract common.Address
	dec      *events.Decoder
	store    store.Store
	log      *logger.Logger
}

func NewLaunchpad(contract common.Address, st store.Store, log *logger.Logger) *Launchpad {
	return &Launchpad{
		contract: contract,
		dec:      events.NewDecoder(events.LaunchpadABI),
		store:    st,
		log:      log,
	}
}

func (p *Launchpad) Name() string             { return "launchpad" }
func (p *Launchpad) Contract() common.Address { return p.contract }
func (p *Launchpad) Topics() []common.Hash    { return p.dec.Topics() }

func (p *Launchpad) HandleLog(ctx context.Context, lg types.Log) {
	ev, err := p.dec.Decode(lg)
	if err != nil {
		metrics.DecodeErrors.WithLabelValues(p.Name()).Inc()
		p.log.Warnf("dropping undecodable log: %v", err)
		return
	}
	observe(p.Name(), ev)

	switch e := ev.(type) {
	case *events.TokenSummoned:
		p.handleSummoned(ctx, e)
	case *events.TokenBought:
		p.handleBought(ctx, e)
	case *events.TokenSold:
		p.handleSold(ctx, e)
	case *events.TokenGraduated:
		p.handleGraduated(ctx, e)
	case *events.SellLockPurchased:
		p.handleSellLockPurchased(ctx, e)
	case *events.SellLockUnlocked:
		p.handleSellLockUnlocked(ctx, e)
	}
}

func (p *Launchpad) tokenPath(token common.Address) string {
	return "tokens/" + lowerAddr(token)
}

// handleSummoned creates the token document. Every field is deterministic
// from the event payload, so a replayed event overwrites with identical
// data and creation stays idempotent.
func (p *Launchpad) handleSummoned(ctx context.Context, e *events.TokenSummoned) {
	p.log.Infof("token summoned: %s (%s) at %s", e.Name, e.Symbol, lowerAddr(e.Token))

	err := p.store.Set(ctx, p.tokenPath(e.Token), map[string]any{
		"address":     lowerAddr(e.Token),
		"creator":     lowerAddr(e.Creator),
		"name":        e.Name,
		"symbol":      e.Symbol,
		"graduated":   false,
		"createdAt":   store.ServerTimestamp,
		"totalBought": "0",
		"totalSold":   "0",
		"lastPrice":   "0",
		"holders":     0,
		"txHash":      e.Raw.TxHash.Hex(),
		"blockNumber": int64(e.Raw.BlockNumber),
	})
	if err != nil {
		p.storeError("TokenSummoned", lowerAddr(e.Token), err)
	}
}

func (p *Launchpad) handleBought(ctx context.Context, e *events.TokenBought) {
	path := p.tokenPath(e.Token)

	err := p.store.RunTransaction(ctx, func(tx store.Tx) error {
		doc, err := tx.Get(path)
		if err != nil {
			return err
		}
		// a buy for a token we never saw created: skip the counter
		// update rather than fabricating a document
		if !doc.Exists() {
			return nil
		}

		tx.Update(path, map[string]any{
			"totalBought":  addBig(doc.String("totalBought"), e.MonadIn),
			"lastPrice":    e.NewPrice.String(),
			"lastActivity": store.ServerTimestamp,
		})
		return nil
	})
	if err != nil {
		p.storeError("TokenBought", lowerAddr(e.Token), err)
	}

	// the trade record is appended regardless of whether the token
	// document existed; it is append-only audit data
	p.appendTrade(ctx, e.Token, "buy", lowerAddr(e.Buyer), e.MonadIn.String(), e.TokensOut.String(), e.NewPrice.String(), e.Raw)
}

func (p *Launchpad) handleSold(ctx context.Context, e *events.TokenSold) {
	path := p.tokenPath(e.Token)

	err := p.store.RunTransaction(ctx, func(tx store.Tx) error {
		doc, err := tx.Get(path)
		if err != nil {
			return err
		}
		if !doc.Exists() {
			return nil
		}

		tx.Update(path, map[string]any{
			"totalSold":    addBig(doc.String("totalSold"), e.MonadOut),
			"lastPrice":    e.NewPrice.String(),
			"lastActivity": store.ServerTimestamp,
		})
		return nil
	})
	if err != nil {
		p.storeError("TokenSold", lowerAddr(e.Token), err)
	}

	p.appendTrade(ctx, e.Token, "sell", lowerAddr(e.Seller), e.MonadOut.String(), e.TokensIn.String(), e.NewPrice.String(), e.Raw)
}

func (p *Launchpad) appendTrade(ctx context.Context, token common.Address, kind, trader, monadAmount, tokenAmount, price string, raw types.Log) {
	_, err := p.store.Add(ctx, p.tokenPath(token)+"/trades", map[string]any{
		"type":        kind,
		"trader":      trader,
		"monadAmount": monadAmount,
		"tokenAmount": tokenAmount,
		"price":       price,
		"timestamp":   store.ServerTimestamp,
		"txHash":      raw.TxHash.Hex(),
		"blockNumber": int64(raw.BlockNumber),
	})
	if err != nil {
		p.storeError("Trade", lowerAddr(token), err)
	}
}

// handleGraduated is a plain update: graduation fields have a single
// writer, and setting graduated=true twice is a no-op, so the flag never
// reverts.
func (p *Launchpad) handleGraduated(ctx context.Context, e *events.TokenGraduated) {
	p.log.Infof("token graduated: %s -> pair %s", lowerAddr(e.Token), lowerAddr(e.Pair))

	err := p.store.Update(ctx, p.tokenPath(e.Token), map[string]any{
		"graduated":                 true,
		"graduatedAt":               store.ServerTimestamp,
		"pairAddress":               lowerAddr(e.Pair),
		"graduationLiquidityMonad":  e.LiquidityMonad.String(),
		"graduationLiquidityTokens": e.LiquidityTokens.String(),
		"txHash":                    e.Raw.TxHash.Hex(),
	})
	if err != nil {
		p.storeError("TokenGraduated", lowerAddr(e.Token), err)
	}
}

func (p *Launchpad) handleSellLockPurchased(ctx context.Context, e *events.SellLockPurchased) {
	_, err := p.store.Add(ctx, p.tokenPath(e.Token)+"/sellLocks", map[string]any{
		"buyer":     lowerAddr(e.Buyer),
		"day":       e.Day.Int64(),
		"cost":      e.Cost.String(),
		"timestamp": store.ServerTimestamp,
		"txHash":    e.Raw.TxHash.Hex(),
	})
	if err != nil {
		p.storeError("SellLockPurchased", lowerAddr(e.Token), err)
	}
}

func (p *Launchpad) handleSellLockUnlocked(ctx context.Context, e *events.SellLockUnlocked) {
	_, err := p.store.Add(ctx, p.tokenPath(e.Token)+"/sellLocks", map[string]any{
		"holder":    lowerAddr(e.Holder),
		"cost":      e.Cost.String(),
		"unlock":    true,
		"timestamp": store.ServerTimestamp,
		"txHash":    e.Raw.TxHash.Hex(),
	})
	if err != nil {
		p.storeError("SellLockUnlocked", lowerAddr(e.Token), err)
	}
}

func (p *Launchpad) storeError(event, token string, err error) {
	metrics.StoreErrors.WithLabelValues(p.Name()).Inc()
	p.log.Errorf("failed to persist %s for token %s: %v", event, token, err)
}
