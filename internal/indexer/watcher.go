package indexer

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cthucoin/indexer/internal/checkpoint"
	"github.com/cthucoin/indexer/internal/config"
	"github.com/cthucoin/indexer/internal/logger"
	"github.com/cthucoin/indexer/internal/projector"
	"github.com/cthucoin/indexer/internal/rpc"
)

// watcher delivers one contract's logs to its projector. On websocket
// endpoints it holds a live eth_subscribe subscription; on http(s) it
// polls eth_getLogs. Either way it first backfills the gap between the
// stored checkpoint and the current head.
type watcher struct {
	cfg         *config.Config
	client      *rpc.Client
	proj        projector.Projector
	checkpoints *checkpoint.Store
	log         *logger.Logger
}

func newWatcher(cfg *config.Config, client *rpc.Client, p projector.Projector, checkpoints *checkpoint.Store, log *logger.Logger) *watcher {
	return &watcher{
		cfg:         cfg,
		client:      client,
		proj:        p,
		checkpoints: checkpoints,
		log:         log,
	}
}

func (w *watcher) run(ctx context.Context) error {
	next, err := w.resumePoint(ctx)
	if err != nil {
		return err
	}
	w.log.Infof("watching %s from block %d", w.proj.Contract(), next)

	if !w.client.SupportsSubscriptions() {
		return w.poll(ctx, next)
	}

	// close the checkpoint gap before going live; the subscription only
	// delivers logs from the moment it is established
	head, err := w.client.BlockNumber(ctx)
	if err != nil {
		return err
	}
	if head >= next {
		if err := w.scanRange(ctx, next, head); err != nil {
			return err
		}
	}
	return w.subscribe(ctx)
}

// resumePoint picks the first block to scan: one past the checkpoint
// when one exists, one past the current head otherwise.
func (w *watcher) resumePoint(ctx context.Context) (uint64, error) {
	if w.checkpoints != nil {
		block, ok, err := w.checkpoints.Load(ctx, w.proj.Contract())
		if err != nil {
			return 0, err
		}
		if ok {
			return block + 1, nil
		}
	}

	head, err := w.client.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	return head + 1, nil
}

func (w *watcher) subscribe(ctx context.Context) error {
	for {
		ch := make(chan types.Log, 256)
		sub, err := w.client.SubscribeFilterLogs(ctx, w.query(nil, nil), ch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Warnf("subscribe failed, retrying: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.cfg.Watch.PollInterval.Duration):
			}
			continue
		}

		err = w.consume(ctx, sub, ch)
		sub.Unsubscribe()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.log.Warnf("subscription dropped, resubscribing: %v", err)
	}
}

func (w *watcher) consume(ctx context.Context, sub ethereum.Subscription, ch <-chan types.Log) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return err
		case lg := <-ch:
			w.dispatch(ctx, lg)
			w.saveCheckpoint(ctx, lg.BlockNumber)
		}
	}
}

func (w *watcher) poll(ctx context.Context, next uint64) error {
	ticker := time.NewTicker(w.cfg.Watch.PollInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		head, err := w.client.BlockNumber(ctx)
		if err != nil {
			w.log.Warnf("head poll failed: %v", err)
			continue
		}
		if head < next {
			continue
		}

		if err := w.scanRange(ctx, next, head); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// next is not advanced; the range is retried on the next tick
			w.log.Warnf("log scan %d-%d failed: %v", next, head, err)
			continue
		}
		next = head + 1
	}
}

// scanRange fetches and dispatches logs for [from, to], split into
// chunks to respect node-side range limits.
func (w *watcher) scanRange(ctx context.Context, from, to uint64) error {
	chunk := w.cfg.Watch.ChunkSize
	for start := from; start <= to; start += chunk {
		end := min(start+chunk-1, to)

		logs, err := w.client.FilterLogs(ctx, w.query(
			new(big.Int).SetUint64(start),
			new(big.Int).SetUint64(end),
		))
		if err != nil {
			return err
		}
		for _, lg := range logs {
			w.dispatch(ctx, lg)
		}
		w.saveCheckpoint(ctx, end)
	}
	return nil
}

// dispatch hands a log to the projector on its own goroutine. Handlers
// rely on store-level increments and transactions for correctness under
// concurrency, so ordering between logs is not preserved here. A panicking
// handler is contained to its own log; the stream keeps flowing.
func (w *watcher) dispatch(ctx context.Context, lg types.Log) {
	if lg.Removed {
		w.log.Debugf("skipping removed log at block %d", lg.BlockNumber)
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Errorf("handler panic on log at block %d, tx %s: %v",
					lg.BlockNumber, lg.TxHash.Hex(), r)
			}
		}()
		w.proj.HandleLog(ctx, lg)
	}()
}

func (w *watcher) saveCheckpoint(ctx context.Context, block uint64) {
	if w.checkpoints == nil {
		return
	}
	if err := w.checkpoints.Save(ctx, w.proj.Contract(), block); err != nil {
		w.log.Warnf("checkpoint save failed at block %d: %v", block, err)
	}
}

func (w *watcher) query(from, to *big.Int) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []ethcommon.Address{w.proj.Contract()},
		Topics:    [][]ethcommon.Hash{w.proj.Topics()},
	}
}
