// Package indexer wires the chain client, the projectors and the stores
// into a running process.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/cthucoin/indexer/internal/checkpoint"
	"github.com/cthucoin/indexer/internal/common"
	"github.com/cthucoin/indexer/internal/config"
	"github.com/cthucoin/indexer/internal/logger"
	"github.com/cthucoin/indexer/internal/metrics"
	"github.com/cthucoin/indexer/internal/projector"
	"github.com/cthucoin/indexer/internal/rpc"
	"github.com/cthucoin/indexer/internal/store"
)

// Orchestrator owns the process lifecycle: it connects to the chain,
// builds one projector per configured contract and runs a log watcher
// for each until the context is cancelled.
type Orchestrator struct {
	cfg         *config.Config
	log         *logger.Logger
	store       store.Store
	checkpoints *checkpoint.Store
	state       atomic.Int32
}

// New creates an orchestrator. checkpoints may be nil, in which case
// every start indexes from the current head.
func New(cfg *config.Config, st store.Store, checkpoints *checkpoint.Store, log *logger.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:         cfg,
		log:         log.WithComponent(common.ComponentOrchestrator),
		store:       st,
		checkpoints: checkpoints,
	}
	o.state.Store(int32(StateStarting))
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
	o.log.Infof("state: %s", s)
}

// Run blocks until ctx is cancelled or a fatal startup error occurs.
// Cancellation is the normal way down and returns nil.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.setState(StateConnecting)

	client, err := rpc.Dial(ctx, o.cfg.RPCURL, o.cfg.Retry, o.log.WithComponent(common.ComponentChainClient))
	if err != nil {
		return fmt.Errorf("dialing %s: %w", o.cfg.RPCURL, err)
	}
	defer client.Close()

	// connectivity probe; a node we cannot identify is a node we cannot
	// trust to serve logs
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("resolving chain id: %w", err)
	}
	o.log.Infof("connected to %s (chain id %s)", o.cfg.RPCURL, chainID)

	projectors := o.buildProjectors()
	if len(projectors) == 0 {
		// legal but useless configuration; stay up so the deployment is
		// visible in logs and metrics instead of crash-looping
		o.log.Warn("no contract addresses configured, nothing to index")
	}

	o.setState(activeState(len(projectors)))

	metricsServer := metrics.NewServer(o.cfg.Metrics, o.log.WithComponent(common.ComponentMetrics))
	if err := metricsServer.Start(ctx); err != nil {
		return fmt.Errorf("starting metrics server: %w", err)
	}
	defer func() {
		if err := metricsServer.Stop(context.Background()); err != nil {
			o.log.Warnf("stopping metrics server: %v", err)
		}
	}()

	group, groupCtx := errgroup.WithContext(ctx)
	for _, p := range projectors {
		w := newWatcher(o.cfg, client, p, o.checkpoints, o.log.WithComponent(p.Name()+"-watcher"))
		group.Go(func() error { return w.run(groupCtx) })
	}
	if len(projectors) == 0 {
		group.Go(func() error {
			<-groupCtx.Done()
			return groupCtx.Err()
		})
	}

	err = group.Wait()
	o.setState(StateShuttingDown)
	defer o.setState(StateStopped)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

const expectedProjectors = 3

// activeState maps the number of constructed projectors to the running
// state: every contract configured means fully active, anything less is
// partial.
func activeState(projectors int) State {
	if projectors == expectedProjectors {
		return StateFullyActive
	}
	return StatePartiallyActive
}

// buildProjectors constructs one projector per configured contract. A
// missing address disables that projector with a warning rather than
// failing the whole process.
func (o *Orchestrator) buildProjectors() []projector.Projector {
	var projectors []projector.Projector

	add := func(name, addr string, build func(ethcommon.Address) projector.Projector) {
		if addr == "" {
			o.log.Warnf("%s address not configured, projector disabled", name)
			return
		}
		projectors = append(projectors, build(ethcommon.HexToAddress(addr)))
	}

	add(common.ComponentLaunchpad, o.cfg.Contracts.Launchpad, func(a ethcommon.Address) projector.Projector {
		return projector.NewLaunchpad(a, o.store, o.log.WithComponent(common.ComponentLaunchpad))
	})
	add(common.ComponentLeaderboard, o.cfg.Contracts.Leaderboard, func(a ethcommon.Address) projector.Projector {
		return projector.NewLeaderboard(a, o.store, o.log.WithComponent(common.ComponentLeaderboard))
	})
	add(common.ComponentFarm, o.cfg.Contracts.Farm, func(a ethcommon.Address) projector.Projector {
		return projector.NewFarm(a, o.store, o.log.WithComponent(common.ComponentFarm))
	})

	return projectors
}
