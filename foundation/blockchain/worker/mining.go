package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// miningOperations runs one nonce search at a time for as long as the worker
// is up.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation searches for a block on top of the current tip holding
// the pending transactions. A block that commits is proposed to every peer.
// Adopting a peer's chain cancels the search through SignalCancelMining.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	pending := w.state.QueryMempoolLength()
	if pending == 0 {
		w.evHandler("worker: runMiningOperation: MINING: mempool empty")
		return
	}

	// Transactions left over by this block, or by a cancelled search, need
	// another block.
	defer func() {
		pending := w.state.QueryMempoolLength()
		if pending > 0 && !w.isShutdown() {
			w.evHandler("worker: runMiningOperation: MINING: txs[%d] still pending", pending)
			w.SignalStartMining()
		}
	}()

	// A cancel that arrived between searches belongs to a tip that is already
	// gone.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: stale cancel dropped")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	// Watch for a new tip or shutdown.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: tip replaced")
		case <-w.shut:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: shutdown")
		case <-ctx.Done():
		}
	}()

	// Search, commit and propose.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		start := time.Now()
		block, err := w.state.MineNewBlock(ctx)
		w.evHandler("worker: runMiningOperation: MINING: search took[%v]", time.Since(start))

		switch {
		case err == nil:
		case errors.Is(err, state.ErrNoTransactions):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: nothing selectable in mempool")
			return
		case errors.Is(err, state.ErrChainAdvanced):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: tip moved, blk discarded")
			return
		case ctx.Err() != nil:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: search stopped")
			return
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
			return
		}

		w.evHandler("worker: runMiningOperation: MINING: blk[%d] committed, proposing to peers", block.ID)
		w.state.NetSendBlockToPeers(block)
	}()

	wg.Wait()
}
