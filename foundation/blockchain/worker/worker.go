// Package worker implements mining and transaction sharing for the blockchain.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// miningRetryInterval represents the interval at which the worker checks for
// pending transactions that didn't trigger a mining signal.
const miningRetryInterval = time.Second

// =============================================================================

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	ticker       *time.Ticker
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan bool
	txSharing    chan []database.Tx
	evHandler    state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	w := Worker{
		state:        st,
		ticker:       time.NewTicker(miningRetryInterval),
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan bool, 1),
		txSharing:    make(chan []database.Tx, maxTxShareRequests),
		evHandler:    evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.retryOperations,
		w.miningOperations,
		w.shareTxOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// There could be transactions from joining the network.
	w.SignalStartMining()

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
		w.evHandler("worker: SignalStartMining: mining signaled")
	default:
	}
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately. A signal already pending is enough.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
		w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
	default:
	}
}

// SignalShareTx queues a client submission to be shared with the network.
// The submission is dropped when the queue is full.
func (w *Worker) SignalShareTx(txs []database.Tx) {
	select {
	case w.txSharing <- txs:
		w.evHandler("worker: SignalShareTx: share tx signaled: txs[%d]", len(txs))
	default:
		w.evHandler("worker: SignalShareTx: queue full, txs[%d] will not be shared", len(txs))
	}
}

// =============================================================================

// retryOperations makes sure transactions left in the mempool get mined even
// if the signal for them was missed.
func (w *Worker) retryOperations() {
	w.evHandler("worker: retryOperations: G started")
	defer w.evHandler("worker: retryOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() && w.state.QueryMempoolLength() > 0 {
				w.SignalStartMining()
			}
		case <-w.shut:
			w.evHandler("worker: retryOperations: received shut signal")
			return
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
