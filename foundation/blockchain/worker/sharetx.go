package worker

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// maxTxShareRequests is the number of client submissions that can wait to be
// shared before new ones are dropped. Peers still learn about a dropped
// submission from the block that mines it.
const maxTxShareRequests = 100

// =============================================================================

// shareTxOperations shares client submissions with the network outside of
// the request that delivered them.
func (w *Worker) shareTxOperations() {
	w.evHandler("worker: shareTxOperations: G started")
	defer w.evHandler("worker: shareTxOperations: G completed")

	for {
		select {
		case txs := <-w.txSharing:
			if !w.isShutdown() {
				w.runShareTxOperation(txs)
			}
		case <-w.shut:
			w.evHandler("worker: shareTxOperations: received shut signal")
			return
		}
	}
}

// runShareTxOperation sends one client submission to the known peers.
func (w *Worker) runShareTxOperation(txs []database.Tx) {
	w.evHandler("worker: runShareTxOperation: started: txs[%d]", len(txs))
	defer w.evHandler("worker: runShareTxOperation: completed")

	w.state.NetSendTxToPeers(txs)
}
