// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"

	v1 "github.com/ardanlabs/ledger/business/web/v1"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// JoinNetwork adds the calling node to the roster and hands back everything
// it needs to catch up.
func (h Handlers) JoinNetwork(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ni NodeInfo
	if err := web.Decode(r, &ni); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("join network", "traceid", v.TraceID, "id", ni.ID, "ip", ni.IP, "port", ni.Port)

	jr := h.State.JoinNetwork(peer.New(ni.ID, ni.IP, ni.Port))

	return web.Respond(ctx, w, jr, http.StatusOK)
}

// UpdateBlockchain takes a segment of a peer's chain and tries to splice it
// onto the local chain.
func (h Handlers) UpdateBlockchain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var blocks []database.Block
	if err := web.Decode(r, &blocks); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("update blockchain", "traceid", v.TraceID, "blocks", len(blocks))

	result, err := h.State.UpdateBlockchain(blocks)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrChainShorter):

			// A shorter chain is a conflict, the result carries our length.
			return web.Respond(ctx, w, result, http.StatusOK)

		case errors.Is(err, state.ErrInvalidChain):
			return v1.NewRequestError(err, http.StatusBadRequest)
		}

		return err
	}

	return web.Respond(ctx, w, result, http.StatusOK)
}

// UpdateTransaction adds the transactions gossiped by a peer to the mempool.
// Invalid or known transactions are dropped without an error.
func (h Handlers) UpdateTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var txs []database.Tx
	if err := web.Decode(r, &txs); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	added := h.State.UpdateTransaction(txs)

	h.Log.Infow("update transaction", "traceid", v.TraceID, "txs", len(txs), "added", added)

	return web.Respond(ctx, w, TxResult{Success: true, Added: added}, http.StatusOK)
}
