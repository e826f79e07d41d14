// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"net/http"
	"time"

	v1 "github.com/ardanlabs/ledger/business/web/v1"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of client facing endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The upgrade took over the response.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Reading is required to process control frames and notice the client
	// going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-gone:
			return nil
		}
	}
}

// SubmitTransaction adds transactions from a client to the mempool and shares
// them with the network.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var txs []database.Tx
	if err := web.Decode(r, &txs); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	added := h.State.UpdateClientTransaction(txs)

	h.Log.Infow("submit transaction", "traceid", v.TraceID, "txs", len(txs), "added", added)

	return web.Respond(ctx, w, TxResult{Success: true, Added: added}, http.StatusOK)
}

// GenerateTransaction builds and signs a transaction for a client without
// adding it to the mempool.
func (h Handlers) GenerateTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var gt GenerateTx
	if err := web.Decode(r, &gt); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	tx, err := h.State.GenerateTransaction(state.GenerateTx{
		ID:         gt.ID,
		Sender:     gt.Sender,
		PrivateKey: gt.PrivateKey,
		Receiver:   gt.Receiver,
		Amount:     gt.Amount,
		Fee:        gt.Fee,
	})
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// Blockchain returns the full chain.
func (h Handlers) Blockchain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveBlockchain(), http.StatusOK)
}

// Peers returns the roster of known nodes.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrievePeerList(), http.StatusOK)
}

// Mempool returns the set of transactions waiting to be mined.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}
