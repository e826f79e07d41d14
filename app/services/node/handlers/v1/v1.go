// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ledger/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/ledger/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/ledger/business/web/v1/mid"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events

	// ClientLimit is the number of requests per second a single client can
	// make against the client routes. Zero turns limiting off.
	ClientLimit float64
	ClientBurst int
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, version, "/node/join", prv.JoinNetwork)
	app.Handle(http.MethodPost, version, "/node/blockchain/update", prv.UpdateBlockchain)
	app.Handle(http.MethodPost, version, "/node/tx/update", prv.UpdateTransaction)

	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	var limit web.Middleware
	if cfg.ClientLimit > 0 {
		limit = mid.RateLimit(cfg.ClientLimit, cfg.ClientBurst)
	}
	cors := mid.Cors("*")

	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction, cors, limit)
	app.Handle(http.MethodPost, version, "/tx/generate", pbl.GenerateTransaction, cors, limit)
	app.Handle(http.MethodGet, version, "/tx/list", pbl.Mempool, cors)
	app.Handle(http.MethodGet, version, "/blockchain", pbl.Blockchain, cors)
	app.Handle(http.MethodGet, version, "/peers", pbl.Peers, cors)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
}
