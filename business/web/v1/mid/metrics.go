package mid

import (
	"context"
	"expvar"
	"net/http"
	"runtime"

	"github.com/ardanlabs/ledger/foundation/web"
)

// metrics represents the set of counters published on /debug/vars.
var metrics = struct {
	goroutines *expvar.Int
	requests   *expvar.Int
	errors     *expvar.Int
	panics     *expvar.Int
}{
	goroutines: expvar.NewInt("goroutines"),
	requests:   expvar.NewInt("requests"),
	errors:     expvar.NewInt("errors"),
	panics:     expvar.NewInt("panics"),
}

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and goroutines counter.
			metrics.requests.Add(1)
			n := metrics.requests.Value()

			// Update the count for the number of active goroutines every 100 requests.
			if n%100 == 0 {
				metrics.goroutines.Set(int64(runtime.NumGoroutine()))
			}

			// Increment if there is an error flowing through the request.
			if err != nil {
				metrics.errors.Add(1)
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
