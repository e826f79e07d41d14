package mid

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	v1 "github.com/ardanlabs/ledger/business/web/v1"
	"github.com/ardanlabs/ledger/foundation/web"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimit restricts how often a single remote address can call the
// handler. Limiters for addresses that went quiet are evicted.
func RateLimit(limit float64, burst int) web.Middleware {
	limiters := gocache.New(10*time.Minute, 5*time.Minute)
	var mu sync.Mutex

	getLimiter := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if limiter, ok := limiters.Get(key); ok {
			return limiter.(*rate.Limiter)
		}

		limiter := rate.NewLimiter(rate.Limit(limit), burst)
		limiters.SetDefault(key, limiter)

		return limiter
	}

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !getLimiter(host).Allow() {
				return v1.NewRequestError(errors.New("rate limit exceeded"), http.StatusTooManyRequests)
			}

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
