package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/logger"
	"github.com/google/uuid"
	"github.com/rdegges/go-ipify"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			Host            string        `conf:"default:0.0.0.0:8080"`
			ClientRateLimit float64       `conf:"default:10"`
			ClientRateBurst int           `conf:"default:20"`
		}
		Node struct {
			IP             string `conf:"default:127.0.0.1"`
			PublicIP       bool   `conf:"default:false"`
			BootstrapPeer  string
			Difficulty     int    `conf:"default:4"`
			SelectStrategy string `conf:"default:timestamp"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "peer to peer proof of work ledger node",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Node Identity

	// The node advertises the port it listens on and either the configured
	// ip or the address the outside world sees it as.
	_, port, err := net.SplitHostPort(cfg.Web.Host)
	if err != nil {
		return fmt.Errorf("parsing web host: %w", err)
	}

	ip := cfg.Node.IP
	if cfg.Node.PublicIP {
		ip, err = ipify.GetIp()
		if err != nil {
			return fmt.Errorf("discovering public ip: %w", err)
		}
		log.Infow("startup", "status", "public ip discovered", "ip", ip)
	}

	host, err := peer.FromHost(uuid.NewString(), net.JoinHostPort(ip, port))
	if err != nil {
		return fmt.Errorf("building node identity: %w", err)
	}

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client connected through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "node", host.ID)
		evts.Send(v, args...)
	}

	state, err := state.New(state.Config{
		Host:           host,
		Difficulty:     cfg.Node.Difficulty,
		SelectStrategy: cfg.Node.SelectStrategy,
		EvHandler:      ev,
	})
	if err != nil {
		return err
	}
	defer state.Shutdown()

	// The worker registers itself with the state and starts waiting for
	// transactions to mine.
	worker.Run(state, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, state)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		State:       state,
		Evts:        evts,
		ClientLimit: cfg.Web.ClientRateLimit,
		ClientBurst: cfg.Web.ClientRateBurst,
	})

	api := http.Server{
		Addr:         cfg.Web.Host,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Listen before joining so peers can reach back to this node while the
	// bootstrap exchange is in flight.
	ln, err := net.Listen("tcp", api.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", api.Addr, err)
	}

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr, "node", host.Host())
		serverErrors <- api.Serve(ln)
	}()

	// =========================================================================
	// Join The Network

	// Without a bootstrap peer this node is the first node of the network.
	if cfg.Node.BootstrapPeer != "" {
		if err := state.Bootstrap(cfg.Node.BootstrapPeer); err != nil {
			api.Close()
			return fmt.Errorf("joining network through %s: %w", cfg.Node.BootstrapPeer, err)
		}
		log.Infow("startup", "status", "joined network", "bootstrap", cfg.Node.BootstrapPeer, "chain", state.QueryChainLength(), "peers", len(state.RetrievePeerList()))
	}

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		log.Infow("shutdown", "status", "shutdown API started")
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
