package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bitbond-network/bitbond/internal/api"
	"github.com/bitbond-network/bitbond/internal/app/bank"
	"github.com/bitbond-network/bitbond/internal/app/escrow"
	"github.com/bitbond-network/bitbond/internal/health"
	"github.com/bitbond-network/bitbond/internal/infra/chain"
	_ "github.com/bitbond-network/bitbond/internal/infra/metrics" // Register Prometheus metrics
	"github.com/bitbond-network/bitbond/internal/infra/sqlite"
)

// Daemon is the core BitBond runtime. It wires together all services.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Clock  *chain.Clock
	Bank   *bank.Service
	Escrow *escrow.Service
	Server *api.Server
	Health *health.Checker
	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(bitbondHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	clock, err := chain.Open(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open clock: %w", err)
	}

	bnk := bank.NewService(db)
	esc := escrow.NewService(db, clock)

	srv := api.NewServer(esc, bnk, clock)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	checker := health.NewChecker(db)
	srv.SetHealthChecker(checker)

	return &Daemon{
		Config: cfg,
		DB:     db,
		Clock:  clock,
		Bank:   bnk,
		Escrow: esc,
		Server: srv,
		Health: checker,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	if interval := d.Config.Chain.Interval(); interval > 0 {
		go d.Clock.Run(ctx, interval)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	log.Info().Str("addr", addr).Uint64("height", d.Clock.Height()).Msg("bitbond serving")
	if d.Config.Telemetry.Prometheus {
		log.Info().Msgf("metrics at http://%s/metrics", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
