// Command npcsim runs the NPC simulation as a long-lived daemon: NPCs talk
// to each other in ambient batches, the world is saved periodically, and
// metrics and health probes are served over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/ambient"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/chatbase"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/config"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/dialogue"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/health"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/intent"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/npc"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/observe"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/selector"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/store"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/world"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "npcsim.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "npcsim: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "npcsim: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(cfg.Server.LogLevel.SlogLevel())
	slog.SetDefault(newLogger(level))

	slog.Info("npcsim starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	metrics, err := observe.NewMetrics(tel.MeterProvider)
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Simulation components ─────────────────────────────────────────────────
	registry, err := npc.LoadRosterFile(cfg.Simulation.Roster)
	if err != nil {
		slog.Error("failed to load roster", "err", err)
		return 1
	}
	metrics.ActiveNPCs.Add(ctx, int64(registry.Len()))

	library, err := loadLibrary(cfg.Simulation.Templates)
	if err != nil {
		slog.Error("failed to load templates", "err", err)
		return 1
	}
	index := chatbase.LoadOrEmpty(ctx, cfg.Simulation.ChatbaseDir, slog.Default())

	sel := selector.New(library, index, append(cfg.SelectorOptions(), selector.WithMetrics(metrics))...)
	detector := intent.NewDetector(cfg.Intent.DetectorOptions()...)
	engine := dialogue.New(registry, detector, sel, dialogue.WithMetrics(metrics))

	seed := cfg.Simulation.RNG().Seed()
	loop := ambient.New(engine, registry, append(cfg.AmbientOptions(seed), ambient.WithMetrics(metrics))...)

	// ── Persistence ───────────────────────────────────────────────────────────
	chain := buildStore(ctx, cfg.Store)
	guard := store.NewGuard(chain, metrics)
	defer func() {
		if err := guard.Close(); err != nil {
			slog.Warn("store close error", "err", err)
		}
	}()

	fresh := ambient.State{World: world.FromRegistry(registry, cfg.Memory.Capacity, cfg.Memory.AgeWeight)}
	state, r := restore(ctx, guard, cfg, fresh)

	d := &daemon{
		sel:           sel,
		store:         guard,
		level:         level,
		ticksPerBatch: cfg.Simulation.TicksPerBatch,
		autosaveEvery: cfg.Simulation.AutosaveEvery,
		loop:          loop,
		state:         state,
		rng:           r,
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, d.reload)
	if err != nil {
		slog.Error("failed to watch config", "err", err)
		return 1
	}

	// ── HTTP: metrics and health ──────────────────────────────────────────────
	checks := health.New(
		health.Degraded("store", guard.IsDegraded),
		health.Breakers("store_backends", chain.Status),
		health.Fresh("ambient", d.lastActivity, 10*cfg.Simulation.TickInterval+time.Minute),
		chatbaseChecker(index, cfg.Simulation.ChatbaseDir),
	)
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", tel.MetricsHandler)
	checks.Register(mux)
	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	printStartupSummary(cfg, registry, library, index, chain, state.World.Turn)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error { return d.run(gctx, cfg.Simulation.TickInterval) })
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("simulation running, press Ctrl+C to shut down")

	exit := 0
	if err := g.Wait(); err != nil {
		slog.Error("run error", "err", err)
		exit = 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutting down, saving simulation")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	d.save(shutdownCtx)
	if err := tel.Shutdown(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	printShutdownSummary(d)
	slog.Info("goodbye")
	return exit
}

// loadLibrary reads the template library, or returns the built-in generic
// templates when no file is configured.
func loadLibrary(path string) (*selector.Library, error) {
	if path == "" {
		return selector.NewLibrary()
	}
	return selector.LoadLibraryFile(path)
}

// chatbaseChecker reports a configured chatbase that loaded empty. Running
// without a chatbase is a valid degraded mode, so an unconfigured one passes.
func chatbaseChecker(ix *chatbase.Index, dir string) health.Checker {
	return health.Checker{Name: "chatbase", Check: func(context.Context) error {
		if dir != "" && ix.Stats().Entries == 0 {
			return fmt.Errorf("no entries loaded from %q", dir)
		}
		return nil
	}}
}

// ── Summaries ─────────────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, reg *npc.Registry, lib *selector.Library, ix *chatbase.Index, chain *store.ChainStore, turn int64) {
	stats := ix.Stats()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        npcsim: startup summary        ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	fmt.Printf("║  NPCs            : %-19s ║\n", humanize.Comma(int64(reg.Len())))
	fmt.Printf("║  Templates       : %-19s ║\n", humanize.Comma(int64(lib.Len())))
	fmt.Printf("║  Chatbase lines  : %-19s ║\n", humanize.Comma(int64(stats.Entries)))
	for i, b := range chain.Status() {
		label := "Store"
		if i > 0 {
			label = "Store fallback"
		}
		fmt.Printf("║  %-15s : %-19s ║\n", label, b.Name)
	}
	fmt.Printf("║  Starting turn   : %-19s ║\n", humanize.Comma(turn))
	fmt.Printf("║  Tick interval   : %-19s ║\n", cfg.Simulation.TickInterval)
	fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printShutdownSummary(d *daemon) {
	totals, turn := d.summary()
	fmt.Printf("npcsim: %s ticks, %s storylines, %s rumours this run; world at turn %s\n",
		humanize.Comma(int64(totals.Ticks)),
		humanize.Comma(int64(totals.Storylines)),
		humanize.Comma(int64(totals.Rumours)),
		humanize.Comma(turn),
	)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
