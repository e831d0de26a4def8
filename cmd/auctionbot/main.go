package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jensholdgaard/discord-auction-bot/internal/assets"
	"github.com/jensholdgaard/discord-auction-bot/internal/auction"
	"github.com/jensholdgaard/discord-auction-bot/internal/bot"
	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/config"
	"github.com/jensholdgaard/discord-auction-bot/internal/health"
	"github.com/jensholdgaard/discord-auction-bot/internal/leader"
	"github.com/jensholdgaard/discord-auction-bot/internal/roster"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
	"github.com/jensholdgaard/discord-auction-bot/internal/telemetry"
	"github.com/jensholdgaard/discord-auction-bot/internal/web"

	// Register store drivers so they are available via store.Open.
	_ "github.com/jensholdgaard/discord-auction-bot/internal/store/entstore"
	_ "github.com/jensholdgaard/discord-auction-bot/internal/store/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	mode, err := auction.ParseMode(cfg.Auction.BidMode)
	if err != nil {
		return fmt.Errorf("parsing bid mode: %w", err)
	}

	// Setup telemetry.
	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real{}

	// Open store using the configured driver (sqlx or ent).
	repos, err := store.Open(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer repos.Closer.Close()

	logger.InfoContext(ctx, "connected to database", slog.String("driver", cfg.Database.Driver))

	// Viewer fan-out hub, also the auction manager's broadcaster.
	hub := web.NewHub(repos.Chat, cfg.Server.ChatHistory, logger)

	// Initialize managers. The auction manager guards the roster manager
	// so that setup is frozen once bidding starts.
	auctionMgr := auction.NewManager(auction.ManagerConfig{
		Mode:               mode,
		BasePrice:          cfg.Auction.BasePrice,
		Increment:          cfg.Auction.Increment,
		UnsoldAdvanceDelay: cfg.Auction.UnsoldAdvanceDelay,
		Seed:               cfg.Auction.Seed,
	}, repos.Teams, repos.Players, repos.Events, logger, tp.TracerProvider, clk, hub)

	rosterMgr := roster.NewManager(repos.Teams, repos.Players, repos.Events, logger, tp.TracerProvider,
		auctionMgr, roster.Defaults{
			Budget:  cfg.Auction.DefaultBudget,
			MaxSize: cfg.Auction.MaxTeamSize,
		})

	// Setup health checks.
	healthHandler := health.NewHandler(clk,
		health.Checker{
			Name:  "database",
			Check: repos.Ping,
		},
	)

	// HTTP server for the viewer board, chat, assets and health (runs on
	// all replicas).
	webServer := web.NewServer(hub, auctionMgr, assets.NewResolver(cfg.Assets.Dir), healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           webServer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "starting web server", slog.Int("port", cfg.Server.Port))
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
			logger.ErrorContext(ctx, "web server error", slog.Any("error", listenErr))
		}
	}()

	// startBot is the core work that only the leader should run.
	startBot := func(ctx context.Context) {
		discordBot, botErr := bot.New(cfg.Discord, rosterMgr, auctionMgr, logger, tp.TracerProvider)
		if botErr != nil {
			logger.ErrorContext(ctx, "creating bot failed", slog.Any("error", botErr))
			return
		}

		if botErr = discordBot.Start(ctx); botErr != nil {
			logger.ErrorContext(ctx, "starting bot failed", slog.Any("error", botErr))
			return
		}

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auctionbot is running (leader)", slog.String("version", version))

		// Block until leadership is lost or process is shutting down.
		<-ctx.Done()

		healthHandler.SetReady(false)
		if stopErr := discordBot.Stop(); stopErr != nil {
			logger.Error("bot shutdown error", slog.Any("error", stopErr))
		}
	}

	if cfg.LeaderElection.Enabled {
		logger.InfoContext(ctx, "leader election enabled, waiting for leadership...")

		if leaderErr := leader.Run(ctx, leader.Config(cfg.LeaderElection), logger, startBot, func() {
			logger.Info("lost leadership, shutting down...")
			cancel()
		}); leaderErr != nil {
			return fmt.Errorf("leader election: %w", leaderErr)
		}
	} else {
		// No leader election, run directly.
		discordBot, botErr := bot.New(cfg.Discord, rosterMgr, auctionMgr, logger, tp.TracerProvider)
		if botErr != nil {
			return fmt.Errorf("creating bot: %w", botErr)
		}

		if botErr = discordBot.Start(ctx); botErr != nil {
			return fmt.Errorf("starting bot: %w", botErr)
		}

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auctionbot is running", slog.String("version", version))

		// Wait for shutdown signal.
		<-ctx.Done()
		logger.Info("shutting down...")

		healthHandler.SetReady(false)

		if stopErr := discordBot.Stop(); stopErr != nil {
			logger.Error("bot shutdown error", slog.Any("error", stopErr))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
