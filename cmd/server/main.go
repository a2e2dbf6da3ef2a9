package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/tcgsim/battlesim/internal/bootstrap"
	"github.com/tcgsim/battlesim/internal/config"
	"github.com/tcgsim/battlesim/internal/report"
	"github.com/tcgsim/battlesim/internal/server"
	"github.com/tcgsim/battlesim/internal/sim"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := bootstrap.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting simulation server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cat, err := bootstrap.LoadCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	// Live match feed
	hub := server.NewHub(logger)
	go hub.Run(ctx)

	harness, err := bootstrap.NewHarness(cfg, cat, hub.Observer(), logger)
	if err != nil {
		logger.Fatal("failed to build harness", zap.Error(err))
	}
	runMgr := sim.NewManager(harness, logger)
	logger.Info("run manager initialized")

	var store *report.SQLiteStore
	if cfg.Report.SQLitePath != "" {
		store, err = report.NewSQLiteStore(cfg.Report.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open run store", zap.Error(err))
		}
		defer store.Close()
		if err := store.Migrate(); err != nil {
			logger.Fatal("failed to migrate run store", zap.Error(err))
		}
		logger.Info("run store initialized", zap.String("path", cfg.Report.SQLitePath))
	}

	simServer := server.NewSimulationServer(ctx, runMgr, store, cfg.Simulation.Archetypes, logger)

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.ChainUnaryInterceptors(
			server.RecoveryInterceptor(logger),
			server.LoggingInterceptor(logger),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	)
	server.RegisterSimulationServer(grpcServer, simServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddress)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	// Start gRPC server
	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPCAddress))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	// Start WebSocket server
	go func() {
		if wsErr := server.StartWebSocketServer(ctx, cfg.Server.WebSocketAddress, hub, logger); wsErr != nil {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("simulation server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPCAddress),
		zap.String("websocket_address", cfg.Server.WebSocketAddress),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...",
		zap.Int("active_runs", runMgr.ActiveCount()),
	)
	cancel()

	grpcServer.GracefulStop()

	logger.Info("simulation server stopped")
}
