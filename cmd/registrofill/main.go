package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/docupipe/registrofill/internal/config"
	"github.com/docupipe/registrofill/internal/engine"
	"github.com/docupipe/registrofill/internal/extract"
	"github.com/docupipe/registrofill/internal/mcp"
	"github.com/docupipe/registrofill/internal/store"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *zap.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.Error("server shutdown with error", zap.Error(err))
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, server *mcp.Server, logger *zap.Logger) {
	// In stdio mode the parent process controls our lifecycle; exit cleanly
	// when stdin closes.
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger, err := config.InitLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsDebug() && cfg.IsServerMode() {
		logger.Debug("starting", zap.String("config", cfg.String()))
	}

	st, err := store.NewSQLite(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := st.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	extractor, err := extract.NewExtractor(cfg.Extraction)
	if err != nil {
		logger.Fatal("failed to build extractor", zap.Error(err))
	}

	eng := engine.NewService(st, extractor, cfg.OutputDir, cfg.FontSize, cfg.MaxFileSize, logger)

	server, err := mcp.NewServer(cfg, eng)
	if err != nil {
		logger.Fatal("failed to create MCP server", zap.Error(err))
	}

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server, logger)
	} else {
		runStdioMode(ctx, server, logger)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("registrofill\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
