package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/poold/internal/config"
	"github.com/elys-network/poold/internal/engine"
	"github.com/elys-network/poold/internal/gate"
	"github.com/elys-network/poold/internal/ledger"
	"github.com/elys-network/poold/internal/logger"
	"github.com/elys-network/poold/internal/state"
	"github.com/elys-network/poold/internal/web"
)

// main is the entry point for the staking pool daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Staking Pool Daemon Starting...")

	// Safety switch: only the in-process bank ledger is supported. Refuse to
	// start under any other mode so a future remote-ledger mode cannot be
	// enabled by accident.
	if config.Mode != "sim" {
		log.Fatal().Str("mode", config.Mode).Msg("POOLD_MODE is not set to 'sim'. Halting to prevent accidental execution. Set POOLD_MODE=sim to run.")
	}

	// Initialize Database Connection (event journal + snapshots)
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Engine Initialization ---
	bank := ledger.NewBank()
	accessGate := gate.NewStaticGate(config.AdminAddresses)

	poolEngine, err := engine.NewEngine(engine.Config{
		Ledger:         bank,
		Gate:           accessGate,
		Recorder:       state.Recorder{},
		CustodyAddress: config.CustodyAddress,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pool engine")
	}

	// Restore accounting state from the latest snapshot, if one exists.
	snapshot, err := state.LoadLatestSnapshot()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load latest engine snapshot")
	}
	if snapshot != nil {
		if err := poolEngine.Restore(*snapshot); err != nil {
			log.Fatal().Err(err).Msg("Failed to restore engine state from snapshot")
		}
	} else {
		log.Info().Msg("No prior engine snapshot found, starting with empty state.")
	}

	// --- 3. Start Periodic Snapshots ---
	stopSnapshots := make(chan struct{})
	go func() {
		ticker := time.NewTicker(config.SnapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := state.SaveEngineSnapshot(poolEngine.Snapshot()); err != nil {
					log.Error().Err(err).Msg("Failed to save periodic engine snapshot")
				}
			case <-stopSnapshots:
				return
			}
		}
	}()

	// --- 4. Start Web Server ---
	webServer := web.NewWebServer(config.WebPort, poolEngine)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting pool API server")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 5. Wait for Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	close(stopSnapshots)

	// Final snapshot so no settled state is lost across the restart.
	if _, err := state.SaveEngineSnapshot(poolEngine.Snapshot()); err != nil {
		log.Error().Err(err).Msg("Failed to save final engine snapshot")
	}
	log.Info().Msg("Staking Pool Daemon stopped.")
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
