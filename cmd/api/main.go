package main

import (
	"os"

	"github.com/athome/driveops/internal/pkg/logger" // Still needed for initial error logging
	"github.com/athome/driveops/internal/server"
)

func main() {
	// NewServer orchestrates config, logger, database, dependencies and router setup
	srv, err := server.NewServer()
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run the server (this blocks until shutdown signal)
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
