package main

import (
	"os"

	"github.com/HamletTheHamster/goat-explorer/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// setupEnvironment loads .env if present and configures logging from ENV and
// LOGLEVEL. The config file may adjust logging again once it is read.
func setupEnvironment() {
	err := godotenv.Load()

	logging.Setup(os.Getenv("ENV"), os.Getenv("LOGLEVEL"))

	// reported only now so the logger is configured
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found; proceeding with existing environment variables.")
	}
}
