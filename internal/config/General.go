package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// Mode is the run mode of the daemon. Only "sim" is supported: the engine
	// settles against the in-process bank ledger. The variable is required so
	// a future remote-ledger mode cannot be enabled by accident.
	Mode string

	// WebPort is the port the HTTP API listens on.
	WebPort string

	// AdminAddresses is the set of privileged caller addresses. Admin
	// operations (allow, disallow, set reward denom, distribute, sweep) are
	// rejected for any caller not in this list.
	AdminAddresses []string

	// CustodyAddress is the account that holds pool custody balances in the
	// token ledger. Deposits credit it, claims and withdrawals debit it.
	CustodyAddress string

	// SnapshotInterval is how often the engine state is snapshotted to the
	// database.
	SnapshotInterval time.Duration
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Mode, err = getEnv("POOLD_MODE")
	if err != nil {
		return err
	}

	WebPort, err = getEnv("WEB_PORT")
	if err != nil {
		return err
	}

	adminList, err := getEnv("ADMIN_ADDRESSES")
	if err != nil {
		return err
	}
	AdminAddresses = splitAndTrim(adminList)
	if len(AdminAddresses) == 0 {
		return errors.New("environment variable ADMIN_ADDRESSES must contain at least one address")
	}

	CustodyAddress, err = getEnv("CUSTODY_ADDRESS")
	if err != nil {
		return err
	}

	snapshotSeconds, err := getEnvAsUint64("SNAPSHOT_INTERVAL_SECONDS")
	if err != nil {
		return err
	}
	SnapshotInterval = time.Duration(snapshotSeconds) * time.Second

	log.Debug().
		Str("Mode", Mode).
		Str("WebPort", WebPort).
		Int("AdminAddresses", len(AdminAddresses)).
		Str("CustodyAddress", CustodyAddress).
		Dur("SnapshotInterval", SnapshotInterval).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// splitAndTrim splits a comma-separated list, dropping empty entries.
func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
