package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("POOLD_MODE", "sim")
	t.Setenv("WEB_PORT", "8080")
	t.Setenv("ADMIN_ADDRESSES", "elys1admin, elys1ops")
	t.Setenv("CUSTODY_ADDRESS", "elys1custody")
	t.Setenv("SNAPSHOT_INTERVAL_SECONDS", "300")
}

func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)

	require.NoError(t, LoadConfig())

	assert.Equal(t, "sim", Mode)
	assert.Equal(t, "8080", WebPort)
	assert.Equal(t, []string{"elys1admin", "elys1ops"}, AdminAddresses)
	assert.Equal(t, "elys1custody", CustodyAddress)
	assert.Equal(t, 5*time.Minute, SnapshotInterval)
}

func TestLoadConfigMissingVariable(t *testing.T) {
	for _, key := range []string{"POOLD_MODE", "WEB_PORT", "ADMIN_ADDRESSES", "CUSTODY_ADDRESS", "SNAPSHOT_INTERVAL_SECONDS"} {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			// t.Setenv records the original value for cleanup; unset on top
			// of it so the variable is genuinely absent.
			t.Setenv(key, "")
			os.Unsetenv(key)
			require.Error(t, LoadConfig())
		})
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SNAPSHOT_INTERVAL_SECONDS", "soon")
	require.Error(t, LoadConfig())

	setRequiredEnv(t)
	t.Setenv("ADMIN_ADDRESSES", " , ,")
	require.Error(t, LoadConfig())
}
