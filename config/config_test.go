package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	require.Equal(t, "50051", cfg.Port)
	require.Equal(t, int64(50), cfg.Booking.DepositPercent)
	require.Equal(t, "222111", cfg.Booking.Paybill)
	require.Equal(t, "2321644", cfg.Booking.AccountNumber)
	require.Equal(t, 5*time.Minute, cfg.Redis.CatalogTTL)
	require.Empty(t, cfg.Redis.Addr)
}

func TestLoadEnvFileAndOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MPESA_PAYBILL=999000\nPGHOST=db.internal\n"), 0o600))
	t.Setenv("PGHOST", "override")
	t.Setenv("DEPOSIT_PERCENT", "30")
	t.Cleanup(func() {
		os.Unsetenv("MPESA_PAYBILL")
	})

	cfg, err := Load(path)

	require.NoError(t, err)
	require.Equal(t, "999000", cfg.Booking.Paybill)
	require.Equal(t, "override", cfg.Postgres.Host)
	require.Equal(t, int64(30), cfg.Booking.DepositPercent)
	require.Contains(t, cfg.Postgres.DSN(), "host=override")
}

func TestLoadRejectsDepositOutOfRange(t *testing.T) {
	t.Setenv("DEPOSIT_PERCENT", "150")

	_, err := Load("")

	require.Error(t, err)
}
