package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)
	path := writeConfig(t, `
database:
  host: localhost
  port: 5432
  user: app
  name: bookings
  ssl_mode: disable
fees:
  cleaning_fee: 0
  service_fee: 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Payment.MaxAttempts)
	assert.Equal(t, 3, cfg.Payment.IntervalSeconds)
	assert.Equal(t, int64(0), *cfg.Fees.CleaningFee)
	assert.Equal(t, "@every 1m", cfg.Worker.FallbackSyncSchedule)
	assert.Contains(t, cfg.Database.DSN(), "dbname=bookings")
}

func TestLoadConfig_FeesRequired(t *testing.T) {
	path := writeConfig(t, `
fees:
  cleaning_fee: 5000
`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "must both be set explicitly")
}

func TestLoadConfig_NegativeFee(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)
	path := writeConfig(t, `
fees:
  cleaning_fee: -1
  service_fee: 0
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PAYMENT_SECRET_KEY", "sk_test")
	t.Setenv("JWT_SECRET", testJWTSecret)
	path := writeConfig(t, `
payment:
  secret_key: from-file
fees:
  cleaning_fee: 5000
  service_fee: 2500
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk_test", cfg.Payment.SecretKey)
	assert.Equal(t, testJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, int64(2500), *cfg.Fees.ServiceFee)
}

func TestLoadConfig_JWTSecretRequired(t *testing.T) {
	testCases := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"too short", "jwt"},
		{"one short", testJWTSecret[:MinJWTSecretLength-1]},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tc.secret)
			path := writeConfig(t, `
auth:
  jwt_secret: ""
fees:
  cleaning_fee: 5000
  service_fee: 2500
`)

			cfg, err := LoadConfig(path)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "auth.jwt_secret")
		})
	}
}

func TestLoadConfig_ShippedConfigNeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig("../config.yaml")
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", testJWTSecret)
	cfg, err := LoadConfig("../config.yaml")
	require.NoError(t, err)
	assert.Equal(t, testJWTSecret, cfg.Auth.JWTSecret)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}
