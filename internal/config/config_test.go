package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenExpiry)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 20, cfg.RateLimit.Max)
	assert.False(t, cfg.Admin.Enabled())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownAlgorithm(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ALGORITHM", "RS256")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadTokenExpiry(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TokenExpiry)

	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "zero")
	_, err = Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DBConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", d.DSN())

	d.SSLRootCert = "/ca.pem"
	assert.Contains(t, d.DSN(), "sslrootcert=/ca.pem")
}
