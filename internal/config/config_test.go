package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Environment)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, ":8080", cfg.GetHTTPAddr())
	require.Equal(t, 0.5, cfg.TraitAcceptThreshold)
	require.Equal(t, 50, cfg.ContextMaxEntries)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("PERSONA_BACKEND_ENVIRONMENT", "production")
	t.Setenv("PERSONA_BACKEND_HTTP_PORT", "9090")
	t.Setenv("PERSONA_BACKEND_DB_DRIVER", "postgres")
	t.Setenv("PERSONA_BACKEND_POSTGRES_DSN", "postgres://localhost:5432/persona")
	t.Setenv("PERSONA_BACKEND_TRAIT_ACCEPT_THRESHOLD", "0.7")

	cfg, err := New()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9090", cfg.GetHTTPAddr())
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, 0.7, cfg.TraitAcceptThreshold)
}

func TestNew_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("PERSONA_BACKEND_DB_DRIVER", "postgres")
	_, err := New()
	require.Error(t, err)
	require.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestValidate(t *testing.T) {
	cfg := NewForTesting()
	require.NoError(t, cfg.Validate())
	require.True(t, cfg.IsTesting())

	cfg = NewForTesting()
	cfg.DBDriver = "oracle"
	require.Error(t, cfg.Validate())

	cfg = NewForTesting()
	cfg.TraitAcceptThreshold = 1.5
	require.Error(t, cfg.Validate())

	cfg = NewForTesting()
	cfg.ContextMaxEntries = 0
	require.Error(t, cfg.Validate())
}
