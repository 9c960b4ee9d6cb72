package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_HOST", "DB_PORT", "DB_NAME", "DB_DATA_DIR", "DB_WORKERS", "DB_MAX_KEYS", "DB_URI"} {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, defaultHost, cfg.Host)
	require.Equal(t, uint16(defaultPort), cfg.Port)
	require.Equal(t, defaultDBName, cfg.DBName)
	require.Equal(t, defaultDataDir, cfg.DataDir)
	require.Equal(t, defaultWorkers, cfg.Workers)
	require.Equal(t, defaultMaxKeys, cfg.MaxKeys)
	require.Equal(t, defaultMaxConnections, cfg.MaxConnections)
}

func TestLoadDiscreteEnvVars(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DB_HOST", "10.0.0.1")
	t.Setenv("DB_PORT", "7000")
	t.Setenv("DB_NAME", "mydb")
	t.Setenv("DB_DATA_DIR", "/tmp/tori")
	t.Setenv("DB_WORKERS", "12")
	t.Setenv("DB_MAX_KEYS", "500")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", cfg.Host)
	require.Equal(t, uint16(7000), cfg.Port)
	require.Equal(t, "mydb", cfg.DBName)
	require.Equal(t, "/tmp/tori", cfg.DataDir)
	require.Equal(t, 12, cfg.Workers)
	require.Equal(t, 500, cfg.MaxKeys)
}

func TestLoadDBURIOverridesDiscreteVars(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DB_HOST", "ignored")
	t.Setenv("DB_PORT", "1")
	t.Setenv("DB_URI", "db://localhost:9100/otherdb?workers=4&max_connections=20&data_dir=/srv/tori")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "localhost", cfg.Host)
	require.Equal(t, uint16(9100), cfg.Port)
	require.Equal(t, "otherdb", cfg.DBName)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 20, cfg.MaxConnections)
	require.Equal(t, "/srv/tori", cfg.DataDir)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DB_PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)
}
