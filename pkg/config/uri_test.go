package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseURIFull(t *testing.T) {
	u, err := ParseURI("db://admin:secret+localhost:9000/mydb?workers=8&data_dir=/var/tori")
	require.NoError(t, err)
	require.Equal(t, "admin", u.Username)
	require.Equal(t, "secret", u.Password)
	require.Equal(t, "localhost", u.Host)
	require.Equal(t, uint16(9000), u.Port)
	require.Equal(t, "mydb", u.DBName)
	require.Equal(t, "8", u.Query["workers"])
	require.Equal(t, "/var/tori", u.Query["data_dir"])
	require.Equal(t, "localhost:9000", u.ToAddr())
}

func TestParseURIMinimal(t *testing.T) {
	u, err := ParseURI("db://localhost")
	require.NoError(t, err)
	require.Equal(t, "", u.Username)
	require.Equal(t, "", u.Password)
	require.Equal(t, "localhost", u.Host)
	require.Equal(t, uint16(defaultURIPort), u.Port)
	require.Equal(t, "", u.DBName)
	require.Equal(t, "data", u.DBNameDefault())
	require.Empty(t, u.Query)
}

func TestParseURIRejectsMissingScheme(t *testing.T) {
	_, err := ParseURI("localhost:8569")
	require.Error(t, err)
}

func TestParseURIHostAndPortNoAuthNoDB(t *testing.T) {
	u, err := ParseURI("db://10.0.0.5:8570")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", u.Host)
	require.Equal(t, uint16(8570), u.Port)
	require.Equal(t, "data", u.DBNameDefault())
}
