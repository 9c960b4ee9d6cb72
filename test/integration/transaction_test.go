package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTransactionCommitSurvivesRestart covers spec.md's literal scenario 4:
// a BEGIN/SET/SET/COMMIT sequence queues its writes and applies them
// atomically, and both keys survive a server restart (log replay).
func TestTransactionCommitSurvivesRestart(t *testing.T) {
	proc, client, port := startAuthedServer(t)

	v, err := client.Send("BEGIN")
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str)

	v, err = client.Send("SET a 1")
	require.NoError(t, err)
	require.Equal(t, "QUEUED", v.Bulk)

	v, err = client.Send("SET b 2")
	require.NoError(t, err)
	require.Equal(t, "QUEUED", v.Bulk)

	v, err = client.Send("COMMIT")
	require.NoError(t, err)
	require.Contains(t, v.Bulk, "Transaction Executed")

	client.Close()
	require.NoError(t, proc.Stop())

	restarted := startExistingServer(t, proc, port)
	defer restarted.Close()

	v, err = restarted.Send("GET a")
	require.NoError(t, err)
	require.Equal(t, "1", v.Bulk)

	v, err = restarted.Send("GET b")
	require.NoError(t, err)
	require.Equal(t, "2", v.Bulk)
}
