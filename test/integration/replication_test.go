package integration

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/test/framework"
)

// TestReplicaStreamsWritesFromMaster covers spec.md's literal scenario 6: a
// replica's PSYNC receives a full resync of the master's existing data, and
// a subsequent write on the master is forwarded and visible on the replica.
func TestReplicaStreamsWritesFromMaster(t *testing.T) {
	masterPort := freePort(t)
	master := framework.NewProcess(serverBinary())
	master.Env = []string{"DB_PORT=" + strconv.Itoa(masterPort), "DB_DATA_DIR=" + t.TempDir()}
	require.NoError(t, master.Start())
	t.Cleanup(func() { master.Stop() })

	masterClient, err := framework.DialDB(addr(masterPort))
	require.NoError(t, err)
	t.Cleanup(func() { masterClient.Close() })

	v, err := masterClient.Send("AUTH secret")
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str)

	v, err = masterClient.Send("SET k v")
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str)

	replicaPort := freePort(t)
	replica := framework.NewProcess(serverBinary())
	replica.Env = []string{"DB_PORT=" + strconv.Itoa(replicaPort), "DB_DATA_DIR=" + t.TempDir()}
	require.NoError(t, replica.Start())
	t.Cleanup(func() { replica.Stop() })

	replicaClient, err := framework.DialDB(addr(replicaPort))
	require.NoError(t, err)
	t.Cleanup(func() { replicaClient.Close() })

	v, err = replicaClient.Send("AUTH secret")
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str)

	v, err = replicaClient.Send("REPLICAOF 127.0.0.1 " + strconv.Itoa(masterPort))
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str)

	require.Eventually(t, func() bool {
		check, err := framework.DialDB(addr(replicaPort))
		if err != nil {
			return false
		}
		defer check.Close()
		check.Send("AUTH secret")
		got, err := check.Send("GET k")
		return err == nil && got.Bulk == "v"
	}, 5*time.Second, 100*time.Millisecond, "replica never completed full resync of pre-existing master data")

	v, err = masterClient.Send("SET k w")
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str)

	require.Eventually(t, func() bool {
		got, err := replicaClient.Send("GET k")
		return err == nil && got.Bulk == "w"
	}, 5*time.Second, 100*time.Millisecond, "replica never received the propagated write")
}
