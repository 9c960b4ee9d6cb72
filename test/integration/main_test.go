// Package integration drives real toridb-server processes end to end over
// the wire protocol, covering spec.md's literal end-to-end scenarios.
// Grounded on the process/log harness in test/framework (itself adapted
// from _examples/cuemby-warren/test/framework), swapping the teacher's
// VM-based cluster orchestration (test/e2e/cluster_test.go) for plain
// child-process servers, since ToriDB has no VM/cluster-manager surface.
package integration

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/test/framework"
)

func serverBinary() string {
	if b := os.Getenv("TORIDB_BINARY"); b != "" {
		return b
	}
	return "../../bin/toridb-server"
}

func skipIfBinaryMissing(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(serverBinary()); os.IsNotExist(err) {
		t.Skipf("toridb-server binary not found at %s; build it first or set TORIDB_BINARY", serverBinary())
	}
}

// freePort asks the kernel for an ephemeral port by briefly binding to it,
// so each test server gets its own address without a fixed-port collision
// between parallel test binaries.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("could not reserve a port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func addr(port int) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}

// startAuthedServer launches a toridb-server child process on a fresh port
// and data dir, connects a DBClient, and authenticates it. The process is
// stopped and the connection closed via t.Cleanup.
func startAuthedServer(t *testing.T, extraEnv ...string) (*framework.Process, *framework.DBClient, int) {
	t.Helper()
	skipIfBinaryMissing(t)

	port := freePort(t)
	proc := framework.NewProcess(serverBinary())
	proc.Env = append([]string{
		"DB_PORT=" + strconv.Itoa(port),
		"DB_DATA_DIR=" + t.TempDir(),
	}, extraEnv...)
	require.NoError(t, proc.Start())
	t.Cleanup(func() { proc.Stop() })

	client, err := framework.DialDB(addr(port))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	v, err := client.Send("AUTH secret")
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str)

	return proc, client, port
}

// startExistingServer restarts a previously-stopped Process (same binary,
// env, and data dir) and returns a freshly authenticated client.
func startExistingServer(t *testing.T, proc *framework.Process, port int) *framework.DBClient {
	t.Helper()
	require.NoError(t, proc.Start())

	client, err := framework.DialDB(addr(port))
	require.NoError(t, err)

	v, err := client.Send("AUTH secret")
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str)

	return client
}
