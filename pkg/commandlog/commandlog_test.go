package commandlog

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitForFile(t *testing.T, l *Log) {
	t.Helper()
	require.NoError(t, l.Close())
}

func TestAppendAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir, "testdb")
	require.NoError(t, err)
	require.NoError(t, l.Append("SET a 1"))
	require.NoError(t, l.Append("SET b 2"))
	waitForFile(t, l)

	l2, err := Open(dir, "testdb")
	require.NoError(t, err)
	defer l2.Close()
	cmds, err := l2.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"SET a 1", "SET b 2"}, cmds)
}

func TestLoadStopsAtCRCMismatch(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/testdb.db"
	content := "CRC32:deadbeef:SET a 1\nCRC32:00000000:SET b 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := Open(dir, "testdb")
	require.NoError(t, err)
	defer l.Close()
	cmds, err := l.Load()
	require.NoError(t, err)
	require.Empty(t, cmds)
}

func TestLoadTransactionMarkers(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir, "testdb")
	require.NoError(t, err)
	require.NoError(t, l.Append("BEGIN"))
	require.NoError(t, l.Append("SET a 1"))
	require.NoError(t, l.Append("SET b 2"))
	require.NoError(t, l.Append("COMMIT"))
	require.NoError(t, l.Append("SET c 3"))
	waitForFile(t, l)

	l2, err := Open(dir, "testdb")
	require.NoError(t, err)
	defer l2.Close()
	cmds, err := l2.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"SET a 1", "SET b 2", "SET c 3"}, cmds)
}

func TestLoadDiscardsUnterminatedTransaction(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir, "testdb")
	require.NoError(t, err)
	require.NoError(t, l.Append("SET before 1"))
	require.NoError(t, l.Append("BEGIN"))
	require.NoError(t, l.Append("SET a 1"))
	waitForFile(t, l)

	l2, err := Open(dir, "testdb")
	require.NoError(t, err)
	defer l2.Close()
	cmds, err := l2.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"SET before 1"}, cmds)
}

func TestRewriteCompactsLog(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir, "testdb")
	require.NoError(t, err)
	require.NoError(t, l.Append("SET a 1"))
	require.NoError(t, l.Append("SET a 2"))
	l.Rewrite([]string{"SET a 2"})
	// Give the writer goroutine a moment to process the queued rewrite op.
	time.Sleep(50 * time.Millisecond)
	waitForFile(t, l)

	l2, err := Open(dir, "testdb")
	require.NoError(t, err)
	defer l2.Close()
	cmds, err := l2.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"SET a 2"}, cmds)
}
