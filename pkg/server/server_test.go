package server

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/pkg/config"
	"github.com/unsetsoft/toridb/pkg/protocol"
)

func startTestServer(t *testing.T) net.Addr {
	t.Helper()
	cfg := config.Config{
		Host:           "127.0.0.1",
		Port:           0,
		DBName:         "data",
		DataDir:        t.TempDir(),
		Workers:        4,
		MaxKeys:        1000,
		MaxConnections: 10,
	}
	srv := New(cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Serve(ctx, ln)

	return ln.Addr()
}

func sendAndRead(t *testing.T, conn net.Conn, reader *bufio.Reader, line string) protocol.Value {
	t.Helper()
	_, err := conn.Write(protocol.Encode(protocol.SimpleString(line)))
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	v, err := protocol.Decode(reader)
	require.NoError(t, err)
	return v
}

func TestServerAuthSetGetRoundTrip(t *testing.T) {
	addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	v := sendAndRead(t, conn, reader, "AUTH secret")
	require.Equal(t, protocol.KindSimpleString, v.Kind)
	require.Equal(t, "OK", v.Str)

	v = sendAndRead(t, conn, reader, "SET foo bar")
	require.Equal(t, "OK", v.Str)

	v = sendAndRead(t, conn, reader, "GET foo")
	require.Equal(t, protocol.KindBulkString, v.Kind)
	require.Equal(t, "bar", v.Bulk)
}

func TestServerRejectsCommandsBeforeAuth(t *testing.T) {
	addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	v := sendAndRead(t, conn, reader, "GET foo")
	require.Equal(t, protocol.KindError, v.Kind)
}

func TestServerPingPong(t *testing.T) {
	addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	v := sendAndRead(t, conn, reader, "AUTH secret")
	require.Equal(t, "OK", v.Str)

	v = sendAndRead(t, conn, reader, "PING")
	require.Equal(t, "PONG", v.Str)
}
