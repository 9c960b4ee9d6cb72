package framework

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/unsetsoft/toridb/pkg/protocol"
)

// DBClient is a minimal synchronous client for driving a toridb-server
// instance from integration tests: one command in, one decoded Value out.
type DBClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

// DialDB connects to addr, retrying briefly to absorb the server's startup
// window right after Process.Start returns.
func DialDB(addr string) (*DBClient, error) {
	var lastErr error
	for i := 0; i < 50; i++ {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			return &DBClient{conn: conn, reader: bufio.NewReader(conn)}, nil
		}
		lastErr = err
		time.Sleep(100 * time.Millisecond)
	}
	return nil, fmt.Errorf("framework: could not connect to %s: %w", addr, lastErr)
}

// Send writes one command line and returns the decoded response Value.
func (c *DBClient) Send(line string) (protocol.Value, error) {
	if _, err := c.conn.Write(protocol.Encode(protocol.SimpleString(line))); err != nil {
		return protocol.Value{}, err
	}
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return protocol.Decode(c.reader)
}

// Close closes the underlying connection.
func (c *DBClient) Close() error {
	return c.conn.Close()
}
