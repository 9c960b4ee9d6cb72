package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unsetsoft/toridb/pkg/config"
	"github.com/unsetsoft/toridb/pkg/protocol"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "toridb-cli",
	Short:   "Interactive client for a ToriDB server",
	Version: Version,
	RunE:    runRepl,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"toridb-cli version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
	rootCmd.Flags().StringP("host", "h", "127.0.0.1", "Server host")
	rootCmd.Flags().IntP("port", "p", 8569, "Server port")
	rootCmd.Flags().String("uri", "", "Full db:// connection URI, overrides --host/--port")
	rootCmd.Flags().String("password", "", "AUTH password to send immediately after connecting")
}

func runRepl(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	uri, _ := cmd.Flags().GetString("uri")
	password, _ := cmd.Flags().GetString("password")

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	if uri != "" {
		u, err := config.ParseURI(uri)
		if err != nil {
			return fmt.Errorf("invalid --uri: %w", err)
		}
		addr = u.ToAddr()
		if password == "" {
			password = u.Password
		}
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	fmt.Printf("Connected to %s\n", addr)

	if password != "" {
		if err := sendLine(conn, "AUTH "+password); err != nil {
			return err
		}
		v, err := protocol.Decode(reader)
		if err != nil {
			return fmt.Errorf("auth failed: %w", err)
		}
		fmt.Println(renderValue(v))
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("toridb> ")
		if !scanner.Scan() {
			fmt.Println()
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		if err := sendLine(conn, line); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
		v, err := protocol.Decode(reader)
		if err != nil {
			return fmt.Errorf("connection closed: %w", err)
		}
		fmt.Println(renderValue(v))
	}
}

func sendLine(conn net.Conn, line string) error {
	_, err := conn.Write(protocol.Encode(protocol.SimpleString(line)))
	return err
}

func renderValue(v protocol.Value) string {
	switch v.Kind {
	case protocol.KindError:
		return "(error) " + v.Str
	case protocol.KindSimpleString:
		return v.Str
	case protocol.KindInteger:
		return fmt.Sprintf("(integer) %d", v.Int)
	case protocol.KindBulkString:
		if v.Null {
			return "(nil)"
		}
		return v.Bulk
	case protocol.KindArray:
		if v.Null {
			return "(nil)"
		}
		parts := make([]string, len(v.Array))
		for i, item := range v.Array {
			parts[i] = renderValue(item)
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}
