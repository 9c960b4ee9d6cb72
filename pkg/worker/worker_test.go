package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/pkg/engine"
	"github.com/unsetsoft/toridb/pkg/executor"
	"github.com/unsetsoft/toridb/pkg/query"
)

func TestSubmitDispatchesThroughExecutor(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	eng := engine.New("test", 0)
	ex := executor.New(t.TempDir())
	pool := New(2, ex)
	defer pool.Close()

	sess := executor.NewSession("127.0.0.1:1", "test")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := pool.Submit(ctx, Request{
		Cmd:     query.Command{Kind: query.CmdAuth, Username: "default", Password: "secret"},
		RawCmd:  "AUTH default secret",
		Session: sess,
		Engine:  eng,
	})
	require.NoError(t, err)
	require.Equal(t, "OK", reply.Resp)

	reply, err = pool.Submit(ctx, Request{
		Cmd:     query.Command{Kind: query.CmdPing},
		RawCmd:  "PING",
		Session: sess,
		Engine:  eng,
	})
	require.NoError(t, err)
	require.Equal(t, "PONG", reply.Resp)
}

func TestSubmitAfterCloseReturnsError(t *testing.T) {
	ex := executor.New(t.TempDir())
	pool := New(1, ex)
	pool.Close()

	ctx := context.Background()
	_, err := pool.Submit(ctx, Request{Cmd: query.Command{Kind: query.CmdPing}})
	require.Error(t, err)
}

func TestManyConcurrentSubmits(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	eng := engine.New("test", 0)
	ex := executor.New(t.TempDir())
	pool := New(4, ex)
	defer pool.Close()

	sess := executor.NewSession("127.0.0.1:1", "test")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pool.Submit(ctx, Request{
		Cmd:     query.Command{Kind: query.CmdAuth, Username: "default", Password: "secret"},
		Session: sess,
		Engine:  eng,
	})

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			_, err := pool.Submit(ctx, Request{
				Cmd:     query.Command{Kind: query.CmdPing},
				Session: sess,
				Engine:  eng,
			})
			done <- err
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, <-done)
	}
}
