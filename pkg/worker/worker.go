// Package worker implements WorkerPool: a fixed-size goroutine pool that
// serializes command dispatch onto a shared request channel, each request
// carrying its own reply channel.
//
// Grounded on _examples/original_source/src/core/worker.rs (CommandRequest,
// the mpsc-channel-plus-oneshot-reply shape). The AOF-logging and
// replication-propagation steps that worker.rs performs in its dispatch
// loop now live inside pkg/executor.Execute itself (see that package's
// doc comment), so this pool is reduced to pure fan-in/fan-out plumbing —
// its only job is bounding concurrency and handing work to Execute.
package worker

import (
	"context"
	"errors"

	"github.com/unsetsoft/toridb/pkg/commandlog"
	"github.com/unsetsoft/toridb/pkg/engine"
	"github.com/unsetsoft/toridb/pkg/executor"
	"github.com/unsetsoft/toridb/pkg/query"
)

// queueDepth bounds the shared request channel, matching worker.rs's
// mpsc::channel(1024).
const queueDepth = 1024

// ErrPoolClosed is returned by Submit once the pool has been shut down.
var ErrPoolClosed = errors.New("worker pool closed")

// Request is one command awaiting dispatch, plus everything Execute needs
// to run it and a channel to deliver the reply on.
type Request struct {
	Cmd     query.Command
	RawCmd  string
	Session *executor.Session
	Engine  *engine.Engine
	Log     *commandlog.Log

	replyCh chan Reply
}

// Reply is a dispatched command's outcome.
type Reply struct {
	Resp string
	Hash *string
}

// Pool runs a fixed number of dispatch goroutines over a shared request
// channel.
type Pool struct {
	ex       *executor.Executor
	requests chan Request
	closed   chan struct{}
}

// New starts size goroutines, each looping on the shared request channel
// and calling ex.Execute per request.
func New(size int, ex *executor.Executor) *Pool {
	p := &Pool{
		ex:       ex,
		requests: make(chan Request, queueDepth),
		closed:   make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	for {
		select {
		case req := <-p.requests:
			resp, hash := p.ex.Execute(req.Engine, req.Cmd, req.RawCmd, req.Log, req.Session)
			req.replyCh <- Reply{Resp: resp, Hash: hash}
		case <-p.closed:
			return
		}
	}
}

// Submit enqueues req and blocks until a worker dispatches it and replies,
// ctx is canceled, or the pool is closed.
func (p *Pool) Submit(ctx context.Context, req Request) (Reply, error) {
	req.replyCh = make(chan Reply, 1)

	select {
	case <-p.closed:
		return Reply{}, ErrPoolClosed
	default:
	}

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case <-p.closed:
		return Reply{}, ErrPoolClosed
	}

	select {
	case reply := <-req.replyCh:
		return reply, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// Close stops accepting new work and signals the dispatch goroutines to
// exit. It returns at once without waiting for them; a command already being
// executed still completes.
func (p *Pool) Close() {
	select {
	case <-p.closed:
		return
	default:
		close(p.closed)
	}
}
