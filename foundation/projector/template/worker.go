package template

import (
	"context"
	"fmt"
	"sync"

	"github.com/blockcast/blockcast/foundation/projector/mempool"
)

// Set of message types the worker accepts.
const (
	TypeSet MessageType = iota + 1
	TypeUpdate
)

// MessageType identifies the kind of request sent to the worker.
type MessageType int

// Message is a request for the template worker. A set message replaces the
// worker's entire view of the mempool, an update message applies an
// incremental diff.
type Message struct {
	Type    MessageType
	Mempool map[mempool.TxID]*mempool.ThreadTx
	Added   []*mempool.ThreadTx
	Removed []mempool.TxID
}

// =============================================================================

// request couples a message with its reply channel.
type request struct {
	msg  Message
	resp chan response
}

// response carries the result or the failure of one request.
type response struct {
	result Result
	err    error
}

// Worker runs a template builder on a dedicated goroutine and exchanges
// messages with it. The protocol is strict request reply: the caller must
// not issue a new request before the previous reply arrived.
type Worker struct {
	requests chan request
	once     sync.Once
}

// StartWorker spawns the builder goroutine for the specified block
// constraints and returns the handle to talk to it.
func StartWorker(weightUnits int64, maxBlocks int) *Worker {
	w := Worker{
		requests: make(chan request),
	}

	go w.run(weightUnits, maxBlocks)

	return &w
}

// Send posts a message to the worker and waits for the single reply. A
// worker failure is returned as an error and terminates the worker; the
// caller is expected to drop the handle and start a fresh worker on the
// next use.
func (w *Worker) Send(ctx context.Context, msg Message) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	req := request{
		msg:  msg,
		resp: make(chan response, 1),
	}

	select {
	case w.requests <- req:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case resp := <-req.resp:
		return resp.result, resp.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Shutdown terminates the goroutine performing work. It is safe to call
// more than once but must not race an in flight Send.
func (w *Worker) Shutdown() {
	w.once.Do(func() {
		close(w.requests)
	})
}

// =============================================================================

// run owns the builder and serves requests until the worker is shut down
// or a request fails.
func (w *Worker) run(weightUnits int64, maxBlocks int) {
	builder := NewBuilder(weightUnits, maxBlocks)

	for req := range w.requests {
		result, err := serve(builder, req.msg)

		req.resp <- response{result: result, err: err}

		// A failed builder can hold inconsistent state. Terminate and
		// let the orchestrator re-spawn with a fresh set message.
		if err != nil {
			return
		}
	}
}

// serve applies one message to the builder, converting a builder panic
// into an error reply.
func serve(builder *Builder, msg Message) (result Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("template builder panic: %v", rec)
		}
	}()

	switch msg.Type {
	case TypeSet:
		return builder.SetMempool(msg.Mempool), nil
	case TypeUpdate:
		return builder.UpdateMempool(msg.Added, msg.Removed), nil
	}

	return Result{}, fmt.Errorf("unknown message type %d", msg.Type)
}
