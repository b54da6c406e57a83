// File: device/engine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TransferEngine serializes staged copies behind a FIFO so latency-
// sensitive callers never block on the staging lock directly. One worker
// drains the queue; completion is signaled per transfer.

package device

import (
	"log"
	"runtime"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-devmem/affinity"
	"github.com/momentics/hioload-devmem/api"
)

// Transfer is one queued staged copy. Done, when non-nil, receives the
// outcome exactly once; it should be buffered.
type Transfer struct {
	Dir  api.TransferDirection
	Data []byte
	Done chan error
}

// TransferEngine dispatches transfers to an api.Transferer in FIFO order.
type TransferEngine struct {
	mu        sync.Mutex
	cond      *sync.Cond
	fifo      *queue.Queue
	dev       api.Transferer
	workerCPU int
	closed    bool
	done      chan struct{}
}

// NewTransferEngine starts the worker goroutine for dev.
func NewTransferEngine(dev api.Transferer) *TransferEngine {
	return NewPinnedTransferEngine(dev, -1)
}

// NewPinnedTransferEngine is NewTransferEngine with the worker bound to
// the given logical CPU. A negative workerCPU leaves the worker floating.
func NewPinnedTransferEngine(dev api.Transferer, workerCPU int) *TransferEngine {
	e := &TransferEngine{
		fifo:      queue.New(),
		dev:       dev,
		workerCPU: workerCPU,
		done:      make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Submit enqueues a transfer. Returns api.ErrEngineClosed once Close has
// been called.
func (e *TransferEngine) Submit(tr Transfer) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return api.ErrEngineClosed
	}
	e.fifo.Add(tr)
	e.cond.Signal()
	e.mu.Unlock()
	return nil
}

// Pending returns the number of queued transfers.
func (e *TransferEngine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fifo.Length()
}

// Close stops intake, drains queued transfers, and waits for the worker.
func (e *TransferEngine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	e.cond.Signal()
	e.mu.Unlock()
	<-e.done
}

func (e *TransferEngine) run() {
	defer close(e.done)
	if e.workerCPU >= 0 {
		runtime.LockOSThread()
		if err := affinity.SetAffinity(e.workerCPU); err != nil {
			log.Printf("[engine] worker affinity: %v", err)
		}
	}
	for {
		e.mu.Lock()
		for e.fifo.Length() == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.fifo.Length() == 0 && e.closed {
			e.mu.Unlock()
			return
		}
		tr := e.fifo.Remove().(Transfer)
		e.mu.Unlock()

		var err error
		switch tr.Dir {
		case api.ToDevice:
			err = e.dev.CopyToDevice(tr.Data)
		case api.FromDevice:
			err = e.dev.CopyFromDevice(tr.Data)
		}
		if tr.Done != nil {
			tr.Done <- err
		}
	}
}
