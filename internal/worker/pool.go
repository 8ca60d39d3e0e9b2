// Package worker bounds the "fast ack, async processing" contract: the
// webhook handler submits and returns, a fixed set of workers drains.
package worker

import (
	"context"
	"sync"

	"pedibot/internal"
)

type Handler func(ctx context.Context, msg internal.InboundMessage)

type Pool struct {
	jobs    chan internal.InboundMessage
	handler Handler
	wg      sync.WaitGroup
}

func NewPool(queueSize int, handler Handler) *Pool {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Pool{
		jobs:    make(chan internal.InboundMessage, queueSize),
		handler: handler,
	}
}

// Start launches n workers. Each message is handled independently; no
// ordering is guaranteed between messages, even from the same sender.
func (p *Pool) Start(ctx context.Context, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for msg := range p.jobs {
				p.handler(ctx, msg)
			}
		}()
	}
}

// Submit enqueues a message without blocking. A full queue rejects the
// submission; the caller decides whether to log or drop.
func (p *Pool) Submit(msg internal.InboundMessage) bool {
	select {
	case p.jobs <- msg:
		return true
	default:
		return false
	}
}

// Close stops accepting work and waits for in-flight messages to finish.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
