// Package ztransport provides an in-memory net.Conn pair for exercising
// pkg/uaserver's client/server wiring without a real
// socket: a Pipe delivers bytes written on one end as reads on the
// other, with a background goroutine doing the delivery so ordinary
// blocking net.Conn.Read calls behave the way they would over a real
// TCP connection.
package ztransport

import (
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// tickInterval is how often the background goroutine drains queued
// packets in both directions. A real socket has no such interval;
// this only exists because the underlying bridge is poll- rather than
// event-driven.
const tickInterval = time.Millisecond

// Pipe is a bidirectional in-memory connection pair, auto-delivering
// queued bytes in a background goroutine until Close.
type Pipe struct {
	bridge *test.Bridge

	mu     sync.Mutex
	closed bool
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Pipe and starts its delivery goroutine.
func New() *Pipe {
	p := &Pipe{bridge: test.NewBridge(), stopCh: make(chan struct{})}
	p.wg.Add(1)
	go p.pump()
	return p
}

func (p *Pipe) pump() {
	defer p.wg.Done()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.bridge.Tick()
		}
	}
}

// Conn0 returns one endpoint of the pipe.
func (p *Pipe) Conn0() net.Conn { return p.bridge.GetConn0() }

// Conn1 returns the other endpoint of the pipe.
func (p *Pipe) Conn1() net.Conn { return p.bridge.GetConn1() }

// Close stops delivery and closes both endpoints.
func (p *Pipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()

	err0 := p.bridge.GetConn0().Close()
	err1 := p.bridge.GetConn1().Close()
	if err0 != nil {
		return err0
	}
	return err1
}
