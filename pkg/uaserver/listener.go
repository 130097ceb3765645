package uaserver

import (
	"io"
	"net"
	"sync"

	"github.com/mgorny/opcuago/pkg/uachannel"
	"github.com/mgorny/opcuago/pkg/uatransport"
)

// readBufferSize is the chunk size Serve reads off the socket before
// handing the bytes to Transport.Feed; it has no relation to the
// protocol's own advertised buffer sizes, which govern chunking, not
// how this side happens to read the stream.
const readBufferSize = 4096

// Serve accepts connections on ln until Stop is called and ln is
// closed, spawning one goroutine per connection, mirroring the
// teacher's pkg/transport/tcp.go accept loop. Serve blocks until ln
// stops accepting; run it in its own goroutine to serve alongside
// other work.
func (srv *Server) Serve(ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-srv.closeCh():
				return nil
			default:
				return err
			}
		}
		go srv.handleConn(nc)
	}
}

// closeCh lazily allocates the shutdown signal channel; Serve only
// needs it to distinguish a deliberate Stop-triggered Accept error
// from a real one, and most callers never call Stop.
func (srv *Server) closeCh() <-chan struct{} {
	srv.closeOnce.Do(func() { srv.closeChan = make(chan struct{}) })
	return srv.closeChan
}

// safeConn serializes writes onto the socket: Transport.Send and every
// Channel's framed-chunk write can both be invoked from the same
// goroutine here, but net.Conn.Write is not guaranteed safe for
// concurrent use from elsewhere, so all writes are funneled through
// one mutex.
type safeConn struct {
	net.Conn
	mu sync.Mutex
}

func (c *safeConn) send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.Write(b)
	return err
}

// connChannels records which secure-channel ids were opened on one
// connection, so handleConn can remove their sessions from the
// server's registry on teardown; uachannel.Set has no method of its
// own to enumerate the channels it holds.
type connChannels struct {
	mu  sync.Mutex
	ids map[uint32]struct{}
}

func (c *connChannels) add(id uint32) {
	c.mu.Lock()
	c.ids[id] = struct{}{}
	c.mu.Unlock()
}

func (c *connChannels) snapshot() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint32, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	return out
}

// chunkHandlerFunc adapts a plain function to uatransport.ChunkHandler.
type chunkHandlerFunc func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error

func (f chunkHandlerFunc) HandleChunk(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
	return f(channelID, msgType, final, body)
}

// handleConn owns one TCP connection end to end: it builds a
// Transport+Set pair wired directly to this socket, blocks reading
// until the peer disconnects or a protocol error tears the connection
// down, and then removes every session still attached to a channel
// opened on this connection from the server's registry.
func (srv *Server) handleConn(nc net.Conn) {
	defer nc.Close()

	c := &safeConn{Conn: nc}
	channels := &connChannels{ids: make(map[uint32]struct{})}

	var set *uachannel.Set
	transport, err := uatransport.New(uatransport.Config{
		Role:          uatransport.RoleServer,
		Send:          c.send,
		LoggerFactory: srv.cfg.LoggerFactory,
		ChunkHandler: chunkHandlerFunc(func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
			channels.add(channelID)
			return set.HandleChunk(channelID, msgType, final, body)
		}),
		OnClose: func() { set.CloseAll() },
	})
	if err != nil {
		srv.log.Errorf("uaserver: building transport for %s: %v", nc.RemoteAddr(), err)
		return
	}

	set, err = uachannel.NewSet(uachannel.Config{
		Role:           uatransport.RoleServer,
		Transport:      transport,
		Registry:       srv.cfg.Registry,
		RequestHandler: srv.dispatch,
		LoggerFactory:  srv.cfg.LoggerFactory,
	})
	if err != nil {
		srv.log.Errorf("uaserver: building channel set for %s: %v", nc.RemoteAddr(), err)
		return
	}

	defer func() {
		for _, id := range channels.snapshot() {
			srv.sessions.RemoveByChannel(id)
		}
	}()

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := nc.Read(buf)
		if n > 0 {
			if feedErr := transport.Feed(buf[:n]); feedErr != nil {
				srv.log.Warnf("uaserver: %s: %v", nc.RemoteAddr(), feedErr)
				transport.Close()
				return
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				srv.log.Warnf("uaserver: %s: read error: %v", nc.RemoteAddr(), readErr)
			}
			transport.Close()
			return
		}
	}
}
