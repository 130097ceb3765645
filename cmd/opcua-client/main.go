// opcua-client dials an OPC UA binary-protocol server, opens a secure
// channel under SecurityMode NONE, creates and activates a session
// anonymously, and reads one node's Value attribute.
//
// Usage:
//
//	opcua-client [options]
//
// Options:
//
//	-addr    TCP address to dial (default: "127.0.0.1:4840")
//	-node    Node id to read, "ns=<ns>;i=<id>" (default: "ns=1;i=1")
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/mgorny/opcuago/pkg/uachannel"
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uasession"
	"github.com/mgorny/opcuago/pkg/uatransport"
	"github.com/mgorny/opcuago/pkg/uatypes"
	"github.com/pion/logging"
)

const dialTimeout = 5 * time.Second

func main() {
	addr := flag.String("addr", "127.0.0.1:4840", "TCP address to dial")
	nodeFlag := flag.String("node", "ns=1;i=1", "node id to read")
	renewEvery := flag.Duration("renew-every", 0, "if set, renew the secure channel on this interval before it expires (0 disables)")
	flag.Parse()

	target, err := parseNodeID(*nodeFlag)
	if err != nil {
		log.Fatalf("-node: %v", err)
	}

	nc, err := net.DialTimeout("tcp", *addr, dialTimeout)
	if err != nil {
		log.Fatalf("dial %s: %v", *addr, err)
	}
	defer nc.Close()

	loggerFactory := logging.NewDefaultLoggerFactory()
	dir := uasession.NewDirectory()

	var clientSet *uachannel.Set
	var transport *uatransport.Transport
	ready := make(chan struct{})
	opened := make(chan struct{})
	var readyOnce, openedOnce doOnce

	transport, err = uatransport.New(uatransport.Config{
		Role:        uatransport.RoleClient,
		EndpointURL: fmt.Sprintf("opc.tcp://%s", *addr),
		Send:        func(b []byte) error { _, werr := nc.Write(b); return werr },
		ChunkHandler: chunkHandlerFunc(func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
			return clientSet.HandleChunk(channelID, msgType, final, body)
		}),
		OnReady: func() { readyOnce.do(func() { close(ready) }) },
		OnClose: func() {
			clientSet.CloseAll()
			dir.CancelAllPending()
		},
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		log.Fatalf("uatransport.New: %v", err)
	}

	clientSet, err = uachannel.NewSet(uachannel.Config{
		Role:      uatransport.RoleClient,
		Transport: transport,
		RequestHandler: func(channelID, requestID uint32, abstractID uatypes.NodeID, msg uacodec.Structure) (uatypes.NodeID, uacodec.Structure, error) {
			if abstractID.Equal(uaservices.OpenSecureChannelResponseTypeID) {
				openedOnce.do(func() { close(opened) })
			}
			return dir.Handle(channelID, requestID, abstractID, msg)
		},
		AbortHandler:  dir.HandleAbort,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		log.Fatalf("uachannel.NewSet: %v", err)
	}

	go readLoop(nc, transport)

	if err := transport.Start(); err != nil {
		log.Fatalf("transport.Start: %v", err)
	}
	if err := waitFor(ready, dialTimeout); err != nil {
		log.Fatalf("HEL/ACK handshake: %v", err)
	}

	ch, _, err := clientSet.OpenClient(uaservices.MessageSecurityModeNone, 3600000)
	if err != nil {
		log.Fatalf("OpenClient: %v", err)
	}
	if err := waitFor(opened, dialTimeout); err != nil {
		log.Fatalf("OpenSecureChannel: %v", err)
	}

	if *renewEvery > 0 {
		go renewLoop(ch, *renewEvery)
	}

	sess := uasession.New(dir, "opcua-client", fmt.Sprintf("opc.tcp://%s", *addr))

	createDone := make(chan error, 1)
	if err := sess.Create(ch, &uaservices.CreateSessionRequest{RequestedSessionTimeout: 60000}, func(resp *uaservices.CreateSessionResponse, err error) {
		createDone <- err
	}); err != nil {
		log.Fatalf("Create: %v", err)
	}
	if err := <-createDone; err != nil {
		log.Fatalf("CreateSessionResponse: %v", err)
	}

	activateDone := make(chan error, 1)
	if err := sess.Activate(nil, func(resp *uaservices.ActivateSessionResponse, err error) {
		if err == nil && !resp.Header.ServiceResult.IsGood() {
			err = fmt.Errorf("server returned %#08x", uint32(resp.Header.ServiceResult))
		}
		activateDone <- err
	}); err != nil {
		log.Fatalf("Activate: %v", err)
	}
	if err := <-activateDone; err != nil {
		log.Fatalf("ActivateSessionResponse: %v", err)
	}

	readDone := make(chan error, 1)
	var results []uatypes.DataValue
	readReq := &uaservices.ReadRequest{
		NodesToRead: []uaservices.ReadValueID{{NodeID: target, AttributeID: uaservices.AttributeValue}},
	}
	if err := sess.Read(readReq, func(resp *uaservices.ReadResponse, err error) {
		if err == nil {
			results = resp.Results
		}
		readDone <- err
	}); err != nil {
		log.Fatalf("Read: %v", err)
	}
	if err := <-readDone; err != nil {
		log.Fatalf("ReadResponse: %v", err)
	}

	for _, dv := range results {
		if !dv.HasValue() {
			fmt.Printf("%s: bad status %#08x\n", *nodeFlag, uint32(dv.Status))
			continue
		}
		fmt.Printf("%s: %v\n", *nodeFlag, dv.Value.Value())
	}

	closeDone := make(chan error, 1)
	if err := sess.Close(false, func(resp *uaservices.CloseSessionResponse, err error) {
		closeDone <- err
	}); err != nil {
		log.Fatalf("Close: %v", err)
	}
	<-closeDone
}

// readLoop feeds bytes arriving on nc into transport until the
// connection closes or a protocol error tears it down. Run in its own
// goroutine; this is the one place blocking socket reads happen.
func readLoop(nc net.Conn, transport *uatransport.Transport) {
	buf := make([]byte, 4096)
	for {
		n, err := nc.Read(buf)
		if n > 0 {
			if feedErr := transport.Feed(buf[:n]); feedErr != nil {
				log.Printf("transport.Feed: %v", feedErr)
				transport.Close()
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("read: %v", err)
			}
			transport.Close()
			return
		}
	}
}

// renewLoop calls Renew on ch every interval, for as long as the
// process runs, keeping the secure channel's token from expiring on a
// long-lived connection. Started only when -renew-every is set.
func renewLoop(ch *uachannel.Channel, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		if _, err := ch.Renew(3600000); err != nil {
			log.Printf("Renew: %v", err)
			return
		}
	}
}

// doOnce guards a close(ch) against the handshake/OPN callbacks firing
// more than once (OnReady never will, but defending against it is
// cheaper than a second panic-recover path).
type doOnce struct {
	done bool
}

func (o *doOnce) do(f func()) {
	if o.done {
		return
	}
	o.done = true
	f()
}

func waitFor(ch <-chan struct{}, timeout time.Duration) error {
	select {
	case <-ch:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timed out after %s", timeout)
	}
}

type chunkHandlerFunc func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error

func (f chunkHandlerFunc) HandleChunk(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
	return f(channelID, msgType, final, body)
}

// parseNodeID parses the small subset of the string NodeId syntax this
// CLI accepts: "ns=<uint16>;i=<uint32>", with the "ns=" part optional
// (defaulting to namespace 0).
func parseNodeID(s string) (uatypes.NodeID, error) {
	var ns uint64
	numeric := s
	if rest, ok := strings.CutPrefix(s, "ns="); ok {
		parts := strings.SplitN(rest, ";", 2)
		if len(parts) != 2 {
			return uatypes.NodeID{}, fmt.Errorf("expected ns=<n>;i=<n>, got %q", s)
		}
		var err error
		ns, err = strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return uatypes.NodeID{}, fmt.Errorf("namespace index: %w", err)
		}
		numeric = parts[1]
	}
	idStr, ok := strings.CutPrefix(numeric, "i=")
	if !ok {
		return uatypes.NodeID{}, fmt.Errorf("expected numeric identifier i=<n>, got %q", s)
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return uatypes.NodeID{}, fmt.Errorf("numeric identifier: %w", err)
	}
	return uatypes.NewNumericNodeID(uint16(ns), uint32(id)), nil
}
