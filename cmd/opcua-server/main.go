// opcua-server runs a minimal OPC UA binary-protocol server exposing a
// small, hand-built address space over plain TCP.
//
// Usage:
//
//	opcua-server [options]
//
// Options:
//
//	-addr  TCP listen address (default: "0.0.0.0:4840")
//	-name  Endpoint display name, used only in log output (default: "opcua-server")
package main

import (
	"flag"
	"fmt"
	"log"
	"net"

	"github.com/mgorny/opcuago/pkg/addrspace"
	"github.com/mgorny/opcuago/pkg/uaserver"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
	"github.com/pion/logging"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:4840", "TCP listen address")
	name := flag.String("name", "opcua-server", "endpoint display name")
	flag.Parse()

	endpointURL := fmt.Sprintf("opc.tcp://%s", *addr)

	srv := uaserver.New(uaserver.Config{
		EndpointURL:   endpointURL,
		Space:         demoSpace(),
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("listen %s: %v", *addr, err)
	}
	defer ln.Close()

	log.Printf("%s: listening on %s (%s)", *name, ln.Addr(), endpointURL)
	if err := srv.Serve(ln); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// demoSpace builds a small address space under the standard Objects
// folder (ns=0;i=85): one writable static Variable and one computed
// Variable recomputed on every uncached read, enough to exercise
// Read, Write and TranslateBrowsePaths end to end.
func demoSpace() *addrspace.AddressSpace {
	space := addrspace.New()

	objectsFolder := uatypes.NewNumericNodeID(0, 85)
	space.AddNode(objectsFolder, addrspace.NewObject(
		uatypes.QualifiedName{Name: "Objects"},
		uatypes.LocalizedText{Locale: "en", Text: "Objects"},
	))

	switchID := uatypes.NewNumericNodeID(1, 1)
	booleanDataType := uatypes.NewNumericNodeID(0, 1)
	sw := addrspace.NewVariable(
		uatypes.QualifiedName{NamespaceIndex: 1, Name: "Switch"},
		uatypes.LocalizedText{Locale: "en", Text: "Switch"},
		booleanDataType,
		uaservices.AccessLevelCurrentRead|uaservices.AccessLevelCurrentWrite,
		uatypes.NewVariantBoolean(false),
	)
	space.AddNode(switchID, sw)
	space.AddReference(objectsFolder, addrspace.ReferenceTypeOrganizes, switchID)

	counterID := uatypes.NewNumericNodeID(1, 2)
	int32DataType := uatypes.NewNumericNodeID(0, 6)
	calls := int32(0)
	counter := addrspace.NewComputedVariable(
		uatypes.QualifiedName{NamespaceIndex: 1, Name: "Counter"},
		uatypes.LocalizedText{Locale: "en", Text: "Counter"},
		int32DataType,
		uaservices.AccessLevelCurrentRead,
		func() (uatypes.Variant, uatypes.StatusCode) {
			calls++
			return uatypes.NewVariantInt32(calls), uatypes.StatusGood
		},
	).WithCache(1000)
	space.AddNode(counterID, counter)
	space.AddReference(objectsFolder, addrspace.ReferenceTypeOrganizes, counterID)

	return space
}
