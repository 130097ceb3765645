package addrspace

import (
	"sync"

	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// HasComponent and Organizes are the only two reference types this
// address space understands, matching the two reference types the
// worked examples hang a node tree off of. Both live in namespace 0
// alongside the protocol's own structure/attribute ids.
var (
	ReferenceTypeHasComponent = uatypes.NewNumericNodeID(0, 47)
	ReferenceTypeOrganizes    = uatypes.NewNumericNodeID(0, 35)
)

type edge struct {
	typeID uatypes.NodeID
	other  uatypes.NodeID
}

// AddressSpace is the server's map of registered nodes plus the
// reference graph connecting them. All methods are safe for concurrent
// use, though in the single-threaded event-loop model only one
// goroutine ever calls in.
type AddressSpace struct {
	mu    sync.RWMutex
	nodes map[any]Node
	out   map[any][]edge
	in    map[any][]edge
}

// New constructs an empty AddressSpace.
func New() *AddressSpace {
	return &AddressSpace{
		nodes: make(map[any]Node),
		out:   make(map[any][]edge),
		in:    make(map[any][]edge),
	}
}

// AddNode registers n under id, replacing any node already there.
func (a *AddressSpace) AddNode(id uatypes.NodeID, n Node) {
	a.mu.Lock()
	a.nodes[id.Key()] = n
	a.mu.Unlock()
}

// Lookup returns the node registered under id, if any.
func (a *AddressSpace) Lookup(id uatypes.NodeID) (Node, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, ok := a.nodes[id.Key()]
	return n, ok
}

// AddReference records a directed reference of typeID from source to
// target, and its inverse for IsInverse browse-path walks.
func (a *AddressSpace) AddReference(source, typeID, target uatypes.NodeID) {
	a.mu.Lock()
	a.out[source.Key()] = append(a.out[source.Key()], edge{typeID, target})
	a.in[target.Key()] = append(a.in[target.Key()], edge{typeID, source})
	a.mu.Unlock()
}

// Read answers a ReadRequest against the registered nodes, one
// DataValue per ReadValueID in order, each stamped with the timestamps
// req.TimestampsToReturn asks for.
func (a *AddressSpace) Read(req *uaservices.ReadRequest, caller *Caller) []uatypes.DataValue {
	now := uatypes.Now()
	results := make([]uatypes.DataValue, len(req.NodesToRead))
	for i, rv := range req.NodesToRead {
		node, ok := a.Lookup(rv.NodeID)
		if !ok {
			results[i] = uatypes.NewDataValueFromStatus(uatypes.StatusBadNodeIdUnknown)
			continue
		}
		dv, status := node.GetAttribute(rv.AttributeID, caller, req.MaxAge)
		if status.IsBad() && !dv.HasStatus() {
			dv = uatypes.NewDataValueFromStatus(status)
		}
		results[i] = dv.WithTimestamps(req.TimestampsToReturn, now)
	}
	return results
}

// Write answers a WriteRequest, one StatusCode per WriteValue in order.
func (a *AddressSpace) Write(req *uaservices.WriteRequest, caller *Caller) []uatypes.StatusCode {
	results := make([]uatypes.StatusCode, len(req.NodesToWrite))
	for i, wv := range req.NodesToWrite {
		node, ok := a.Lookup(wv.NodeID)
		if !ok {
			results[i] = uatypes.StatusBadNodeIdUnknown
			continue
		}
		results[i] = node.SetAttribute(wv.AttributeID, caller, wv.Value)
	}
	return results
}

// TranslateBrowsePaths answers a TranslateBrowsePathsToNodeIDsRequest.
// Only single-hop RelativePaths resolve; anything longer (or with zero
// elements) always returns StatusBadNoMatch with no targets, the
// "silence is an invitation" scope this core draws around browsing.
func (a *AddressSpace) TranslateBrowsePaths(req *uaservices.TranslateBrowsePathsToNodeIDsRequest) []uaservices.BrowsePathResult {
	results := make([]uaservices.BrowsePathResult, len(req.BrowsePaths))
	for i, bp := range req.BrowsePaths {
		results[i] = a.translateOne(bp)
	}
	return results
}

func (a *AddressSpace) translateOne(bp uaservices.BrowsePath) uaservices.BrowsePathResult {
	if len(bp.Path.Elements) != 1 {
		return uaservices.BrowsePathResult{StatusCode: uatypes.StatusBadNoMatch}
	}
	el := bp.Path.Elements[0]

	a.mu.RLock()
	var candidates []edge
	if el.IsInverse {
		candidates = a.in[bp.StartingNode.Key()]
	} else {
		candidates = a.out[bp.StartingNode.Key()]
	}
	a.mu.RUnlock()

	var targets []uaservices.BrowsePathTarget
	for _, e := range candidates {
		if !e.typeID.Equal(el.ReferenceTypeID) {
			continue
		}
		node, ok := a.Lookup(e.other)
		if !ok {
			continue
		}
		if browseNameOf(node) != el.TargetName {
			continue
		}
		targets = append(targets, uaservices.BrowsePathTarget{
			TargetID:           e.other,
			RemainingPathIndex: uaservices.RemainingPathIndexNone,
		})
	}

	if len(targets) == 0 {
		return uaservices.BrowsePathResult{StatusCode: uatypes.StatusBadNoMatch}
	}
	return uaservices.BrowsePathResult{StatusCode: uatypes.StatusGood, Targets: targets}
}

// browseNameOf extracts a node's BrowseName for the comparison
// translateOne needs; both node types embed commonAttrs, but Node
// itself does not expose BrowseName (not every future Node
// implementation need carry one), so this type-switches on the two
// concrete kinds this package defines.
func browseNameOf(n Node) uatypes.QualifiedName {
	switch t := n.(type) {
	case *Object:
		return t.BrowseName()
	case *Variable:
		return t.BrowseName()
	default:
		return uatypes.QualifiedName{}
	}
}
