// Package uareg implements the structure registry: a
// process-wide mapping from a structure's abstract type id to a
// constructor for a fresh default instance, plus the forward
// (abstract -> wire) and reverse (wire -> abstract) NodeId maps the
// codec's ExtensionObject handling needs.
package uareg

import (
	"sync"

	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Constructor produces a freshly constructed, zero-valued instance of one
// registered structure type.
type Constructor func() uacodec.Structure

// Registry is the structure registry mapping abstract and wire NodeIds to
// Go constructors for every registered service and nested structure type. Both
// directions of the id map and the constructor table are initialized
// once at program start (via Register) and read-only thereafter; the
// RWMutex still guards every access, with Register taking the write
// lock and lookups the read lock.
type Registry struct {
	mu         sync.RWMutex
	ctors      map[any]Constructor
	wireByAbs  map[any]uatypes.NodeID
	absByWire  map[any]uatypes.NodeID
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		ctors:     make(map[any]Constructor),
		wireByAbs: make(map[any]uatypes.NodeID),
		absByWire: make(map[any]uatypes.NodeID),
	}
}

// Default is the process-wide registry every service structure in
// pkg/uaservices registers itself into, at package init time.
var Default = New()

// Register adds a structure to the registry: abstractID is its stable
// internal type-id; wireID is the distinct binary-encoding NodeId used on
// the wire; ctor produces a
// fresh instance for decoding.
func (r *Registry) Register(abstractID, wireID uatypes.NodeID, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[abstractID.Key()] = ctor
	r.wireByAbs[abstractID.Key()] = wireID
	r.absByWire[wireID.Key()] = abstractID
}

// WireIDFor returns the wire-encoding NodeId registered for abstractID.
func (r *Registry) WireIDFor(abstractID uatypes.NodeID) (uatypes.NodeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.wireByAbs[abstractID.Key()]
	return id, ok
}

// AbstractIDFor returns the abstract type id registered for wireID.
func (r *Registry) AbstractIDFor(wireID uatypes.NodeID) (uatypes.NodeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.absByWire[wireID.Key()]
	return id, ok
}

// New constructs a fresh default instance of the structure registered
// under abstractID.
func (r *Registry) New(abstractID uatypes.NodeID) (uacodec.Structure, bool) {
	r.mu.RLock()
	ctor, ok := r.ctors[abstractID.Key()]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Verify Registry satisfies the codec's lookup seam.
var _ uacodec.TypeRegistry = (*Registry)(nil)
