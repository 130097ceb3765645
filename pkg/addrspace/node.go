// Package addrspace implements the address space a server exposes: a
// map from NodeId to node objects answering attribute reads and writes,
// plus the reference graph TranslateBrowsePathsToNodeIds walks.
package addrspace

import (
	"sync"

	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Caller identifies the session an attribute access is attributed to.
// A nil *Caller means an internal/unattributed access.
type Caller struct {
	SessionName string
}

// NewCaller builds the Caller value pkg/uaserver passes into
// GetAttribute/SetAttribute once a request's session has been
// resolved.
func NewCaller(sessionName string) *Caller {
	return &Caller{SessionName: sessionName}
}

// Name returns c's session name, or "" for a nil (internal) caller.
func (c *Caller) Name() string {
	if c == nil {
		return ""
	}
	return c.SessionName
}

// Node is anything registered in an AddressSpace under a NodeId: an
// Object or a Variable. GetAttribute/SetAttribute dispatch on the
// attribute set the node's NodeClass supports; unsupported attributes
// return StatusBadAttributeIDInvalid.
type Node interface {
	NodeClass() uaservices.NodeClass

	// GetAttribute reads one attribute's current value. maxAge is the
	// number of milliseconds old a cached value is still allowed to be,
	// per ReadRequest.MaxAge; nodes that cache MAY refresh only when
	// their cached value is older than maxAge.
	GetAttribute(id uaservices.AttributeID, caller *Caller, maxAge float64) (uatypes.DataValue, uatypes.StatusCode)

	// SetAttribute writes one attribute. Nodes that never accept writes
	// (every attribute but Value on a Variable) answer
	// StatusBadNotWritable.
	SetAttribute(id uaservices.AttributeID, caller *Caller, value uatypes.DataValue) uatypes.StatusCode
}

// commonAttrs holds the attribute slots every Node, regardless of
// NodeClass, supports.
type commonAttrs struct {
	mu            sync.RWMutex
	browseName    uatypes.QualifiedName
	displayName   uatypes.LocalizedText
	description   uatypes.LocalizedText
	writeMask     uint32
	userWriteMask uint32
}

func (c *commonAttrs) BrowseName() uatypes.QualifiedName {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.browseName
}

func (c *commonAttrs) get(id uaservices.AttributeID) (uatypes.Variant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch id {
	case uaservices.AttributeBrowseName:
		return qualifiedNameVariant(c.browseName), true
	case uaservices.AttributeDisplayName:
		return localizedTextVariant(c.displayName), true
	case uaservices.AttributeDescription:
		return localizedTextVariant(c.description), true
	case uaservices.AttributeWriteMask:
		return uatypes.NewVariantUInt32(c.writeMask), true
	case uaservices.AttributeUserWriteMask:
		return uatypes.NewVariantUInt32(c.userWriteMask), true
	default:
		return uatypes.Variant{}, false
	}
}

// qualifiedNameVariant and localizedTextVariant project the two
// structured attribute types onto the scalar Variant this core's
// codec implements, carrying just the display-relevant string: a full
// QualifiedName/LocalizedText Variant encoding is out of scope (the
// scalar VariantType set carries no structured tag for either).
func qualifiedNameVariant(q uatypes.QualifiedName) uatypes.Variant {
	return uatypes.NewVariantString(q.Name)
}

func localizedTextVariant(t uatypes.LocalizedText) uatypes.Variant {
	return uatypes.NewVariantString(t.Text)
}
