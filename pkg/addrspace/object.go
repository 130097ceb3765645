package addrspace

import (
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Object is a NodeClassObject node: a pure structural node with no
// Value, only the common attributes plus EventNotifier.
type Object struct {
	commonAttrs
	eventNotifier uint32
}

// NewObject constructs an Object with the given browse/display name.
func NewObject(browseName uatypes.QualifiedName, displayName uatypes.LocalizedText) *Object {
	o := &Object{}
	o.browseName = browseName
	o.displayName = displayName
	return o
}

// SetDescription sets the Description attribute.
func (o *Object) SetDescription(d uatypes.LocalizedText) {
	o.mu.Lock()
	o.description = d
	o.mu.Unlock()
}

func (o *Object) NodeClass() uaservices.NodeClass { return uaservices.NodeClassObject }

func (o *Object) GetAttribute(id uaservices.AttributeID, caller *Caller, maxAge float64) (uatypes.DataValue, uatypes.StatusCode) {
	if id == uaservices.AttributeNodeClass {
		return uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(int32(uaservices.NodeClassObject))), uatypes.StatusGood
	}
	if v, ok := o.commonAttrs.get(id); ok {
		return uatypes.NewDataValueFromVariant(v), uatypes.StatusGood
	}
	if id == uaservices.AttributeEventNotifier {
		o.mu.RLock()
		n := o.eventNotifier
		o.mu.RUnlock()
		return uatypes.NewDataValueFromVariant(uatypes.NewVariantByte(byte(n))), uatypes.StatusGood
	}
	return uatypes.DataValue{}, uatypes.StatusBadAttributeIDInvalid
}

func (o *Object) SetAttribute(id uaservices.AttributeID, caller *Caller, value uatypes.DataValue) uatypes.StatusCode {
	switch id {
	case uaservices.AttributeNodeClass, uaservices.AttributeBrowseName, uaservices.AttributeDisplayName,
		uaservices.AttributeDescription, uaservices.AttributeWriteMask, uaservices.AttributeUserWriteMask,
		uaservices.AttributeEventNotifier:
		return uatypes.StatusBadNotWritable
	default:
		return uatypes.StatusBadAttributeIDInvalid
	}
}
