package addrspace

import (
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// ValueSource produces a Variable's current value on demand. Returning
// a zero Variant and a bad StatusCode reports the value as currently
// unreadable without removing the node.
type ValueSource func() (uatypes.Variant, uatypes.StatusCode)

// Variable is a NodeClassVariable node: the common attributes plus a
// Value and the attributes describing that value's shape and
// accessibility. A Variable is either static (NewVariable, its Value
// held directly and writable through WriteRequest when its accessLevel
// includes AccessLevelCurrentWrite) or computed
// (NewComputedVariable, its Value pulled from a ValueSource and
// optionally cached; computed Variables never accept writes).
type Variable struct {
	commonAttrs

	source      ValueSource
	dataType    uatypes.NodeID
	valueRank   int32
	accessLevel uaservices.AccessLevel
	minSampling float64
	historizing bool

	cacheTTLMillis float64
	value          uatypes.Variant
	status         uatypes.StatusCode
	cachedAt       uatypes.DateTime
	haveReading    bool
}

// NewVariable constructs a static scalar Variable (ValueRank -1, no
// ArrayDimensions) holding initial directly; it accepts writes when
// accessLevel includes AccessLevelCurrentWrite.
func NewVariable(browseName uatypes.QualifiedName, displayName uatypes.LocalizedText, dataType uatypes.NodeID, accessLevel uaservices.AccessLevel, initial uatypes.Variant) *Variable {
	v := &Variable{
		dataType:    dataType,
		valueRank:   -1,
		accessLevel: accessLevel,
		value:       initial,
		status:      uatypes.StatusGood,
		haveReading: true,
	}
	v.browseName = browseName
	v.displayName = displayName
	return v
}

// NewComputedVariable constructs a scalar Variable whose Value is
// pulled from source on every read (or, after WithCache, at most once
// per cacheTTLMillis). A computed Variable always answers
// StatusBadNotWritable to WriteRequest, regardless of accessLevel.
func NewComputedVariable(browseName uatypes.QualifiedName, displayName uatypes.LocalizedText, dataType uatypes.NodeID, accessLevel uaservices.AccessLevel, source ValueSource) *Variable {
	v := &Variable{
		source:      source,
		dataType:    dataType,
		valueRank:   -1,
		accessLevel: accessLevel,
	}
	v.browseName = browseName
	v.displayName = displayName
	return v
}

// WithCache enables read-side caching on a computed Variable: a
// GetAttribute(Value, ...) call reuses the last reading taken from
// source as long as it is no older than the smaller of maxAgeMillis
// and the request's own MaxAge. Has no effect on a static Variable.
func (v *Variable) WithCache(maxAgeMillis float64) *Variable {
	v.cacheTTLMillis = maxAgeMillis
	return v
}

func (v *Variable) NodeClass() uaservices.NodeClass { return uaservices.NodeClassVariable }

func (v *Variable) GetAttribute(id uaservices.AttributeID, caller *Caller, maxAge float64) (uatypes.DataValue, uatypes.StatusCode) {
	if id == uaservices.AttributeNodeClass {
		return uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(int32(uaservices.NodeClassVariable))), uatypes.StatusGood
	}
	if val, ok := v.commonAttrs.get(id); ok {
		return uatypes.NewDataValueFromVariant(val), uatypes.StatusGood
	}
	switch id {
	case uaservices.AttributeValue:
		return v.readValue(maxAge)
	case uaservices.AttributeDataType:
		return uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(int32(v.dataType.Numeric()))), uatypes.StatusGood
	case uaservices.AttributeValueRank:
		return uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(v.valueRank)), uatypes.StatusGood
	case uaservices.AttributeArrayDimensions:
		// Scalar (ValueRank -1): ArrayDimensions carries no value.
		return uatypes.DataValue{Status: uatypes.StatusGood, Presence: uatypes.StatusCodeSpecified}, uatypes.StatusGood
	case uaservices.AttributeAccessLevel:
		return uatypes.NewDataValueFromVariant(uatypes.NewVariantByte(uint8(v.accessLevel))), uatypes.StatusGood
	case uaservices.AttributeUserAccessLevel:
		return uatypes.NewDataValueFromVariant(uatypes.NewVariantByte(uint8(v.accessLevel))), uatypes.StatusGood
	case uaservices.AttributeMinimumSamplingInterval:
		return uatypes.NewDataValueFromVariant(uatypes.NewVariantDouble(v.minSampling)), uatypes.StatusGood
	case uaservices.AttributeHistorizing:
		return uatypes.NewDataValueFromVariant(uatypes.NewVariantBoolean(v.historizing)), uatypes.StatusGood
	default:
		return uatypes.DataValue{}, uatypes.StatusBadAttributeIDInvalid
	}
}

// readValue serves a static Variable's held value directly, or, for a
// computed Variable, applies the caching discipline described on
// WithCache before falling back to source.
func (v *Variable) readValue(maxAge float64) (uatypes.DataValue, uatypes.StatusCode) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.source == nil {
		return dataValueFor(v.value, v.status), v.status
	}

	effectiveTTL := v.cacheTTLMillis
	if maxAge < effectiveTTL {
		effectiveTTL = maxAge
	}

	if effectiveTTL > 0 && v.haveReading {
		ageMillis := float64(uatypes.Now()-v.cachedAt) / 10000
		if ageMillis <= effectiveTTL {
			return dataValueFor(v.value, v.status), v.status
		}
	}

	val, status := v.source()
	v.value = val
	v.status = status
	v.cachedAt = uatypes.Now()
	v.haveReading = true
	return dataValueFor(val, status), status
}

func dataValueFor(val uatypes.Variant, status uatypes.StatusCode) uatypes.DataValue {
	if status.IsBad() {
		return uatypes.NewDataValueFromStatus(status)
	}
	return uatypes.NewDataValueFromVariant(val)
}

func (v *Variable) SetAttribute(id uaservices.AttributeID, caller *Caller, value uatypes.DataValue) uatypes.StatusCode {
	if id != uaservices.AttributeValue {
		return uatypes.StatusBadNotWritable
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.source != nil {
		return uatypes.StatusBadNotWritable
	}
	if v.accessLevel&uaservices.AccessLevelCurrentWrite == 0 {
		return uatypes.StatusBadNotWritable
	}
	if !value.HasValue() {
		return uatypes.StatusBadTypeMismatch
	}
	if v.haveReading && !v.value.IsZero() && !value.Value.SameTypeAs(v.value) {
		return uatypes.StatusBadTypeMismatch
	}

	v.value = value.Value
	v.status = uatypes.StatusGood
	v.haveReading = true
	return uatypes.StatusGood
}
