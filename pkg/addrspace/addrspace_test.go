package addrspace

import (
	"testing"

	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

func boolDataType() uatypes.NodeID { return uatypes.NewNumericNodeID(0, 1) }

func TestReadStaticVariableValueSpecified(t *testing.T) {
	space := New()
	id := uatypes.NewNumericNodeID(1, 1)
	v := NewVariable(
		uatypes.QualifiedName{NamespaceIndex: 1, Name: "Switch"},
		uatypes.LocalizedText{Locale: "en", Text: "Switch"},
		boolDataType(),
		uaservices.AccessLevelCurrentRead|uaservices.AccessLevelCurrentWrite,
		uatypes.NewVariantBoolean(true),
	)
	space.AddNode(id, v)

	req := &uaservices.ReadRequest{
		NodesToRead: []uaservices.ReadValueID{{NodeID: id, AttributeID: uaservices.AttributeValue}},
	}
	results := space.Read(req, nil)
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if !results[0].HasValue() {
		t.Fatalf("result has no value: %+v", results[0])
	}
	b, ok := results[0].Value.Bool()
	if !ok || !b {
		t.Fatalf("value = %v, %v; want true, true", b, ok)
	}
}

func TestReadUnknownNodeIsBadNodeIdUnknown(t *testing.T) {
	space := New()
	req := &uaservices.ReadRequest{
		NodesToRead: []uaservices.ReadValueID{{NodeID: uatypes.NewNumericNodeID(1, 99), AttributeID: uaservices.AttributeValue}},
	}
	results := space.Read(req, nil)
	if results[0].Status != uatypes.StatusBadNodeIdUnknown {
		t.Fatalf("status = %v, want BadNodeIdUnknown", results[0].Status)
	}
}

func TestWriteRejectsTypeMismatch(t *testing.T) {
	space := New()
	id := uatypes.NewNumericNodeID(1, 1)
	v := NewVariable(
		uatypes.QualifiedName{NamespaceIndex: 1, Name: "Switch"},
		uatypes.LocalizedText{},
		boolDataType(),
		uaservices.AccessLevelCurrentRead|uaservices.AccessLevelCurrentWrite,
		uatypes.NewVariantBoolean(true),
	)
	space.AddNode(id, v)

	req := &uaservices.WriteRequest{
		NodesToWrite: []uaservices.WriteValue{{
			NodeID:      id,
			AttributeID: uaservices.AttributeValue,
			Value:       uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(7)),
		}},
	}
	results := space.Write(req, nil)
	if results[0] != uatypes.StatusBadTypeMismatch {
		t.Fatalf("status = %v, want BadTypeMismatch", results[0])
	}
}

func TestWriteRejectsReadOnlyAccessLevel(t *testing.T) {
	space := New()
	id := uatypes.NewNumericNodeID(1, 1)
	v := NewVariable(
		uatypes.QualifiedName{NamespaceIndex: 1, Name: "Switch"},
		uatypes.LocalizedText{},
		boolDataType(),
		uaservices.AccessLevelCurrentRead,
		uatypes.NewVariantBoolean(true),
	)
	space.AddNode(id, v)

	req := &uaservices.WriteRequest{
		NodesToWrite: []uaservices.WriteValue{{
			NodeID:      id,
			AttributeID: uaservices.AttributeValue,
			Value:       uatypes.NewDataValueFromVariant(uatypes.NewVariantBoolean(false)),
		}},
	}
	results := space.Write(req, nil)
	if results[0] != uatypes.StatusBadNotWritable {
		t.Fatalf("status = %v, want BadNotWritable", results[0])
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	space := New()
	id := uatypes.NewNumericNodeID(1, 1)
	v := NewVariable(
		uatypes.QualifiedName{NamespaceIndex: 1, Name: "Switch"},
		uatypes.LocalizedText{},
		boolDataType(),
		uaservices.AccessLevelCurrentRead|uaservices.AccessLevelCurrentWrite,
		uatypes.NewVariantBoolean(true),
	)
	space.AddNode(id, v)

	writeReq := &uaservices.WriteRequest{
		NodesToWrite: []uaservices.WriteValue{{
			NodeID:      id,
			AttributeID: uaservices.AttributeValue,
			Value:       uatypes.NewDataValueFromVariant(uatypes.NewVariantBoolean(false)),
		}},
	}
	if results := space.Write(writeReq, nil); results[0] != uatypes.StatusGood {
		t.Fatalf("write status = %v, want Good", results[0])
	}

	readReq := &uaservices.ReadRequest{
		NodesToRead: []uaservices.ReadValueID{{NodeID: id, AttributeID: uaservices.AttributeValue}},
	}
	results := space.Read(readReq, nil)
	b, _ := results[0].Value.Bool()
	if b {
		t.Fatalf("value = true, want false after write")
	}
}

func TestComputedVariableNeverAcceptsWrite(t *testing.T) {
	space := New()
	id := uatypes.NewNumericNodeID(1, 2)
	calls := 0
	v := NewComputedVariable(
		uatypes.QualifiedName{NamespaceIndex: 1, Name: "Clock"},
		uatypes.LocalizedText{},
		uatypes.NewNumericNodeID(0, 11),
		uaservices.AccessLevelCurrentRead,
		func() (uatypes.Variant, uatypes.StatusCode) {
			calls++
			return uatypes.NewVariantDouble(float64(calls)), uatypes.StatusGood
		},
	)
	space.AddNode(id, v)

	writeReq := &uaservices.WriteRequest{
		NodesToWrite: []uaservices.WriteValue{{
			NodeID:      id,
			AttributeID: uaservices.AttributeValue,
			Value:       uatypes.NewDataValueFromVariant(uatypes.NewVariantDouble(9)),
		}},
	}
	if results := space.Write(writeReq, nil); results[0] != uatypes.StatusBadNotWritable {
		t.Fatalf("status = %v, want BadNotWritable", results[0])
	}
}

func TestComputedVariableCacheServesWithinTTL(t *testing.T) {
	space := New()
	id := uatypes.NewNumericNodeID(1, 3)
	calls := 0
	v := NewComputedVariable(
		uatypes.QualifiedName{NamespaceIndex: 1, Name: "Counter"},
		uatypes.LocalizedText{},
		uatypes.NewNumericNodeID(0, 6),
		uaservices.AccessLevelCurrentRead,
		func() (uatypes.Variant, uatypes.StatusCode) {
			calls++
			return uatypes.NewVariantInt32(int32(calls)), uatypes.StatusGood
		},
	).WithCache(60000)
	space.AddNode(id, v)

	req := &uaservices.ReadRequest{
		MaxAge:      60000,
		NodesToRead: []uaservices.ReadValueID{{NodeID: id, AttributeID: uaservices.AttributeValue}},
	}
	first := space.Read(req, nil)
	second := space.Read(req, nil)
	if calls != 1 {
		t.Fatalf("source called %d times, want 1 (second read should be served from cache)", calls)
	}
	v1, _ := first[0].Value.Int32()
	v2, _ := second[0].Value.Int32()
	if v1 != v2 {
		t.Fatalf("cached reads differ: %d != %d", v1, v2)
	}
}

func TestTranslateBrowsePathSingleHop(t *testing.T) {
	space := New()
	root := uatypes.NewNumericNodeID(0, 85)
	child := uatypes.NewNumericNodeID(1, 1)
	space.AddNode(root, NewObject(uatypes.QualifiedName{Name: "Objects"}, uatypes.LocalizedText{}))
	space.AddNode(child, NewObject(uatypes.QualifiedName{NamespaceIndex: 1, Name: "Switch"}, uatypes.LocalizedText{}))
	space.AddReference(root, ReferenceTypeOrganizes, child)

	req := &uaservices.TranslateBrowsePathsToNodeIDsRequest{
		BrowsePaths: []uaservices.BrowsePath{{
			StartingNode: root,
			Path: uaservices.RelativePath{Elements: []uaservices.RelativePathElement{{
				ReferenceTypeID: ReferenceTypeOrganizes,
				TargetName:      uatypes.QualifiedName{NamespaceIndex: 1, Name: "Switch"},
			}}},
		}},
	}
	results := space.TranslateBrowsePaths(req)
	if results[0].StatusCode != uatypes.StatusGood {
		t.Fatalf("status = %v, want Good", results[0].StatusCode)
	}
	if len(results[0].Targets) != 1 || !results[0].Targets[0].TargetID.Equal(child) {
		t.Fatalf("targets = %+v, want [%v]", results[0].Targets, child)
	}
}

func TestTranslateBrowsePathMultiHopAlwaysNoMatch(t *testing.T) {
	space := New()
	req := &uaservices.TranslateBrowsePathsToNodeIDsRequest{
		BrowsePaths: []uaservices.BrowsePath{{
			StartingNode: uatypes.NewNumericNodeID(0, 85),
			Path: uaservices.RelativePath{Elements: []uaservices.RelativePathElement{
				{ReferenceTypeID: ReferenceTypeOrganizes, TargetName: uatypes.QualifiedName{Name: "A"}},
				{ReferenceTypeID: ReferenceTypeHasComponent, TargetName: uatypes.QualifiedName{Name: "B"}},
			}},
		}},
	}
	results := space.TranslateBrowsePaths(req)
	if results[0].StatusCode != uatypes.StatusBadNoMatch {
		t.Fatalf("status = %v, want BadNoMatch", results[0].StatusCode)
	}
}
