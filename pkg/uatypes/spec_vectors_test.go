package uatypes

import (
	"bytes"
	"testing"
)

// Literal encoding scenarios from spec §8 that land inside uatypes
// (the codec-level scenarios — String, Boolean, UInt32 framing — live in
// pkg/uacodec where the wire format is actually produced).

func TestSpecVectorGUID(t *testing.T) {
	g, err := ParseGUID("72962B91-FA75-4AE6-8D28-B404DC7DAF63")
	if err != nil {
		t.Fatalf("ParseGUID: %v", err)
	}

	want := []byte{
		0x91, 0x2B, 0x96, 0x72,
		0x75, 0xFA,
		0xE6, 0x4A,
		0x8D, 0x28, 0xB4, 0x04, 0xDC, 0x7D, 0xAF, 0x63,
	}

	buf := make([]byte, GUIDSize)
	g.EncodeTo(buf)
	if !bytes.Equal(buf, want) {
		t.Fatalf("EncodeTo = %#v, want %#v", buf, want)
	}

	got, err := DecodeGUID(want)
	if err != nil {
		t.Fatalf("DecodeGUID: %v", err)
	}
	if got != g {
		t.Fatalf("DecodeGUID round-trip mismatch: got %s, want %s", got, g)
	}
}

func TestNodeIDNumericWireForm(t *testing.T) {
	cases := []struct {
		id   NodeID
		want NumericWireForm
	}{
		{NewNumericNodeID(0, 0x72), WireFormTwoByte},
		{NewNumericNodeID(5, 1025), WireFormFourByte},
		{NewNumericNodeID(5, 100000), WireFormNumeric},
		{NewNumericNodeID(300, 1), WireFormNumeric},
	}
	for _, c := range cases {
		if got := c.id.NumericWireForm(); got != c.want {
			t.Errorf("%v.NumericWireForm() = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestNodeIDEquality(t *testing.T) {
	a := NewStringNodeID(1, "Hot水")
	b := NewStringNodeID(1, "Hot水")
	c := NewStringNodeID(1, "other")

	if !a.Equal(b) {
		t.Fatalf("expected equal NodeIds")
	}
	if a.Equal(c) {
		t.Fatalf("expected unequal NodeIds")
	}
	if a.Equal(NewNumericNodeID(1, 0)) {
		t.Fatalf("cross-type NodeIds must not compare equal")
	}
}

func TestDateTimeClampsNegative(t *testing.T) {
	d := DateTime(-100)
	if d.Ticks() != 0 {
		t.Fatalf("Ticks() = %d, want 0", d.Ticks())
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	now := Now()
	back := FromTime(now.ToTime())
	// Sub-100ns precision is lost on the wire; allow for truncation.
	if back < now-1 || back > now+1 {
		t.Fatalf("round trip drifted: %d vs %d", now, back)
	}
}
