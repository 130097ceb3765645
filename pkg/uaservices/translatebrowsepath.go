package uaservices

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// RelativePathElement is one hop of a browse path: follow references of
// ReferenceTypeID (optionally its subtypes, optionally in reverse) to a
// target named TargetName. This core's address space has no reference
// subtyping, so IncludeSubtypes is accepted but has no effect.
type RelativePathElement struct {
	ReferenceTypeID uatypes.NodeID
	IsInverse       bool
	IncludeSubtypes bool
	TargetName      uatypes.QualifiedName
}

func (e *RelativePathElement) encode(enc *uacodec.Encoder) {
	enc.PutNodeID(e.ReferenceTypeID)
	enc.PutBool(e.IsInverse)
	enc.PutBool(e.IncludeSubtypes)
	enc.PutUint16(e.TargetName.NamespaceIndex)
	enc.PutString(e.TargetName.Name)
}

func (e *RelativePathElement) decode(d *uacodec.Decoder) error {
	refType, err := d.NodeID()
	if err != nil {
		return err
	}
	inverse, err := d.Bool()
	if err != nil {
		return err
	}
	includeSub, err := d.Bool()
	if err != nil {
		return err
	}
	ns, err := d.Uint16()
	if err != nil {
		return err
	}
	name, err := d.String()
	if err != nil {
		return err
	}
	e.ReferenceTypeID = refType
	e.IsInverse = inverse
	e.IncludeSubtypes = includeSub
	e.TargetName = uatypes.QualifiedName{NamespaceIndex: ns, Name: name}
	return nil
}

// RelativePath is the hop sequence a BrowsePath walks from its starting
// node. This core only resolves single-hop paths; a path with more
// than one element always resolves with no targets.
type RelativePath struct {
	Elements []RelativePathElement
}

func (p *RelativePath) encode(e *uacodec.Encoder) {
	uacodec.EncodeArray(e, p.Elements, func(e *uacodec.Encoder, el RelativePathElement) { el.encode(e) })
}

func (p *RelativePath) decode(d *uacodec.Decoder) error {
	els, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (RelativePathElement, error) {
		var el RelativePathElement
		err := el.decode(d)
		return el, err
	})
	if err != nil {
		return err
	}
	p.Elements = els
	return nil
}

// BrowsePath names the node a RelativePath should be walked from.
type BrowsePath struct {
	StartingNode uatypes.NodeID
	Path         RelativePath
}

func (bp *BrowsePath) encode(e *uacodec.Encoder) {
	e.PutNodeID(bp.StartingNode)
	bp.Path.encode(e)
}

func (bp *BrowsePath) decode(d *uacodec.Decoder) error {
	id, err := d.NodeID()
	if err != nil {
		return err
	}
	bp.StartingNode = id
	return bp.Path.decode(d)
}

// BrowsePathTarget is one node the walk reached. RemainingPathIndex is
// 0xFFFFFFFF (fully resolved) in every case this core produces, since
// it never partially resolves a path across a server boundary.
type BrowsePathTarget struct {
	TargetID           uatypes.NodeID
	RemainingPathIndex uint32
}

const RemainingPathIndexNone uint32 = 0xFFFFFFFF

func (t *BrowsePathTarget) encode(e *uacodec.Encoder) {
	e.PutNodeID(t.TargetID)
	e.PutUint32(t.RemainingPathIndex)
}

func (t *BrowsePathTarget) decode(d *uacodec.Decoder) error {
	id, err := d.NodeID()
	if err != nil {
		return err
	}
	idx, err := d.Uint32()
	if err != nil {
		return err
	}
	t.TargetID = id
	t.RemainingPathIndex = idx
	return nil
}

// BrowsePathResult is the outcome of walking one BrowsePath: either a
// non-good StatusCode and no targets, or a good status with one or more
// matching targets (more than one only when sibling nodes share a
// browse name, which this core's address space never produces).
type BrowsePathResult struct {
	StatusCode uatypes.StatusCode
	Targets    []BrowsePathTarget
}

func (r *BrowsePathResult) encode(e *uacodec.Encoder) {
	e.PutUint32(uint32(r.StatusCode))
	uacodec.EncodeArray(e, r.Targets, func(e *uacodec.Encoder, t BrowsePathTarget) { t.encode(e) })
}

func (r *BrowsePathResult) decode(d *uacodec.Decoder) error {
	status, err := d.Uint32()
	if err != nil {
		return err
	}
	targets, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (BrowsePathTarget, error) {
		var t BrowsePathTarget
		err := t.decode(d)
		return t, err
	})
	if err != nil {
		return err
	}
	r.StatusCode = uatypes.StatusCode(status)
	r.Targets = targets
	return nil
}

type TranslateBrowsePathsToNodeIDsRequest struct {
	Header      RequestHeader
	BrowsePaths []BrowsePath
}

func (r *TranslateBrowsePathsToNodeIDsRequest) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	uacodec.EncodeArray(e, r.BrowsePaths, func(e *uacodec.Encoder, bp BrowsePath) { bp.encode(e) })
	return nil
}

func (r *TranslateBrowsePathsToNodeIDsRequest) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	paths, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (BrowsePath, error) {
		var bp BrowsePath
		err := bp.decode(d)
		return bp, err
	})
	if err != nil {
		return err
	}
	r.BrowsePaths = paths
	return nil
}

type TranslateBrowsePathsToNodeIDsResponse struct {
	Header  ResponseHeader
	Results []BrowsePathResult
}

func (r *TranslateBrowsePathsToNodeIDsResponse) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	uacodec.EncodeArray(e, r.Results, func(e *uacodec.Encoder, res BrowsePathResult) { res.encode(e) })
	return nil
}

func (r *TranslateBrowsePathsToNodeIDsResponse) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	results, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (BrowsePathResult, error) {
		var res BrowsePathResult
		err := res.decode(d)
		return res, err
	})
	if err != nil {
		return err
	}
	r.Results = results
	return nil
}
