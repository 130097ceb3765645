package uachannel

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
)

// NoneSecurityPolicyURI is the only security policy this core issues or
// accepts; SIGN/SIGN_AND_ENCRYPT are non-goals (spec §1).
const NoneSecurityPolicyURI = "http://opcfoundation.org/UA/SecurityPolicy#None"

// AsymmetricAlgorithmSecurityHeader precedes the body of an OPN message.
// Certificates are always empty under SecurityMode None.
type AsymmetricAlgorithmSecurityHeader struct {
	SecurityPolicyURI            string
	SenderCertificate             []byte
	ReceiverCertificateThumbprint []byte
}

func (h *AsymmetricAlgorithmSecurityHeader) encode(e *uacodec.Encoder) {
	e.PutString(h.SecurityPolicyURI)
	e.PutBytes(h.SenderCertificate)
	e.PutBytes(h.ReceiverCertificateThumbprint)
}

func decodeAsymmetricHeader(d *uacodec.Decoder) (AsymmetricAlgorithmSecurityHeader, error) {
	var h AsymmetricAlgorithmSecurityHeader
	uri, err := d.String()
	if err != nil {
		return h, err
	}
	sender, err := d.Bytes()
	if err != nil {
		return h, err
	}
	thumb, err := d.Bytes()
	if err != nil {
		return h, err
	}
	h.SecurityPolicyURI = uri
	h.SenderCertificate = sender
	h.ReceiverCertificateThumbprint = thumb
	return h, nil
}

// SymmetricAlgorithmSecurityHeader precedes the body of MSG/CLO messages.
type SymmetricAlgorithmSecurityHeader struct {
	TokenID uint32
}

func (h *SymmetricAlgorithmSecurityHeader) encode(e *uacodec.Encoder) {
	e.PutUint32(h.TokenID)
}

func decodeSymmetricHeader(d *uacodec.Decoder) (SymmetricAlgorithmSecurityHeader, error) {
	id, err := d.Uint32()
	if err != nil {
		return SymmetricAlgorithmSecurityHeader{}, err
	}
	return SymmetricAlgorithmSecurityHeader{TokenID: id}, nil
}

// SequenceHeader is present once per chunk: a strictly-increasing
// sequence number plus the request id correlating chunks of one
// logical message.
type SequenceHeader struct {
	SequenceNumber uint32
	RequestID      uint32
}

func (h *SequenceHeader) encode(e *uacodec.Encoder) {
	e.PutUint32(h.SequenceNumber)
	e.PutUint32(h.RequestID)
}

func decodeSequenceHeader(d *uacodec.Decoder) (SequenceHeader, error) {
	seq, err := d.Uint32()
	if err != nil {
		return SequenceHeader{}, err
	}
	reqID, err := d.Uint32()
	if err != nil {
		return SequenceHeader{}, err
	}
	return SequenceHeader{SequenceNumber: seq, RequestID: reqID}, nil
}
