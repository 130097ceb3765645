package uaservices

import "github.com/mgorny/opcuago/pkg/uacodec"

// AnonymousIdentityToken is the only user identity this core implements;
// username/certificate tokens are a non-goal. It is carried as the body
// of an ExtensionObject in ActivateSessionRequest.
type AnonymousIdentityToken struct {
	PolicyID string
}

func (t *AnonymousIdentityToken) EncodeBody(e *uacodec.Encoder) error {
	e.PutString(t.PolicyID)
	return nil
}

func (t *AnonymousIdentityToken) DecodeBody(d *uacodec.Decoder) error {
	s, err := d.String()
	if err != nil {
		return err
	}
	t.PolicyID = s
	return nil
}
