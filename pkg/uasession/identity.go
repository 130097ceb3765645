package uasession

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uareg"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// defaultAnonymousPolicyID is the only identity policy this core ever
// presents or accepts.
const defaultAnonymousPolicyID = "anonPolicy"

// anonymousIdentityToken builds the ExtensionObject envelope Activate
// hands the server when the caller supplies no explicit identity token.
func anonymousIdentityToken() uatypes.ExtensionObject {
	tok := &uaservices.AnonymousIdentityToken{PolicyID: defaultAnonymousPolicyID}
	body := uatypes.NewBuffer()
	if err := tok.EncodeBody(uacodec.NewEncoder(body)); err != nil {
		panic("uasession: encoding AnonymousIdentityToken failed: " + err.Error())
	}
	wireID, ok := uareg.Default.WireIDFor(uaservices.AnonymousIdentityTokenTypeID)
	if !ok {
		panic("uasession: AnonymousIdentityToken not registered")
	}
	return uatypes.ExtensionObject{
		TypeID:   wireID,
		Encoding: uatypes.ExtensionObjectEncodingBinary,
		Body:     body.Bytes(),
	}
}
