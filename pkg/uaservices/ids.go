package uaservices

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uareg"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Every structure's abstract id and binary-encoding wire id live two
// apart, the relationship the one worked example in the wire format
// gives for OpenSecureChannelRequest (abstract 444, wire 446). All ids
// below are in namespace 0.
func id(n uint32) uatypes.NodeID { return uatypes.NewNumericNodeID(0, n) }

func register(abstract, wire uint32, ctor func() uacodec.Structure) {
	uareg.Default.Register(id(abstract), id(wire), ctor)
}

func init() {
	register(444, 446, func() uacodec.Structure { return &OpenSecureChannelRequest{} })
	register(447, 449, func() uacodec.Structure { return &OpenSecureChannelResponse{} })
	register(450, 452, func() uacodec.Structure { return &CloseSecureChannelRequest{} })
	register(453, 455, func() uacodec.Structure { return &CloseSecureChannelResponse{} })

	register(459, 461, func() uacodec.Structure { return &CreateSessionRequest{} })
	register(462, 464, func() uacodec.Structure { return &CreateSessionResponse{} })
	register(465, 467, func() uacodec.Structure { return &ActivateSessionRequest{} })
	register(468, 470, func() uacodec.Structure { return &ActivateSessionResponse{} })
	register(471, 473, func() uacodec.Structure { return &CloseSessionRequest{} })
	register(474, 476, func() uacodec.Structure { return &CloseSessionResponse{} })

	register(629, 631, func() uacodec.Structure { return &ReadRequest{} })
	register(632, 634, func() uacodec.Structure { return &ReadResponse{} })
	register(671, 673, func() uacodec.Structure { return &WriteRequest{} })
	register(674, 676, func() uacodec.Structure { return &WriteResponse{} })

	register(552, 554, func() uacodec.Structure { return &TranslateBrowsePathsToNodeIDsRequest{} })
	register(555, 557, func() uacodec.Structure { return &TranslateBrowsePathsToNodeIDsResponse{} })

	register(319, 321, func() uacodec.Structure { return &AnonymousIdentityToken{} })
}

// Abstract type ids, exported for callers building/dispatching messages
// without constructing a NodeId literal each time.
var (
	OpenSecureChannelRequestTypeID  = id(444)
	OpenSecureChannelResponseTypeID = id(447)
	CloseSecureChannelRequestTypeID  = id(450)
	CloseSecureChannelResponseTypeID = id(453)

	CreateSessionRequestTypeID    = id(459)
	CreateSessionResponseTypeID   = id(462)
	ActivateSessionRequestTypeID  = id(465)
	ActivateSessionResponseTypeID = id(468)
	CloseSessionRequestTypeID     = id(471)
	CloseSessionResponseTypeID    = id(474)

	ReadRequestTypeID  = id(629)
	ReadResponseTypeID = id(632)
	WriteRequestTypeID  = id(671)
	WriteResponseTypeID = id(674)

	TranslateBrowsePathsToNodeIDsRequestTypeID  = id(552)
	TranslateBrowsePathsToNodeIDsResponseTypeID = id(555)

	AnonymousIdentityTokenTypeID = id(319)
)
