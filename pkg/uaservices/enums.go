// Package uaservices defines the protocol structures built on
// pkg/uacodec and pkg/uatypes: RequestHeader/ResponseHeader and every
// service pair this core implements — OpenSecureChannel, CloseSecureChannel,
// CreateSession, ActivateSession, CloseSession, Read, Write,
// TranslateBrowsePathsToNodeIds.
package uaservices

// SecurityTokenRequestType selects whether OpenSecureChannelRequest
// issues a fresh token or renews the channel's current one.
type SecurityTokenRequestType uint32

const (
	RequestTypeIssue SecurityTokenRequestType = 0
	RequestTypeRenew SecurityTokenRequestType = 1
)

// MessageSecurityMode is the security mode negotiated for a secure
// channel. Only None is implemented by this core;
// Sign/SignAndEncrypt are recognized on the wire but rejected with
// StatusBadSecurityModeRejected.
type MessageSecurityMode uint32

const (
	MessageSecurityModeInvalid        MessageSecurityMode = 0
	MessageSecurityModeNone           MessageSecurityMode = 1
	MessageSecurityModeSign           MessageSecurityMode = 2
	MessageSecurityModeSignAndEncrypt MessageSecurityMode = 3
)

// AttributeID names one attribute slot on a node.
// Numeric values match the protocol's own standard numbering.
type AttributeID uint32

const (
	AttributeNodeClass               AttributeID = 2
	AttributeBrowseName              AttributeID = 3
	AttributeDisplayName             AttributeID = 4
	AttributeDescription             AttributeID = 5
	AttributeWriteMask               AttributeID = 6
	AttributeUserWriteMask           AttributeID = 7
	AttributeEventNotifier           AttributeID = 12
	AttributeValue                   AttributeID = 13
	AttributeDataType                AttributeID = 14
	AttributeValueRank               AttributeID = 15
	AttributeArrayDimensions         AttributeID = 16
	AttributeAccessLevel             AttributeID = 17
	AttributeUserAccessLevel         AttributeID = 18
	AttributeMinimumSamplingInterval AttributeID = 19
	AttributeHistorizing             AttributeID = 20
)

// NodeClass identifies the kind of a Node.
type NodeClass uint32

const (
	NodeClassUnspecified NodeClass = 0
	NodeClassObject      NodeClass = 1
	NodeClassVariable    NodeClass = 2
)

// AccessLevel bit flags describe a Variable's read/write access.
type AccessLevel uint8

const (
	AccessLevelCurrentRead  AccessLevel = 1 << 0
	AccessLevelCurrentWrite AccessLevel = 1 << 1
)
