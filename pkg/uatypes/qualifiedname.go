package uatypes

// QualifiedName is a namespace-scoped name used for BrowseName and, via
// RelativePathElement.TargetName, for browse-path resolution.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

// LocalizedText is a locale/text pair used for DisplayName and Description.
type LocalizedText struct {
	Locale string
	Text   string
}
