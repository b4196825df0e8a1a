// Package manifest parses imsmanifest.xml files into normalized records.
//
// Manifests in the wild span several SCORM/LOM metadata dialects; the parser
// probes known element paths by local name so namespace prefixes never matter,
// and treats missing optional structure as empty rather than an error.
package manifest

import "errors"

// Manifest is the normalized form of a package manifest.
type Manifest struct {
	Identifier    string
	Title         string
	Description   string
	SchemaVersion string
	Organizations []Organization
	Resources     []Resource

	// HasMetadata records whether a metadata block was present at all; the
	// title default differs in that case.
	HasMetadata bool
	// GeneratedIdentifier is true when no identifier attribute was found and
	// a random one was minted. Generated identifiers are not stable across
	// reparse.
	GeneratedIdentifier bool
}

// Organization is a named navigation tree.
type Organization struct {
	Identifier string
	Title      string
	Items      []Item
}

// Item is one navigation node; items nest recursively.
type Item struct {
	Identifier  string
	Title       string
	ResourceRef string
	Items       []Item
}

// Resource points at deliverable content inside the package.
type Resource struct {
	Identifier string
	Type       string
	Href       string
	Files      []string
}

// ParseError reports why a package could not be parsed. Upload handling
// records the reason on the package instead of failing the whole batch.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return e.Reason
}

// NewParseError builds a ParseError with the given reason.
func NewParseError(reason string) *ParseError {
	return &ParseError{Reason: reason}
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parse failure reasons observed by callers.
const (
	ReasonNoManifest = "package has no imsmanifest.xml at its root"
	ReasonMalformed  = "imsmanifest.xml is not well-formed XML"
)
