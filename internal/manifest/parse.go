package manifest

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/google/uuid"
)

// maxDepth bounds tree construction against maliciously nested input.
// Elements beyond the bound are skipped, not an error.
const maxDepth = 64

// Title defaults. The bare sentinel applies when a metadata block exists but
// carries no title; the package default applies when there is no metadata
// block at all.
const (
	DefaultTitle          = "Untitled"
	DefaultTitleNoMeta    = "Untitled Package"
	DefaultSchemaVersion  = "Unknown"
	generatedIDPrefix     = "MANIFEST-"
	organizationsElemName = "organizations"
)

// titleProbes lists metadata element paths checked in priority order: the
// SCORM 1.2 LOM leaf first, then the IEEE LOM leaf used by SCORM 2004.
var titleProbes = [][]string{
	{"metadata", "lom", "general", "title", "langstring"},
	{"metadata", "lom", "general", "title", "string"},
}

var descriptionProbes = [][]string{
	{"metadata", "lom", "general", "description", "langstring"},
	{"metadata", "lom", "general", "description", "string"},
}

// Parse converts manifest XML into a normalized record. It fails only when
// the document is not well-formed; missing optional structure yields empty
// fields, never an error.
func Parse(data []byte) (*Manifest, error) {
	root, err := parseTree(data)
	if err != nil || root == nil {
		return nil, NewParseError(ReasonMalformed)
	}

	m := &Manifest{}

	m.Identifier = strings.TrimSpace(root.attr("identifier"))
	if m.Identifier == "" {
		m.Identifier = generatedIDPrefix + uuid.NewString()
		m.GeneratedIdentifier = true
	}

	meta := root.child("metadata")
	m.HasMetadata = meta != nil
	if meta != nil {
		m.SchemaVersion = meta.childText("schemaversion")
	}
	if m.SchemaVersion == "" {
		m.SchemaVersion = DefaultSchemaVersion
	}

	m.Title = probe(root, titleProbes)
	if m.Title == "" {
		if m.HasMetadata {
			m.Title = DefaultTitle
		} else {
			m.Title = DefaultTitleNoMeta
		}
	}
	m.Description = probe(root, descriptionProbes)

	if orgs := root.child(organizationsElemName); orgs != nil {
		for _, org := range orgs.childrenNamed("organization") {
			m.Organizations = append(m.Organizations, Organization{
				Identifier: strings.TrimSpace(org.attr("identifier")),
				Title:      org.childText("title"),
				Items:      parseItems(org, 0),
			})
		}
	}

	if res := root.child("resources"); res != nil {
		for _, r := range res.childrenNamed("resource") {
			resource := Resource{
				Identifier: strings.TrimSpace(r.attr("identifier")),
				Type:       strings.TrimSpace(r.attr("type")),
				Href:       strings.TrimSpace(r.attr("href")),
			}
			for _, f := range r.childrenNamed("file") {
				if href := strings.TrimSpace(f.attr("href")); href != "" {
					resource.Files = append(resource.Files, href)
				}
			}
			m.Resources = append(m.Resources, resource)
		}
	}

	return m, nil
}

func parseItems(parent *node, depth int) []Item {
	if depth >= maxDepth {
		return nil
	}
	var items []Item
	for _, child := range parent.childrenNamed("item") {
		items = append(items, Item{
			Identifier:  strings.TrimSpace(child.attr("identifier")),
			Title:       child.childText("title"),
			ResourceRef: strings.TrimSpace(child.attr("identifierref")),
			Items:       parseItems(child, depth+1),
		})
	}
	return items
}

func probe(root *node, paths [][]string) string {
	for _, path := range paths {
		if found := root.descend(path); found != nil {
			if text := found.text(); text != "" {
				return text
			}
		}
	}
	return ""
}

// node is a namespace-agnostic element tree. Only local names are kept.
type node struct {
	name     string
	attrs    []xml.Attr
	content  strings.Builder
	children []*node
}

func parseTree(data []byte) (*node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	// Tolerate legacy single-byte encodings declared by old authoring tools;
	// local names and attribute values survive a pass-through read.
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root *node
	stack := make([]*node, 0, 8)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch tok := token.(type) {
		case xml.StartElement:
			if len(stack) >= maxDepth {
				if err := decoder.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			n := &node{name: strings.ToLower(tok.Name.Local), attrs: tok.Attr}
			if len(stack) == 0 {
				if root != nil {
					// Multiple roots are not well-formed.
					return nil, xml.UnmarshalError("multiple document elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].content.Write(tok)
			}
		}
	}
	if root == nil {
		return nil, xml.UnmarshalError("no document element")
	}
	return root, nil
}

func (n *node) attr(local string) string {
	for _, attr := range n.attrs {
		if strings.EqualFold(attr.Name.Local, local) {
			return attr.Value
		}
	}
	return ""
}

func (n *node) child(local string) *node {
	for _, child := range n.children {
		if child.name == local {
			return child
		}
	}
	return nil
}

func (n *node) childrenNamed(local string) []*node {
	var out []*node
	for _, child := range n.children {
		if child.name == local {
			out = append(out, child)
		}
	}
	return out
}

func (n *node) descend(path []string) *node {
	current := n
	for _, name := range path {
		current = current.child(name)
		if current == nil {
			return nil
		}
	}
	return current
}

func (n *node) text() string {
	return strings.TrimSpace(n.content.String())
}

func (n *node) childText(local string) string {
	if child := n.child(local); child != nil {
		return child.text()
	}
	return ""
}
