// Package course defines the package record that flows through the merge
// engine and the validation step that turns an uploaded archive into one.
package course

import (
	"strings"

	"coursemerge/internal/archive"
	"coursemerge/internal/manifest"
	"coursemerge/internal/sampler"
	"coursemerge/internal/textutil"
)

// UntitledPackage is the operator-facing title for packages whose manifest
// carried a metadata block without a title.
const UntitledPackage = "Untitled SCORM Package"

// Package is one uploaded course archive, parsed and ready for enrichment and
// merging. Records with a non-empty Error are excluded from merge.
type Package struct {
	Identifier    string
	Title         string
	Version       string
	Description   string
	Filename      string
	Path          string
	Organizations []manifest.Organization
	Resources     []manifest.Resource
	ContentSample string
	Error         string
}

// Excluded reports whether the package failed validation and must be skipped
// by the merge.
func (p *Package) Excluded() bool {
	return p.Error != ""
}

// DisplayTitle computes the title shown to operators. When the stored title is
// a sentinel default, a friendlier title is derived from the upload filename;
// the stored title itself never changes.
func (p *Package) DisplayTitle() string {
	if !isSentinelTitle(p.Title) {
		return p.Title
	}
	if derived := textutil.TitleFromFilename(p.Filename); derived != "" {
		return derived
	}
	return p.Title
}

func isSentinelTitle(title string) bool {
	switch title {
	case manifest.DefaultTitle, manifest.DefaultTitleNoMeta, UntitledPackage:
		return true
	}
	return false
}

// ValidateAndParsePackage opens the archive at archivePath, parses its
// root-level imsmanifest.xml, and samples its markup content. It fails with a
// ParseError when the manifest is missing or malformed; sampling never fails.
func ValidateAndParsePackage(archivePath, filename string, samplerOpts sampler.Options) (*Package, error) {
	reader, err := archive.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	entries := reader.Entries()
	manifestData, found := rootManifest(entries)
	if !found {
		return nil, manifest.NewParseError(manifest.ReasonNoManifest)
	}

	parsed, err := manifest.Parse(manifestData)
	if err != nil {
		return nil, err
	}

	title := parsed.Title
	if title == manifest.DefaultTitle {
		title = UntitledPackage
	}

	return &Package{
		Identifier:    parsed.Identifier,
		Title:         title,
		Version:       parsed.SchemaVersion,
		Description:   parsed.Description,
		Filename:      filename,
		Path:          archivePath,
		Organizations: parsed.Organizations,
		Resources:     parsed.Resources,
		ContentSample: sampler.Sample(entries, samplerOpts),
	}, nil
}

// rootManifest finds the manifest entry at the archive root. Entries inside
// subdirectories do not count; a package nested one level down is invalid.
func rootManifest(entries []archive.Entry) ([]byte, bool) {
	for _, entry := range entries {
		if entry.Dir || strings.Contains(entry.Name, "/") {
			continue
		}
		if strings.EqualFold(entry.Name, "imsmanifest.xml") {
			data, err := entry.ReadAll()
			if err != nil {
				return nil, false
			}
			return data, true
		}
	}
	return nil, false
}
