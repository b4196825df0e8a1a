// Package textutil provides small text normalization helpers shared across
// the merge engine: filesystem-safe tokens and human-friendly display titles
// derived from upload filenames.
package textutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// TitleFromFilename derives a display title from an uploaded archive name.
// The extension is dropped, separators become spaces, version-like trailing
// tokens such as "v2" are kept as-is, and the result is title-cased.
func TitleFromFilename(filename string) string {
	base := strings.TrimSpace(filepath.Base(filename))
	if base == "" || base == "." {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	replacer := strings.NewReplacer("_", " ", "-", " ", ".", " ")
	cleaned := strings.Join(strings.Fields(replacer.Replace(base)), " ")
	if cleaned == "" {
		return ""
	}
	return titleCaser.String(cleaned)
}

// CleanTitle normalizes a package title for use inside generated prose:
// whitespace is collapsed and any archive extension left over from a
// filename-derived title is removed.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, ext := range []string{".zip", ".pif"} {
		if strings.HasSuffix(strings.ToLower(title), ext) {
			title = title[:len(title)-len(ext)]
		}
	}
	return strings.Join(strings.Fields(title), " ")
}
