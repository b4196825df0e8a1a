// Package merge assembles an ordered set of parsed course packages into a
// single SCORM archive: a synthesized root manifest, a generated menu
// (markup, script, stylesheet), and one namespaced folder per package whose
// markup files carry an injected finish handler that routes course exits back
// to the menu.
package merge
