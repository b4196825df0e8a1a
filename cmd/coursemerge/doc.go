// Command coursemerge merges SCORM course packages into a single archive
// with a generated navigation menu. Packages are collected into sessions via
// `add`, optionally enriched with descriptions via `describe`, and combined
// with `merge`.
package main
