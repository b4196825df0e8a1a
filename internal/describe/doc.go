// Package describe runs the per-session description enrichment pipeline.
//
// Each session gets at most one active background task. The task walks the
// session's packages in order, resolving a description for each: authored
// metadata descriptions above a length threshold are kept as-is, otherwise
// the external generator is asked once, and on failure a rule-based fallback
// derived from title keywords and the content sample is used. Cancellation is
// cooperative and checked between items; results accumulated before a cancel
// remain retrievable.
package describe
