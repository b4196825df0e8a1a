// Package llm provides the client for the external description generator.
//
// The client talks to an OpenRouter-compatible chat completion endpoint and
// requests JSON-only responses. It deliberately performs no retries: callers
// in the enrichment pipeline treat any failure as a signal to use their
// rule-based fallback description instead, so retrying would only delay the
// fallback without improving the outcome.
package llm
