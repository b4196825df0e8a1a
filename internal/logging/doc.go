// Package logging wires log/slog with the two output formats coursemerge
// supports: a compact console format for interactive use and JSON for log
// shipping. Components obtain prefixed loggers via NewComponentLogger.
package logging
