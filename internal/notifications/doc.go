// Package notifications delivers merge workflow events via ntfy.
//
// The service publishes to the topic configured in config.toml and degrades
// to a no-op when no topic is set, so callers never need to guard their
// notification calls. All workflow code depends only on the Service
// interface; swap the implementation if another transport is needed.
package notifications
