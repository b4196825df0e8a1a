// Package sessions persists uploaded package records per merge session in a
// SQLite database under the work directory. The CLI uses it to carry a
// session's packages between add, describe, and merge invocations.
package sessions
