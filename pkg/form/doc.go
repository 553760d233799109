// Package form orchestrates validation of one HTML form: it discovers the
// container's controls, wraps each control (or radio group) in a Field,
// resolves applicable validators from the registry, runs them concurrently
// behind an all-settle barrier, and aggregates per-field and form-level
// verdicts with resolved error messages.
package form
