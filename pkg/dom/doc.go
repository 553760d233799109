// Package dom provides read access to a parsed HTML tree for form validation:
// field discovery by CSS selector, per-control value extraction, label
// resolution, and radio-group bookkeeping kept in a side-table so the
// underlying nodes are never mutated beyond explicit attribute writes.
package dom
