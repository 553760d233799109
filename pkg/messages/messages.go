// Package messages resolves user-facing validation messages. A message for a
// failing validator is looked up through a fixed precedence chain: a catalog
// forced at retrieval time, per-validator and field-wide attribute overrides
// on the control itself, the configured global catalog (including its
// "default" entry), and finally the raw validator name.
//
// Catalogs can be loaded from YAML or JSON files and grouped per locale;
// override strings are sanitized so markup smuggled through attributes or
// config files never reaches the page.
package messages

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/theflupke/formcheck/pkg/dom"
)

// DefaultKey is the catalog entry used when no validator-specific entry
// exists.
const DefaultKey = "default"

// DefaultAttrPrefix is the attribute naming convention for inline overrides:
// the bare prefix sets a field-wide default message, "<prefix>-<validator>"
// overrides one validator.
const DefaultAttrPrefix = "data-error-label"

// Catalog maps validator names (plus the "default" key) to display strings.
type Catalog map[string]string

var sanitizePolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup from a message override, leaving plain text.
func SanitizeText(s string) string {
	return strings.TrimSpace(sanitizePolicy.Sanitize(s))
}

// Sanitized returns a copy of the catalog with every entry sanitized. Empty
// entries after sanitization are dropped.
func (c Catalog) Sanitized() Catalog {
	if len(c) == 0 {
		return nil
	}
	out := make(Catalog, len(c))
	for key, value := range c {
		if clean := SanitizeText(value); clean != "" {
			out[key] = clean
		}
	}
	return out
}

// Merge overlays other on top of c, returning a new catalog. Entries in
// other win.
func (c Catalog) Merge(other Catalog) Catalog {
	out := make(Catalog, len(c)+len(other))
	for key, value := range c {
		out[key] = value
	}
	for key, value := range other {
		out[key] = value
	}
	return out
}

// Resolver implements the precedence chain for one form's configuration.
type Resolver struct {
	prefix  string
	catalog Catalog
}

// NewResolver builds a resolver over the global catalog. An empty prefix
// falls back to DefaultAttrPrefix; the catalog may be nil.
func NewResolver(prefix string, catalog Catalog) *Resolver {
	if prefix == "" {
		prefix = DefaultAttrPrefix
	}
	return &Resolver{prefix: prefix, catalog: catalog.Sanitized()}
}

// Prefix returns the inline override attribute prefix.
func (r *Resolver) Prefix() string {
	return r.prefix
}

// Resolve returns the display message for a failing validator on a control.
// Precedence, highest first: forced catalog entry, per-validator attribute,
// field default attribute, global catalog entry by name then by DefaultKey,
// and the validator name itself.
func (r *Resolver) Resolve(field *dom.FieldRef, validatorName string, forced Catalog) string {
	if message, ok := lookup(forced, validatorName); ok {
		return message
	}

	if field != nil {
		if raw, ok := field.Attr(r.prefix + "-" + validatorName); ok {
			if clean := SanitizeText(raw); clean != "" {
				return clean
			}
		}
		if raw, ok := field.Attr(r.prefix); ok {
			if clean := SanitizeText(raw); clean != "" {
				return clean
			}
		}
	}

	if message, ok := lookup(r.catalog, validatorName); ok {
		return message
	}
	return validatorName
}

func lookup(catalog Catalog, name string) (string, bool) {
	if len(catalog) == 0 {
		return "", false
	}
	if message := strings.TrimSpace(catalog[name]); message != "" {
		return message, true
	}
	if message := strings.TrimSpace(catalog[DefaultKey]); message != "" {
		return message, true
	}
	return "", false
}
