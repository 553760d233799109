// Package formcheck validates HTML forms server-side. It discovers form
// controls in a parsed document, matches registered validators to them by CSS
// selector, runs the validators concurrently, and aggregates per-field and
// form-level results with customizable, localizable error messages.
//
// The root package re-exports the common types and wires the typical flow;
// advanced callers can work with pkg/form, pkg/registry, and friends
// directly.
package formcheck

import (
	"context"
	"io"

	"github.com/theflupke/formcheck/pkg/dom"
	"github.com/theflupke/formcheck/pkg/form"
	"github.com/theflupke/formcheck/pkg/messages"
	"github.com/theflupke/formcheck/pkg/registry"
	"github.com/theflupke/formcheck/pkg/validators"
)

// Definition describes one named validator; see registry.Definition.
type Definition = registry.Definition

// Result is the outcome of one validator run.
type Result = registry.Result

// Options carries per-validator configuration.
type Options = registry.Options

// Catalog maps validator names to display messages.
type Catalog = messages.Catalog

// Report is the outcome of a form validation pass.
type Report = form.Report

// Message is one resolved user-facing validation error.
type Message = form.Message

// Option customises a form validator.
type Option = form.Option

// AddValidator registers a validator definition with the process-wide
// registry. Call during startup, before SealValidators.
func AddValidator(def Definition) error {
	return registry.Register(def)
}

// RegisterBuiltins registers the built-in validators (required, email, date,
// number, length, pattern, url) with the process-wide registry.
func RegisterBuiltins() error {
	return validators.RegisterAll(registry.Default())
}

// SealValidators ends the registration phase of the process-wide registry.
func SealValidators() {
	registry.Seal()
}

// New builds a form validator over the container selected inside an already
// parsed document. An empty selector picks the document's first form.
func New(doc *dom.Document, containerSelector string, opts ...Option) (*form.Validator, error) {
	return form.NewForSelector(doc, containerSelector, opts...)
}

// Validate parses an HTML document from r and validates the form selected by
// containerSelector in one call. It is the simplest entry point for callers
// that just want a report.
func Validate(ctx context.Context, r io.Reader, containerSelector string, opts ...Option) (*Report, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	v, err := form.NewForSelector(doc, containerSelector, opts...)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx)
}
