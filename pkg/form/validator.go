package form

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/theflupke/formcheck/pkg/dom"
)

// Validator orchestrates validation for one container element. It owns the
// discovered Fields in document order, guarded by a run flag so only one
// top-level validation pass is in flight at a time.
type Validator struct {
	doc       *dom.Document
	container *html.Node
	cfg       config
	fields    []*Field
	running   atomic.Bool
}

// Report is the outcome of a validation pass: every validated field plus the
// failing subset, both in document order.
type Report struct {
	Fields    []*Field
	Failing   []*Field
	Container *html.Node
}

// Valid reports whether the pass found no failing field.
func (r *Report) Valid() bool {
	return r != nil && len(r.Failing) == 0
}

// New builds a Validator over the container element, discovers its fields,
// and marks the container as exempt from native browser validation by
// setting the novalidate attribute.
func New(doc *dom.Document, container *html.Node, opts ...Option) (*Validator, error) {
	if doc == nil {
		return nil, errors.New("form: document is required")
	}
	if container == nil {
		return nil, errors.New("form: container element is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	v := &Validator{doc: doc, container: container, cfg: cfg}
	dom.SetAttr(container, "novalidate", "novalidate")

	if err := v.Refresh(); err != nil {
		return nil, err
	}
	return v, nil
}

// NewForSelector is a convenience constructor resolving the container by CSS
// selector, defaulting to the document's first form element.
func NewForSelector(doc *dom.Document, selector string, opts ...Option) (*Validator, error) {
	if selector == "" {
		selector = "form"
	}
	container, err := doc.Query(selector)
	if err != nil {
		return nil, fmt.Errorf("form: resolve container: %w", err)
	}
	return New(doc, container, opts...)
}

// Refresh re-scans the container for candidate fields, drops the ones
// matching the filter selector, deduplicates radio groups so each group
// yields exactly one Field, and fully replaces the previous field list.
func (v *Validator) Refresh() error {
	nodes, err := v.doc.QueryAll(v.container, v.cfg.fieldsSelector)
	if err != nil {
		return err
	}

	var filter func(*html.Node) bool
	if v.cfg.filterSelector != "" {
		sel, err := dom.CompileSelector(v.cfg.filterSelector)
		if err != nil {
			return err
		}
		filter = sel.Match
	}

	fields := make([]*Field, 0, len(nodes))
	seenRadioGroups := make(map[string]struct{})
	for _, node := range nodes {
		if filter != nil && filter(node) {
			continue
		}
		ref := dom.NewFieldRef(v.doc, node, v.container)
		if ref.IsRadio() {
			if name := ref.Name(); name != "" {
				if _, seen := seenRadioGroups[name]; seen {
					continue
				}
				seenRadioGroups[name] = struct{}{}
			}
		}
		fields = append(fields, newField(ref, v.cfg))
	}

	v.fields = fields
	return nil
}

// Update is an alias for Refresh, matching the terminology some callers use
// for re-scanning after the tree changed.
func (v *Validator) Update() error {
	return v.Refresh()
}

// Validate runs every field's validators concurrently, waits for all of
// them, and partitions the fields into valid and failing. When any field
// fails, the OnInvalidate callback fires and the report is returned alongside
// an *InvalidError. Internal validator failures settle the pass with an
// *InternalError instead of stalling the caller. A call made while another
// pass is in flight starts nothing and returns ErrValidationRunning.
func (v *Validator) Validate(ctx context.Context) (*Report, error) {
	if !v.running.CompareAndSwap(false, true) {
		return nil, ErrValidationRunning
	}
	defer v.running.Store(false)

	group, gctx := errgroup.WithContext(ctx)
	for _, field := range v.fields {
		field := field
		group.Go(func() error {
			_, err := field.IsValid(gctx)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		v.logInternal(err)
		return nil, err
	}

	report := &Report{Fields: v.fields, Container: v.container}
	for _, field := range v.fields {
		if field.HasError() {
			report.Failing = append(report.Failing, field)
		}
	}

	if len(report.Failing) > 0 {
		if v.cfg.onInvalidate != nil {
			v.cfg.onInvalidate(report)
		}
		return report, &InvalidError{Report: report}
	}
	if v.cfg.onValidate != nil {
		v.cfg.onValidate(report)
	}
	return report, nil
}

// ValidateField validates exactly one field, located by its element,
// independent of the others and under the same in-flight guard. Validators
// see the live flag set, and the form-level callbacks do not fire.
func (v *Validator) ValidateField(ctx context.Context, element *html.Node) (*Report, error) {
	field, ok := v.FieldFor(element)
	if !ok {
		return nil, fmt.Errorf("form: element is not a validated field")
	}

	if !v.running.CompareAndSwap(false, true) {
		return nil, ErrValidationRunning
	}
	defer v.running.Store(false)

	valid, err := field.isValid(ctx, true)
	if err != nil {
		v.logInternal(err)
		return nil, err
	}

	report := &Report{Fields: []*Field{field}, Container: v.container}
	if !valid {
		report.Failing = []*Field{field}
		return report, &InvalidError{Report: report}
	}
	return report, nil
}

// Fields returns every discovered Field in document order.
func (v *Validator) Fields() []*Field {
	return v.fields
}

// FieldsWithValidators returns only the Fields with at least one applicable
// validator.
func (v *Validator) FieldsWithValidators() []*Field {
	var out []*Field
	for _, field := range v.fields {
		if field.HasValidators() {
			out = append(out, field)
		}
	}
	return out
}

// Elements returns the control references backing every Field.
func (v *Validator) Elements() []*dom.FieldRef {
	out := make([]*dom.FieldRef, len(v.fields))
	for i, field := range v.fields {
		out[i] = field.Ref()
	}
	return out
}

// ElementsWithValidators returns the control references for validator-bearing
// Fields only.
func (v *Validator) ElementsWithValidators() []*dom.FieldRef {
	var out []*dom.FieldRef
	for _, field := range v.fields {
		if field.HasValidators() {
			out = append(out, field.Ref())
		}
	}
	return out
}

// FieldFor looks up the Field wrapping the element. Radio buttons resolve to
// their group's Field whichever member is supplied. The scan is linear; field
// lists are small.
func (v *Validator) FieldFor(element *html.Node) (*Field, bool) {
	if element == nil {
		return nil, false
	}
	for _, field := range v.fields {
		if field.Ref().Node() == element {
			return field, true
		}
		if group := field.Group(); group != nil {
			for _, member := range group.Members() {
				if member.Node() == element {
					return field, true
				}
			}
		}
	}
	return nil, false
}

// Container returns the container element the validator was built over.
func (v *Validator) Container() *html.Node {
	return v.container
}

func (v *Validator) logInternal(err error) {
	if !v.cfg.debug {
		return
	}
	var internal *InternalError
	if errors.As(err, &internal) {
		v.cfg.logger.Debug("validator failed unexpectedly",
			zap.String("validator", internal.Validator),
			zap.String("field", internal.Field),
			zap.Error(internal.Err))
		return
	}
	v.cfg.logger.Debug("validation pass failed", zap.Error(err))
}
