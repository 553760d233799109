package form

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/theflupke/formcheck/pkg/dom"
	"github.com/theflupke/formcheck/pkg/messages"
)

// MessageKind distinguishes the per-validator message from the extra error
// messages a validator raised itself.
type MessageKind string

const (
	MessageBasic MessageKind = "basic"
	MessageExtra MessageKind = "extra"
)

// Message is one user-facing validation error entry.
type Message struct {
	Text  string
	Label string
	Kind  MessageKind
}

// Field wraps one form control, or one radio group treated as a single
// logical control. It owns the InputValidators resolved for the control and
// aggregates their outcomes into a single verdict plus a labeled message
// list.
type Field struct {
	ref        *dom.FieldRef
	group      *dom.RadioGroup
	label      string
	validators []*InputValidator
	resolver   *messages.Resolver
	bundle     *messages.Bundle

	hasError    bool
	errs        []*InputValidator
	errsCurrent bool
}

func newField(ref *dom.FieldRef, cfg config) *Field {
	f := &Field{
		ref:      ref,
		group:    ref.Group(),
		label:    ref.LabelText(),
		resolver: messages.NewResolver(cfg.labelPrefix, cfg.catalog),
		bundle:   cfg.bundle,
	}
	for _, def := range cfg.registry.ResolveForField(ref) {
		f.validators = append(f.validators, newInputValidator(def, ref, cfg.validatorOpts[def.Name]))
	}
	return f
}

// Ref returns the wrapped control; for a radio group, its first member.
func (f *Field) Ref() *dom.FieldRef {
	return f.ref
}

// Group returns the radio group metadata, nil for non-radio controls.
func (f *Field) Group() *dom.RadioGroup {
	return f.group
}

// Label returns the control's resolved display label.
func (f *Field) Label() string {
	return f.label
}

// Name returns the control's name attribute.
func (f *Field) Name() string {
	return f.ref.Name()
}

// Validators returns the InputValidators resolved for the control, in
// registration order.
func (f *Field) Validators() []*InputValidator {
	return f.validators
}

// HasValidators reports whether any validator applies to the control.
func (f *Field) HasValidators() bool {
	return len(f.validators) > 0
}

// HasError reflects the outcome of the last IsValid run.
func (f *Field) HasError() bool {
	return f.hasError
}

// IsValid runs every applicable validator concurrently and waits for all of
// them. A field with no applicable validators is trivially valid and
// schedules no work. The error return is reserved for internal validator
// failures; an invalid value yields (false, nil).
func (f *Field) IsValid(ctx context.Context) (bool, error) {
	return f.isValid(ctx, false)
}

func (f *Field) isValid(ctx context.Context, live bool) (bool, error) {
	f.errs = nil
	f.errsCurrent = false

	if len(f.validators) == 0 {
		f.hasError = false
		return true, nil
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, iv := range f.validators {
		iv := iv
		group.Go(func() error {
			return iv.Validate(gctx, live)
		})
	}
	if err := group.Wait(); err != nil {
		f.hasError = true
		return false, err
	}

	f.hasError = false
	for _, iv := range f.validators {
		if !iv.Valid() {
			f.hasError = true
			break
		}
	}
	return !f.hasError, nil
}

// Errors returns the failing InputValidators in registration order. The list
// is computed on demand and cached until the next IsValid run, so repeated
// calls are idempotent.
func (f *Field) Errors() []*InputValidator {
	if f.errsCurrent {
		return f.errs
	}
	f.errs = nil
	for _, iv := range f.validators {
		if !iv.Valid() {
			f.errs = append(f.errs, iv)
		}
	}
	f.errsCurrent = true
	return f.errs
}

// ErrorMessages resolves the display messages for every failing validator:
// one basic entry per failure plus one extra entry per extra error message it
// raised, deduplicated by message text with first occurrence order preserved.
// A non-empty locale forces the best-matching catalog from the configured
// bundle.
func (f *Field) ErrorMessages(locale string) []Message {
	var forced messages.Catalog
	if locale != "" {
		forced, _ = f.bundle.Match(locale)
	}

	var out []Message
	seen := make(map[string]struct{})
	appendMessage := func(text string, kind MessageKind) {
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		out = append(out, Message{Text: text, Label: f.label, Kind: kind})
	}

	for _, iv := range f.Errors() {
		appendMessage(f.resolver.Resolve(f.ref, iv.Name(), forced), MessageBasic)
		for _, extra := range iv.Result().ExtraErrorMessages {
			appendMessage(messages.SanitizeText(extra), MessageExtra)
		}
	}
	return out
}
