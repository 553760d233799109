package form

import (
	"context"

	"github.com/theflupke/formcheck/pkg/dom"
	"github.com/theflupke/formcheck/pkg/registry"
)

// InputValidator pairs one validator definition with one form control and
// remembers the outcome of its most recent run. It is owned by exactly one
// Field; only that Field's IsValid call chain mutates it.
type InputValidator struct {
	def    registry.Definition
	field  *dom.FieldRef
	opts   registry.Options
	result registry.Result
	ran    bool
}

func newInputValidator(def registry.Definition, field *dom.FieldRef, opts registry.Options) *InputValidator {
	return &InputValidator{def: def, field: field, opts: opts}
}

// Validate runs the validator against the control's current value, read at
// call time. On completion the whole cached result is overwritten, success
// included, so stale error state never survives a passing run. Validation
// failure is recorded in the result; the returned error is reserved for
// unexpected validator failures.
func (iv *InputValidator) Validate(ctx context.Context, live bool) error {
	result, err := iv.def.Validate(ctx, registry.Input{
		Field:   iv.field,
		Value:   iv.field.Value(),
		Options: iv.opts,
		Live:    live,
	})
	if err != nil {
		iv.result = registry.Result{}
		iv.ran = false
		return &InternalError{Validator: iv.def.Name, Field: iv.field.Name(), Err: err}
	}

	iv.result = registry.Result{
		Valid:              result.Valid,
		ExtraMessages:      append([]string(nil), result.ExtraMessages...),
		ExtraErrorMessages: append([]string(nil), result.ExtraErrorMessages...),
		Data:               result.Data,
	}
	iv.ran = true
	return nil
}

// Valid reflects the last completed run; it is false when the validator has
// never run.
func (iv *InputValidator) Valid() bool {
	return iv.ran && iv.result.Valid
}

// Result returns the cached outcome of the last run.
func (iv *InputValidator) Result() registry.Result {
	return iv.result
}

// Name returns the validator's registered name.
func (iv *InputValidator) Name() string {
	return iv.def.Name
}

// Definition returns the validator definition being applied.
func (iv *InputValidator) Definition() registry.Definition {
	return iv.def
}

// Field returns the control this validator is bound to.
func (iv *InputValidator) Field() *dom.FieldRef {
	return iv.field
}
