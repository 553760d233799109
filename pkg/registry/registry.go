// Package registry holds named validator definitions and resolves, per form
// control, the ordered set of definitions whose match predicate applies.
// Registration happens at startup and the registry is sealed before any form
// is validated, so resolution runs against immutable state.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/theflupke/formcheck/pkg/dom"
)

// Matcher decides whether a validator applies to a form control.
type Matcher func(field *dom.FieldRef) bool

// MatchSelector builds a Matcher from a CSS selector expression.
func MatchSelector(expr string) (Matcher, error) {
	if _, err := dom.CompileSelector(expr); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return func(field *dom.FieldRef) bool {
		return field.Matches(expr)
	}, nil
}

// MustMatchSelector panics on a malformed selector. Useful for init-time
// wiring of built-in validators.
func MustMatchSelector(expr string) Matcher {
	matcher, err := MatchSelector(expr)
	if err != nil {
		panic(err)
	}
	return matcher
}

// Options carries arbitrary per-validator configuration, forwarded verbatim
// to the validator function on every call.
type Options map[string]any

// String returns the named option as a string when present.
func (o Options) String(key string) (string, bool) {
	if o == nil {
		return "", false
	}
	value, ok := o[key].(string)
	return value, ok
}

// Float returns the named option as a float64, accepting ints as well.
func (o Options) Float(key string) (float64, bool) {
	if o == nil {
		return 0, false
	}
	switch v := o[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Input is everything a validator function receives for one run.
type Input struct {
	// Field is the control under validation; for radio buttons it is the
	// group's representative member.
	Field *dom.FieldRef

	// Value is the control's value read at call time.
	Value dom.Value

	// Options is the per-validator configuration resolved by validator name
	// from the form configuration.
	Options Options

	// Live marks re-validation triggered while the user is editing, letting
	// validators soften checks that only make sense on submit.
	Live bool
}

// Result is the outcome of one validator run. Validation failure is data, not
// an error: Valid false with optional extra messages.
type Result struct {
	Valid              bool
	ExtraMessages      []string
	ExtraErrorMessages []string
	Data               any
}

// Func runs one validation. The returned error is reserved for unexpected
// failures (a bug, an unreachable backend); an invalid value must be reported
// through Result.Valid instead.
type Func func(ctx context.Context, in Input) (Result, error)

// Definition describes one named validator: an applicability predicate and
// the function to run. Async marks validators that may block on I/O; both
// kinds share one execution and barrier path.
type Definition struct {
	Name     string
	Match    Matcher
	Async    bool
	Validate Func
}

// Registry is an append-only collection of Definitions. Resolution returns
// matching definitions in registration order; name-keyed lookups return the
// most recently registered definition with that name.
type Registry struct {
	mu     sync.RWMutex
	defs   []Definition
	byName map[string]int
	sealed bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// ErrSealed is returned by Register once the registry has been sealed.
var ErrSealed = errors.New("registry: sealed, registration phase is over")

// Register appends a definition. Duplicate names are allowed; the latest one
// wins for name-keyed lookups while both keep their slot in resolution order.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return errors.New("registry: validator name is required")
	}
	if def.Match == nil {
		return fmt.Errorf("registry: validator %q: match predicate is required", def.Name)
	}
	if def.Validate == nil {
		return fmt.Errorf("registry: validator %q: validate func is required", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("registry: validator %q: %w", def.Name, ErrSealed)
	}

	r.byName[def.Name] = len(r.defs)
	r.defs = append(r.defs, def)
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Seal ends the registration phase. Subsequent Register calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registration phase is over.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup returns the most recently registered definition with the name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byName[name]
	if !ok {
		return Definition{}, false
	}
	return r.defs[idx], true
}

// ResolveForField returns, in registration order, every definition whose
// predicate matches the control. Multiple validators may match one control
// and all of them run.
func (r *Registry) ResolveForField(field *dom.FieldRef) []Definition {
	if field == nil {
		return nil
	}

	r.mu.RLock()
	defs := r.defs
	r.mu.RUnlock()

	var out []Definition
	for _, def := range defs {
		if def.Match(field) {
			out = append(out, def)
		}
	}
	return out
}

// Names returns the distinct registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.defs))
	names := make([]string, 0, len(r.defs))
	for _, def := range r.defs {
		if _, dup := seen[def.Name]; dup {
			continue
		}
		seen[def.Name] = struct{}{}
		names = append(names, def.Name)
	}
	return names
}

// Len returns the number of registered definitions, duplicates included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

var defaultRegistry = New()

// Default returns the process-wide registry shared by forms that do not
// configure their own.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a definition to the process-wide registry.
func Register(def Definition) error {
	return defaultRegistry.Register(def)
}

// Seal seals the process-wide registry.
func Seal() {
	defaultRegistry.Seal()
}
