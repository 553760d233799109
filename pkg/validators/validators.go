// Package validators ships the built-in validation rules: required, email,
// date, number, length, pattern, and url. Each rule is a plain registry
// Definition; RegisterAll wires the full set into a registry during startup.
//
// Except for required, every rule treats an empty value as valid so optional
// fields stay optional; combine a rule with required to make it mandatory.
package validators

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/theflupke/formcheck/pkg/registry"
)

// Names of the built-in validators, usable as message-catalog keys.
const (
	Required = "required"
	Email    = "email"
	Date     = "date"
	Number   = "number"
	Length   = "length"
	Pattern  = "pattern"
	URL      = "url"
)

// RegisterAll registers every built-in validator. Call it once during
// startup, before the registry is sealed.
func RegisterAll(r *registry.Registry) error {
	defs := []registry.Definition{
		{Name: Required, Match: registry.MustMatchSelector("[required], [data-required]"), Validate: validateRequired},
		{Name: Email, Match: registry.MustMatchSelector("input[type=email]"), Validate: validateEmail},
		{Name: Date, Match: registry.MustMatchSelector("input[type=date], input[data-date-format]"), Validate: validateDate},
		{Name: Number, Match: registry.MustMatchSelector("input[type=number]"), Validate: validateNumber},
		{Name: Length, Match: registry.MustMatchSelector("[minlength], [maxlength]"), Validate: validateLength},
		{Name: Pattern, Match: registry.MustMatchSelector("[pattern]"), Validate: validatePattern},
		{Name: URL, Match: registry.MustMatchSelector("input[type=url]"), Validate: validateURL},
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// MustRegisterAll panics on registration failure. Useful for init-time wiring.
func MustRegisterAll(r *registry.Registry) {
	if err := RegisterAll(r); err != nil {
		panic(err)
	}
}

// Rule returns the built-in validation function by name, letting callers
// rebind a built-in check under a different definition (for example,
// schema-derived per-field rules).
func Rule(name string) (registry.Func, bool) {
	switch name {
	case Required:
		return validateRequired, true
	case Email:
		return validateEmail, true
	case Date:
		return validateDate, true
	case Number:
		return validateNumber, true
	case Length:
		return validateLength, true
	case Pattern:
		return validatePattern, true
	case URL:
		return validateURL, true
	default:
		return nil, false
	}
}

func validateRequired(_ context.Context, in registry.Input) (registry.Result, error) {
	return registry.Result{Valid: !in.Value.IsEmpty()}, nil
}

func validateEmail(_ context.Context, in registry.Input) (registry.Result, error) {
	raw := in.Value.String()
	if raw == "" {
		return registry.Result{Valid: true}, nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return registry.Result{Valid: false}, nil
	}
	return registry.Result{Valid: true, Data: addr.Address}, nil
}

func validateNumber(_ context.Context, in registry.Input) (registry.Result, error) {
	raw := in.Value.String()
	if raw == "" {
		return registry.Result{Valid: true}, nil
	}

	number, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return registry.Result{Valid: false}, nil
	}

	min, hasMin := boundFromInput(in, "min")
	max, hasMax := boundFromInput(in, "max")
	if hasMin && number < min {
		return registry.Result{
			Valid:              false,
			ExtraErrorMessages: []string{fmt.Sprintf("Value must be at least %v", min)},
		}, nil
	}
	if hasMax && number > max {
		return registry.Result{
			Valid:              false,
			ExtraErrorMessages: []string{fmt.Sprintf("Value must be at most %v", max)},
		}, nil
	}
	return registry.Result{Valid: true, Data: number}, nil
}

func validateLength(_ context.Context, in registry.Input) (registry.Result, error) {
	raw := in.Value.String()
	if raw == "" {
		return registry.Result{Valid: true}, nil
	}

	length := utf8.RuneCountInString(raw)
	if min, ok := intAttr(in, "minlength"); ok && length < min {
		return registry.Result{
			Valid:              false,
			ExtraErrorMessages: []string{fmt.Sprintf("Must be at least %d characters", min)},
		}, nil
	}
	if max, ok := intAttr(in, "maxlength"); ok && length > max {
		return registry.Result{
			Valid:              false,
			ExtraErrorMessages: []string{fmt.Sprintf("Must be at most %d characters", max)},
		}, nil
	}
	return registry.Result{Valid: true}, nil
}

func validatePattern(_ context.Context, in registry.Input) (registry.Result, error) {
	raw := in.Value.String()
	if raw == "" {
		return registry.Result{Valid: true}, nil
	}

	expr, _ := in.Options.String("pattern")
	if expr == "" {
		expr, _ = in.Field.Attr("pattern")
	}
	if expr == "" {
		return registry.Result{Valid: true}, nil
	}

	// Browsers anchor pattern attributes to the full value.
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return registry.Result{}, fmt.Errorf("validators: pattern %q: %w", expr, err)
	}
	return registry.Result{Valid: re.MatchString(raw)}, nil
}

func validateURL(_ context.Context, in registry.Input) (registry.Result, error) {
	raw := in.Value.String()
	if raw == "" {
		return registry.Result{Valid: true}, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return registry.Result{Valid: false}, nil
	}
	return registry.Result{Valid: true, Data: parsed.String()}, nil
}

func boundFromInput(in registry.Input, key string) (float64, bool) {
	if bound, ok := in.Options.Float(key); ok {
		return bound, true
	}
	raw, ok := in.Field.Attr(key)
	if !ok {
		return 0, false
	}
	bound, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return bound, true
}

func intAttr(in registry.Input, key string) (int, bool) {
	bound, ok := boundFromInput(in, key)
	if !ok {
		return 0, false
	}
	return int(bound), true
}
