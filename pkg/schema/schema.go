// Package schema derives validation rules from an OpenAPI document. The
// request-body schema of one operation is translated into per-field validator
// definitions bound by control name, so a form posting to that operation is
// checked against the same constraints the API declares.
package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/theflupke/formcheck/pkg/form"
	"github.com/theflupke/formcheck/pkg/registry"
	"github.com/theflupke/formcheck/pkg/validators"
)

// Rule couples a derived validator definition with the options it needs at
// run time. Options are keyed by the definition name when wired into a form.
type Rule struct {
	Definition registry.Definition
	Options    registry.Options
}

// RuleSet is every rule derived for one operation.
type RuleSet struct {
	OperationID string
	Rules       []Rule
}

// Apply registers every derived definition. The registry must not be sealed
// yet.
func (rs RuleSet) Apply(r *registry.Registry) error {
	for _, rule := range rs.Rules {
		if err := r.Register(rule.Definition); err != nil {
			return err
		}
	}
	return nil
}

// FormOptions returns the form options forwarding each rule's configuration
// to its definition.
func (rs RuleSet) FormOptions() []form.Option {
	var opts []form.Option
	for _, rule := range rs.Rules {
		if len(rule.Options) == 0 {
			continue
		}
		opts = append(opts, form.WithValidatorOptions(rule.Definition.Name, rule.Options))
	}
	return opts
}

var requestContentTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

// Derive loads an OpenAPI document and translates the named operation's
// request-body constraints into a RuleSet. Supported constraints: required,
// pattern, minLength/maxLength, minimum/maximum, plus email and date formats.
func Derive(ctx context.Context, data []byte, operationID string) (RuleSet, error) {
	if ctx == nil {
		return RuleSet{}, errors.New("schema: context is required")
	}
	if operationID == "" {
		return RuleSet{}, errors.New("schema: operation id is required")
	}
	if len(data) == 0 {
		return RuleSet{}, errors.New("schema: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return RuleSet{}, fmt.Errorf("schema: load document: %w", err)
	}

	operation := findOperation(doc, operationID)
	if operation == nil {
		return RuleSet{}, fmt.Errorf("schema: operation %q not found", operationID)
	}

	body := requestSchema(operation)
	if body == nil {
		return RuleSet{}, fmt.Errorf("schema: operation %q has no usable request body", operationID)
	}

	rules, err := deriveRules(body)
	if err != nil {
		return RuleSet{}, err
	}
	return RuleSet{OperationID: operationID, Rules: rules}, nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc == nil || doc.Paths == nil {
		return nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, operation := range item.Operations() {
			if operation != nil && operation.OperationID == operationID {
				return operation
			}
		}
	}
	return nil
}

func requestSchema(operation *openapi3.Operation) *openapi3.Schema {
	if operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil
	}
	for _, contentType := range requestContentTypes {
		media := operation.RequestBody.Value.Content.Get(contentType)
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		return media.Schema.Value
	}
	return nil
}

func deriveRules(body *openapi3.Schema) ([]Rule, error) {
	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	// Map iteration order is random; sort for stable registration order.
	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var rules []Rule
	for _, name := range names {
		ref := body.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		derived, err := propertyRules(name, ref.Value, required[name])
		if err != nil {
			return nil, err
		}
		rules = append(rules, derived...)
	}
	return rules, nil
}

func propertyRules(name string, prop *openapi3.Schema, required bool) ([]Rule, error) {
	match, err := registry.MatchSelector(fmt.Sprintf("[name=%q]", name))
	if err != nil {
		return nil, fmt.Errorf("schema: field %q: %w", name, err)
	}

	var rules []Rule
	add := func(kind string, opts registry.Options) error {
		fn, ok := validators.Rule(kind)
		if !ok {
			return fmt.Errorf("schema: no built-in rule %q", kind)
		}
		rules = append(rules, Rule{
			Definition: registry.Definition{
				Name:     name + "." + kind,
				Match:    match,
				Validate: fn,
			},
			Options: opts,
		})
		return nil
	}

	if required {
		if err := add(validators.Required, nil); err != nil {
			return nil, err
		}
	}
	if prop.Pattern != "" {
		if err := add(validators.Pattern, registry.Options{"pattern": prop.Pattern}); err != nil {
			return nil, err
		}
	}
	if prop.MinLength > 0 || prop.MaxLength != nil {
		opts := registry.Options{}
		if prop.MinLength > 0 {
			opts["minlength"] = float64(prop.MinLength)
		}
		if prop.MaxLength != nil {
			opts["maxlength"] = float64(*prop.MaxLength)
		}
		if err := add(validators.Length, opts); err != nil {
			return nil, err
		}
	}
	if prop.Min != nil || prop.Max != nil {
		opts := registry.Options{}
		if prop.Min != nil {
			opts["min"] = *prop.Min
		}
		if prop.Max != nil {
			opts["max"] = *prop.Max
		}
		if err := add(validators.Number, opts); err != nil {
			return nil, err
		}
	}

	switch strings.ToLower(strings.TrimSpace(prop.Format)) {
	case "email":
		if err := add(validators.Email, nil); err != nil {
			return nil, err
		}
	case "date":
		if err := add(validators.Date, registry.Options{"format": "y-m-d"}); err != nil {
			return nil, err
		}
	}

	return rules, nil
}
