package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// ValueKind identifies which extraction path produced a Value.
type ValueKind string

const (
	ValueText        ValueKind = "text"
	ValueCheckbox    ValueKind = "checkbox"
	ValueRadio       ValueKind = "radio"
	ValueSelect      ValueKind = "select"
	ValueMultiSelect ValueKind = "multiselect"
)

// Value is the current value of a form control, normalised across control
// kinds. Text-like controls carry a single string, multi-selects a list, and
// checkable controls a checked flag plus the value they would submit.
type Value struct {
	Kind    ValueKind
	raw     string
	list    []string
	checked bool
}

// String returns the single-string view of the value. Checkable controls
// return their submit value only while checked; multi-selects join their
// selections with commas.
func (v Value) String() string {
	switch v.Kind {
	case ValueCheckbox, ValueRadio:
		if !v.checked {
			return ""
		}
		return v.raw
	case ValueMultiSelect:
		return strings.Join(v.list, ",")
	default:
		return v.raw
	}
}

// List returns the multi-value view. Single-valued controls yield a one
// element list when non-empty.
func (v Value) List() []string {
	if v.Kind == ValueMultiSelect {
		return v.list
	}
	if s := v.String(); s != "" {
		return []string{s}
	}
	return nil
}

// IsChecked reports the checked state of checkbox and radio controls.
func (v Value) IsChecked() bool {
	return v.checked
}

// IsEmpty reports whether the control holds no data: empty text, unchecked
// checkbox, no radio selected, or no selection in a multi-select.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case ValueCheckbox, ValueRadio:
		return !v.checked
	case ValueMultiSelect:
		return len(v.list) == 0
	default:
		return strings.TrimSpace(v.raw) == ""
	}
}

// Value extracts the control's current value. Radio buttons resolve through
// their group so every member reports the group's checked value.
func (f *FieldRef) Value() Value {
	switch f.Tag() {
	case "select":
		return selectValue(f.Node())
	case "textarea":
		return Value{Kind: ValueText, raw: Text(f.Node())}
	case "input":
		switch f.InputType() {
		case "checkbox":
			return checkableValue(f.Node(), ValueCheckbox)
		case "radio":
			return f.radioValue()
		}
	}
	raw, _ := f.Attr("value")
	return Value{Kind: ValueText, raw: raw}
}

func (f *FieldRef) radioValue() Value {
	group := f.Group()
	if group == nil {
		return checkableValue(f.Node(), ValueRadio)
	}
	if checked, ok := group.Checked(); ok {
		value := checkableValue(checked.Node(), ValueRadio)
		value.checked = true
		return value
	}
	return Value{Kind: ValueRadio}
}

func checkableValue(n *html.Node, kind ValueKind) Value {
	raw, ok := Attr(n, "value")
	if !ok || raw == "" {
		// Browsers submit "on" for value-less checkable inputs.
		raw = "on"
	}
	return Value{Kind: kind, raw: raw, checked: HasAttr(n, "checked")}
}

func selectValue(n *html.Node) Value {
	options := MustCompileSelector("option").MatchAll(n)
	multiple := HasAttr(n, "multiple")

	var selected []string
	for _, option := range options {
		if HasAttr(option, "selected") {
			selected = append(selected, optionValue(option))
		}
	}

	if multiple {
		return Value{Kind: ValueMultiSelect, list: selected}
	}

	switch {
	case len(selected) > 0:
		return Value{Kind: ValueSelect, raw: selected[0]}
	case len(options) > 0:
		// A single select with no explicit selection submits its first option.
		return Value{Kind: ValueSelect, raw: optionValue(options[0])}
	default:
		return Value{Kind: ValueSelect}
	}
}

func optionValue(option *html.Node) string {
	if value, ok := Attr(option, "value"); ok {
		return value
	}
	return Text(option)
}
