package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/theflupke/formcheck/pkg/dom"
)

func passFunc(ctx context.Context, in Input) (Result, error) {
	return Result{Valid: true}, nil
}

func matchAll(*dom.FieldRef) bool { return true }

func testField(t *testing.T, markup, selector string) *dom.FieldRef {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}
	node, err := doc.Query(selector)
	if err != nil {
		t.Fatalf("query %q: %v", selector, err)
	}
	return dom.NewFieldRef(doc, node, nil)
}

func TestRegisterValidation(t *testing.T) {
	reg := New()

	cases := []struct {
		name string
		def  Definition
	}{
		{name: "missing name", def: Definition{Match: matchAll, Validate: passFunc}},
		{name: "missing match", def: Definition{Name: "x", Validate: passFunc}},
		{name: "missing func", def: Definition{Name: "x", Match: matchAll}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := reg.Register(tc.def); err == nil {
				t.Fatal("expected registration error")
			}
		})
	}
}

func TestResolveForField_RegistrationOrder(t *testing.T) {
	reg := New()
	reg.MustRegister(Definition{Name: "a", Match: MustMatchSelector("input"), Validate: passFunc})
	reg.MustRegister(Definition{Name: "b", Match: MustMatchSelector("input[type=email]"), Validate: passFunc})
	reg.MustRegister(Definition{Name: "c", Match: matchAll, Validate: passFunc})

	field := testField(t, `<form><input type="email" name="e"></form>`, "input")

	var got []string
	for _, def := range reg.ResolveForField(field) {
		got = append(got, def.Name)
	}
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolution order mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup_LastRegistrationWins(t *testing.T) {
	reg := New()
	reg.MustRegister(Definition{Name: "dup", Match: matchAll, Validate: passFunc})
	reg.MustRegister(Definition{Name: "dup", Match: matchAll, Async: true, Validate: passFunc})

	def, ok := reg.Lookup("dup")
	if !ok {
		t.Fatal("expected lookup to succeed")
	}
	if !def.Async {
		t.Fatal("expected latest registration to win")
	}

	// Both registrations keep their slot in resolution order.
	field := testField(t, `<form><input name="x"></form>`, "input")
	if got := len(reg.ResolveForField(field)); got != 2 {
		t.Fatalf("expected 2 resolved definitions, got %d", got)
	}
}

func TestSeal(t *testing.T) {
	reg := New()
	reg.MustRegister(Definition{Name: "ok", Match: matchAll, Validate: passFunc})
	reg.Seal()

	err := reg.Register(Definition{Name: "late", Match: matchAll, Validate: passFunc})
	if !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
	if !reg.Sealed() {
		t.Fatal("expected registry to report sealed")
	}
	if got := reg.Len(); got != 1 {
		t.Fatalf("expected 1 definition after seal, got %d", got)
	}
}

func TestMatchSelector_Invalid(t *testing.T) {
	if _, err := MatchSelector("input[type"); err == nil {
		t.Fatal("expected error for malformed selector")
	}
}

func TestOptionsAccessors(t *testing.T) {
	opts := Options{"format": "d/m/y", "min": 3, "ratio": 1.5}

	if got, ok := opts.String("format"); !ok || got != "d/m/y" {
		t.Fatalf("String(format) = %q, %v", got, ok)
	}
	if got, ok := opts.Float("min"); !ok || got != 3 {
		t.Fatalf("Float(min) = %v, %v", got, ok)
	}
	if got, ok := opts.Float("ratio"); !ok || got != 1.5 {
		t.Fatalf("Float(ratio) = %v, %v", got, ok)
	}
	if _, ok := opts.Float("missing"); ok {
		t.Fatal("expected missing option to report !ok")
	}
}
