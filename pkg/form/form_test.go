package form_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/theflupke/formcheck/pkg/dom"
	"github.com/theflupke/formcheck/pkg/form"
	"github.com/theflupke/formcheck/pkg/messages"
	"github.com/theflupke/formcheck/pkg/registry"
	"github.com/theflupke/formcheck/pkg/validators"
)

func newValidator(t *testing.T, markup string, opts ...form.Option) *form.Validator {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}
	v, err := form.NewForSelector(doc, "form", opts...)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	return v
}

func builtinRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	if err := validators.RegisterAll(reg); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	reg.Seal()
	return reg
}

func staticValidator(name string, valid bool, extraErrors ...string) registry.Definition {
	return registry.Definition{
		Name:  name,
		Match: func(*dom.FieldRef) bool { return true },
		Validate: func(ctx context.Context, in registry.Input) (registry.Result, error) {
			return registry.Result{Valid: valid, ExtraErrorMessages: extraErrors}, nil
		},
	}
}

func TestFieldWithoutValidatorsIsTriviallyValid(t *testing.T) {
	v := newValidator(t, `<form><input name="free"></form>`,
		form.WithRegistry(registry.New()))

	fields := v.Fields()
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].HasValidators() {
		t.Fatal("expected no applicable validators")
	}

	valid, err := fields[0].IsValid(context.Background())
	if err != nil || !valid {
		t.Fatalf("IsValid = %v, %v; want true, nil", valid, err)
	}
	if fields[0].HasError() {
		t.Fatal("expected hasError == false")
	}
}

func TestConstructionSetsNovalidate(t *testing.T) {
	v := newValidator(t, `<form><input name="a"></form>`,
		form.WithRegistry(registry.New()))
	if got, _ := dom.Attr(v.Container(), "novalidate"); got != "novalidate" {
		t.Fatalf("expected novalidate attribute on container, got %q", got)
	}
}

func TestRadioGroupYieldsOneField(t *testing.T) {
	v := newValidator(t, `<form>
		<input name="before">
		<input type="radio" name="plan" value="free">
		<input type="radio" name="plan" value="pro" checked>
		<input type="radio" name="plan" value="team">
		<input name="after">
	</form>`, form.WithRegistry(registry.New()))

	var names []string
	for _, field := range v.Fields() {
		names = append(names, field.Name())
	}
	want := []string{"before", "plan", "after"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("field list mismatch (-want +got):\n%s", diff)
	}

	plan, ok := v.FieldFor(v.Fields()[1].Ref().Node())
	if !ok {
		t.Fatal("expected plan field lookup to succeed")
	}
	group := plan.Group()
	if group == nil || len(group.Members()) != 3 {
		t.Fatalf("expected 3 group members, got %v", group)
	}
	checked, ok := group.Checked()
	if !ok {
		t.Fatal("expected a checked radio")
	}
	if value, _ := checked.Attr("value"); value != "pro" {
		t.Fatalf("checked value = %q, want pro", value)
	}

	// Any group member resolves to the same Field.
	last := group.Members()[2]
	byMember, ok := v.FieldFor(last.Node())
	if !ok || byMember != plan {
		t.Fatal("expected radio member lookup to resolve the group field")
	}
}

func TestFilterSelectorExcludesButtons(t *testing.T) {
	v := newValidator(t, `<form>
		<input name="keep">
		<input type="submit" value="Go">
		<input type="button" value="No">
		<input type="reset" value="No">
		<input type="image" alt="No">
	</form>`, form.WithRegistry(registry.New()))

	if got := len(v.Fields()); got != 1 {
		t.Fatalf("expected 1 field after filtering, got %d", got)
	}
}

func TestErrorsIdempotent(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(staticValidator("alpha", false))
	reg.Seal()

	v := newValidator(t, `<form><input name="a"></form>`, form.WithRegistry(reg))
	field := v.Fields()[0]

	if _, err := field.IsValid(context.Background()); err != nil {
		t.Fatalf("IsValid: %v", err)
	}

	first := field.Errors()
	second := field.Errors()
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("expected identical error lists, got %v and %v", first, second)
	}
}

func TestErrorMessageOrderingAndDedup(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(staticValidator("alpha", false))
	reg.MustRegister(staticValidator("bravo", true))
	reg.MustRegister(staticValidator("charlie", false))
	reg.Seal()

	v := newValidator(t, `<form><input name="a"></form>`,
		form.WithRegistry(reg),
		form.WithErrorMessages(messages.Catalog{
			"alpha":   "Alpha failed",
			"charlie": "Charlie failed",
		}))
	field := v.Fields()[0]
	if _, err := field.IsValid(context.Background()); err != nil {
		t.Fatalf("IsValid: %v", err)
	}

	var texts []string
	for _, msg := range field.ErrorMessages("") {
		texts = append(texts, msg.Text)
	}
	want := []string{"Alpha failed", "Charlie failed"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Fatalf("message order mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorMessagesDedupByText(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(staticValidator("one", false))
	reg.MustRegister(staticValidator("two", false))
	reg.Seal()

	v := newValidator(t, `<form><input name="a"></form>`,
		form.WithRegistry(reg),
		form.WithErrorMessages(messages.Catalog{
			"one": "Same message",
			"two": "Same message",
		}))
	field := v.Fields()[0]
	if _, err := field.IsValid(context.Background()); err != nil {
		t.Fatalf("IsValid: %v", err)
	}

	msgs := field.ErrorMessages("")
	if len(msgs) != 1 || msgs[0].Text != "Same message" {
		t.Fatalf("expected one deduplicated message, got %v", msgs)
	}
}

func TestErrorMessagesExtraEntries(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(staticValidator("bounds", false, "Too small", "Way too small"))
	reg.Seal()

	v := newValidator(t, `<form>
		<label for="n">Amount</label>
		<input id="n" name="n">
	</form>`, form.WithRegistry(reg))
	field := v.Fields()[0]
	if _, err := field.IsValid(context.Background()); err != nil {
		t.Fatalf("IsValid: %v", err)
	}

	msgs := field.ErrorMessages("")
	if len(msgs) != 3 {
		t.Fatalf("expected basic + 2 extra messages, got %v", msgs)
	}
	if msgs[0].Kind != form.MessageBasic || msgs[1].Kind != form.MessageExtra {
		t.Fatalf("unexpected message kinds: %v", msgs)
	}
	for _, msg := range msgs {
		if msg.Label != "Amount" {
			t.Fatalf("expected label Amount on every entry, got %q", msg.Label)
		}
	}
}

func TestErrorMessagesForcedLocale(t *testing.T) {
	bundle := messages.NewBundle()
	if err := bundle.Add("fr", messages.Catalog{"alpha": "Alpha en panne"}); err != nil {
		t.Fatalf("bundle add: %v", err)
	}

	reg := registry.New()
	reg.MustRegister(staticValidator("alpha", false))
	reg.Seal()

	v := newValidator(t,
		`<form><input name="a" data-error-label="Attribute override" data-error-label-alpha="Per validator"></form>`,
		form.WithRegistry(reg),
		form.WithErrorMessages(messages.Catalog{"alpha": "Catalog entry", "default": "Catalog default"}),
		form.WithMessageBundle(bundle))
	field := v.Fields()[0]
	if _, err := field.IsValid(context.Background()); err != nil {
		t.Fatalf("IsValid: %v", err)
	}

	// With every override level populated, the forced locale wins.
	msgs := field.ErrorMessages("fr-CA")
	if len(msgs) != 1 || msgs[0].Text != "Alpha en panne" {
		t.Fatalf("expected forced locale message, got %v", msgs)
	}

	// Without a locale, the per-validator attribute is next in line.
	msgs = field.ErrorMessages("")
	if len(msgs) != 1 || msgs[0].Text != "Per validator" {
		t.Fatalf("expected per-validator attribute message, got %v", msgs)
	}
}

func TestValidateEndToEnd(t *testing.T) {
	var invalidated *form.Report
	v := newValidator(t, `<form>
		<input type="text" name="username" value="" required>
		<input type="email" name="contact" value="not-an-email">
		<input type="text" name="free" value="anything">
	</form>`,
		form.WithRegistry(builtinRegistry(t)),
		form.OnInvalidate(func(r *form.Report) { invalidated = r }))

	report, err := v.Validate(context.Background())
	var invalid *form.InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidError, got %v", err)
	}
	if report.Valid() {
		t.Fatal("expected invalid report")
	}

	var failing []string
	for _, field := range report.Failing {
		failing = append(failing, field.Name())
	}
	want := []string{"username", "contact"}
	if diff := cmp.Diff(want, failing); diff != "" {
		t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
	}
	if invalidated != report {
		t.Fatal("expected OnInvalidate to receive the report")
	}
}

func TestValidateAllValid(t *testing.T) {
	var validated *form.Report
	v := newValidator(t, `<form>
		<input type="text" name="username" value="gopher" required>
		<input type="email" name="contact" value="gopher@example.com">
	</form>`,
		form.WithRegistry(builtinRegistry(t)),
		form.OnValidate(func(r *form.Report) { validated = r }))

	report, err := v.Validate(context.Background())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !report.Valid() || len(report.Fields) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if validated != report {
		t.Fatal("expected OnValidate to receive the report")
	}
}

func TestValidateOptionalDateField(t *testing.T) {
	v := newValidator(t, `<form>
		<input name="birthday" data-date-format="d/m/y" value="31/02/2020">
	</form>`, form.WithRegistry(builtinRegistry(t)))

	report, err := v.Validate(context.Background())
	var invalid *form.InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidError for Feb 31, got %v", err)
	}
	if len(report.Failing) != 1 || report.Failing[0].Name() != "birthday" {
		t.Fatalf("unexpected failing set: %+v", report.Failing)
	}
}

func TestValidatorOptionsForwarded(t *testing.T) {
	var gotFormat string
	reg := registry.New()
	reg.MustRegister(registry.Definition{
		Name:  "probe",
		Match: func(*dom.FieldRef) bool { return true },
		Validate: func(ctx context.Context, in registry.Input) (registry.Result, error) {
			gotFormat, _ = in.Options.String("format")
			return registry.Result{Valid: true}, nil
		},
	})
	reg.Seal()

	v := newValidator(t, `<form><input name="a" value="x"></form>`,
		form.WithRegistry(reg),
		form.WithValidatorOptions("probe", registry.Options{"format": "d/m/y"}))
	if _, err := v.Validate(context.Background()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if gotFormat != "d/m/y" {
		t.Fatalf("expected options forwarded, got format %q", gotFormat)
	}
}

func TestConcurrentValidateIsRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once

	reg := registry.New()
	reg.MustRegister(registry.Definition{
		Name:  "slow",
		Match: func(*dom.FieldRef) bool { return true },
		Async: true,
		Validate: func(ctx context.Context, in registry.Input) (registry.Result, error) {
			startedOnce.Do(func() { close(started) })
			<-release
			return registry.Result{Valid: true}, nil
		},
	})
	reg.Seal()

	v := newValidator(t, `<form><input name="a" value="x"></form>`, form.WithRegistry(reg))
	fieldsBefore := v.Fields()

	done := make(chan error, 1)
	go func() {
		_, err := v.Validate(context.Background())
		done <- err
	}()

	<-started
	if _, err := v.Validate(context.Background()); !errors.Is(err, form.ErrValidationRunning) {
		t.Fatalf("expected ErrValidationRunning, got %v", err)
	}
	if len(v.Fields()) != len(fieldsBefore) || v.Fields()[0] != fieldsBefore[0] {
		t.Fatal("expected field list untouched by the rejected call")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Validate: %v", err)
	}

	// The guard resets once the first pass settles.
	if _, err := v.Validate(context.Background()); err != nil {
		t.Fatalf("Validate after settle: %v", err)
	}
}

func TestInternalValidatorErrorSettles(t *testing.T) {
	boom := errors.New("backend unreachable")
	reg := registry.New()
	reg.MustRegister(registry.Definition{
		Name:  "flaky",
		Match: func(*dom.FieldRef) bool { return true },
		Validate: func(ctx context.Context, in registry.Input) (registry.Result, error) {
			return registry.Result{}, boom
		},
	})
	reg.Seal()

	v := newValidator(t, `<form><input name="a" value="x"></form>`,
		form.WithRegistry(reg), form.WithDebug(true))

	_, err := v.Validate(context.Background())
	var internal *form.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("expected InternalError, got %v", err)
	}
	if internal.Validator != "flaky" || !errors.Is(err, boom) {
		t.Fatalf("unexpected internal error: %+v", internal)
	}

	// The pass settled, so the next one may start.
	if _, err := v.Validate(context.Background()); err == nil {
		t.Fatal("expected the flaky validator to fail again")
	}
}

func TestValidateField(t *testing.T) {
	v := newValidator(t, `<form>
		<input type="text" name="username" value="" required>
		<input type="email" name="contact" value="also-not-an-email">
	</form>`, form.WithRegistry(builtinRegistry(t)))

	username := v.Fields()[0]
	report, err := v.ValidateField(context.Background(), username.Ref().Node())
	var invalid *form.InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidError, got %v", err)
	}
	if len(report.Fields) != 1 || report.Fields[0] != username {
		t.Fatalf("expected only the requested field, got %+v", report.Fields)
	}

	// The sibling field was not validated.
	if v.Fields()[1].HasError() {
		t.Fatal("expected contact field untouched")
	}

	if _, err := v.ValidateField(context.Background(), v.Container()); err == nil {
		t.Fatal("expected error for non-field element")
	}
}

func TestRefreshIsDeterministic(t *testing.T) {
	v := newValidator(t, `<form>
		<input name="a" required>
		<input type="radio" name="g" value="1">
		<input type="radio" name="g" value="2">
		<select name="s"><option>x</option></select>
	</form>`, form.WithRegistry(builtinRegistry(t)))

	snapshot := func() []string {
		var names []string
		for _, field := range v.Fields() {
			names = append(names, field.Name())
		}
		return names
	}

	first := snapshot()
	if err := v.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	second := snapshot()
	if err := v.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	third := snapshot()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("field list changed across Update (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first, third); diff != "" {
		t.Fatalf("field list changed across Update (-first +third):\n%s", diff)
	}
}

func TestQueries(t *testing.T) {
	v := newValidator(t, `<form>
		<input name="plain">
		<input name="wanted" required>
	</form>`, form.WithRegistry(builtinRegistry(t)))

	if got := len(v.Fields()); got != 2 {
		t.Fatalf("Fields() = %d, want 2", got)
	}
	withValidators := v.FieldsWithValidators()
	if len(withValidators) != 1 || withValidators[0].Name() != "wanted" {
		t.Fatalf("FieldsWithValidators mismatch: %+v", withValidators)
	}
	if got := len(v.Elements()); got != 2 {
		t.Fatalf("Elements() = %d, want 2", got)
	}
	if got := v.ElementsWithValidators(); len(got) != 1 || got[0].Name() != "wanted" {
		t.Fatalf("ElementsWithValidators mismatch")
	}
	if _, ok := v.FieldFor(nil); ok {
		t.Fatal("expected nil element lookup to miss")
	}
}
