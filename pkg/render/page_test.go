package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/lifecycle"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/render"
	"github.com/shulp2211/seqr-formkit/pkg/selection"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

type term struct {
	ID    string
	Label string
}

func termInput() *selection.Input[term] {
	rows := []term{{ID: "HP:2", Label: "Seizure"}, {ID: "HP:1", Label: "Ataxia"}}
	return selection.NewInput(
		func(t term) string { return t.ID },
		func() []term { return rows },
		[]selection.Column[term]{
			{Name: "id", Header: "HPO ID", Value: func(t term) any { return t.ID }},
			{Name: "label", Header: "Description", Value: func(t term) any { return t.Label }},
		},
		selection.WithDefaultSort[term]("label", false),
	)
}

func newController(t *testing.T, decorators ...model.Decorator) *lifecycle.Controller {
	t.Helper()
	descriptors := model.Descriptors{
		{Name: "comments", Label: "Comments", Rules: []model.ValidationRule{model.Required()}, Layout: model.Layout{Rows: 5, Section: "notes"}},
		{Name: "flag", Label: "Flag for Analysis", Kind: model.KindCheckbox},
		{Name: "svType", Label: "SV Type", Options: []model.Option{{Value: "DEL", Text: "Deletion"}, {Value: "DUP", Text: "Duplication"}}},
		termInput().Descriptor("phenotypes", "Phenotypes"),
	}
	current := valuebag.Bag{
		"comments":   "",
		"flag":       true,
		"svType":     "DUP",
		"phenotypes": []term{{ID: "HP:2", Label: "Seizure"}},
	}
	ctrl, err := lifecycle.New(descriptors, current,
		func(context.Context, valuebag.Bag) (valuebag.Bag, error) { return nil, nil },
		lifecycle.WithName("status"),
		lifecycle.WithContext(valuebag.Bag{"individualGuid": "I1"}),
		lifecycle.WithTitle("Match Status"),
		lifecycle.WithFormOptions(form.WithDecorators(decorators...)),
	)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl
}

func TestBuild_Viewing(t *testing.T) {
	page := render.Build(newController(t), render.RenderOptions{})
	if page.Editing() {
		t.Fatalf("expected viewing page, got state %q", page.State)
	}
	if page.Title != "Match Status" || page.Record != "status" {
		t.Fatalf("unexpected page header: %#v", page)
	}
	if len(page.Fields) != 0 {
		t.Fatalf("viewing page should not carry fields: %#v", page.Fields)
	}
	if page.Display.Empty {
		t.Fatalf("display should reflect the current value")
	}
}

func TestBuild_Editing(t *testing.T) {
	ctrl := newController(t, model.DecoratorFunc(func(f *model.Form) error {
		f.Title = "Edit MME Submission Status"
		f.Metadata = map[string]string{"section.notes.title": "Notes", "layout.subtitle": "Follow up"}
		return nil
	}))
	if _, err := ctrl.BeginEdit(false); err != nil {
		t.Fatalf("begin edit: %v", err)
	}

	page := render.Build(ctrl, render.RenderOptions{
		Queries: map[string]model.TableQuery{"phenotypes": {Filter: "seiz"}},
		Hidden:  []render.HiddenField{render.CSRFToken("csrf", "t0k")},
	})
	if !page.Editing() || page.Session == "" {
		t.Fatalf("expected editing page with a session: %#v", page)
	}
	if page.Title != "Edit MME Submission Status" || page.Subtitle != "Follow up" {
		t.Fatalf("decorated title missing: %q / %q", page.Title, page.Subtitle)
	}

	kinds := map[string]model.Kind{}
	for _, field := range page.Fields {
		kinds[field.Name] = field.Kind
	}
	wantKinds := map[string]model.Kind{
		"comments":   model.KindTextArea,
		"flag":       model.KindCheckbox,
		"svType":     model.KindSelect,
		"phenotypes": model.KindSelectionTable,
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}

	flag := page.Fields[1]
	if !flag.Checked {
		t.Fatalf("checkbox should be checked: %#v", flag)
	}
	svType := page.Fields[2]
	if svType.Options[0].Selected || !svType.Options[1].Selected || svType.Options[1].Label != "Duplication" {
		t.Fatalf("select options mismatch: %#v", svType.Options)
	}
	table := page.Fields[3].Table
	if table == nil || len(table.Rows) != 1 || table.Rows[0].ID != "HP:2" || !table.Rows[0].Selected {
		t.Fatalf("filtered table mismatch: %#v", table)
	}

	if len(page.Sections) != 2 || page.Sections[0].Title != "Notes" || len(page.Sections[1].Fields) != 3 {
		t.Fatalf("sections mismatch: %#v", page.Sections)
	}
	wantHidden := []render.HiddenField{{Name: "csrf", Value: "t0k"}, {Name: "individualGuid", Value: "I1"}}
	if diff := cmp.Diff(wantHidden, page.Hidden); diff != "" {
		t.Fatalf("hidden mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ErrorsVisibleAfterFailedSubmit(t *testing.T) {
	ctrl := newController(t)
	if _, err := ctrl.BeginEdit(false); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if before := render.Build(ctrl, render.RenderOptions{}); len(before.Fields[0].Errors) != 0 {
		t.Fatalf("untouched field should hide errors: %#v", before.Fields[0].Errors)
	}
	if _, err := ctrl.Submit(context.Background()); err == nil {
		t.Fatalf("expected validation failure")
	}
	page := render.Build(ctrl, render.RenderOptions{})
	if diff := cmp.Diff([]string{"Required"}, page.Fields[0].Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if !page.Fields[0].Required {
		t.Fatalf("comments should be marked required")
	}
}

func TestDisplayText(t *testing.T) {
	got := []string{
		render.DisplayText(nil),
		render.DisplayText(12.0),
		render.DisplayText(1.5),
		render.DisplayText([]string{"a", "b"}),
		render.DisplayText([]any{"x", 3}),
	}
	want := []string{"", "12", "1.5", "a, b", "x, 3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("display text mismatch (-want +got):\n%s", diff)
	}
}
