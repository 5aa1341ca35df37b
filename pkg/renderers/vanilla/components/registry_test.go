package components

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/render"
)

func TestRegistryDescriptorClone(t *testing.T) {
	reg := New()
	renderer := func(buf *bytes.Buffer, field render.Field, data ComponentData) error { return nil }

	if err := reg.Register(model.KindText, Descriptor{Renderer: renderer, Stylesheets: []string{"/a.css"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	desc, ok := reg.Descriptor(model.KindText)
	if !ok || desc.Kind != model.KindText {
		t.Fatalf("descriptor lookup failed: %#v", desc)
	}
	desc.Stylesheets[0] = "/mutated.css"

	original, _ := reg.Descriptor(model.KindText)
	if len(original.Stylesheets) != 1 || original.Stylesheets[0] != "/a.css" {
		t.Fatalf("registry descriptor mutated: %#v", original.Stylesheets)
	}
}

func TestRegistryRejectsIncompleteDescriptors(t *testing.T) {
	reg := New()
	if err := reg.Register("", Descriptor{Renderer: groupRenderer}); err == nil {
		t.Fatalf("expected error for empty kind")
	}
	if err := reg.Register(model.KindText, Descriptor{}); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
}

func TestRegistryAssetsDeduplicates(t *testing.T) {
	reg := NewDefaultRegistry()
	_, scripts := reg.Assets([]model.Kind{model.KindSelectionTable, model.KindSelectionTable, model.KindText})
	if len(scripts) != 1 || scripts[0].Inline != TableScript {
		t.Fatalf("expected one table script, got %#v", scripts)
	}
}

func TestSelectionTableRenderer(t *testing.T) {
	field := render.Field{
		Name: "phenotypes",
		Kind: model.KindSelectionTable,
		Table: &model.TableView{
			Columns:       []model.ColumnHeader{{Name: "id", Header: "HPO ID"}, {Name: "observed", Header: "Observed?", Align: "center"}},
			Rows:          []model.TableRow{{ID: "HP:1", Cells: []string{"HP:1", "<yes>"}, Selected: true}},
			SortColumn:    "id",
			SelectedCount: 1,
			Stale:         []string{"HP:9"},
		},
	}
	var buf bytes.Buffer
	if err := selectionTableRenderer(&buf, field, ComponentData{ControlID: "fk-phenotypes"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<input type="checkbox" name="phenotypes" value="HP:1" checked>`,
		`aria-sort="ascending"`,
		`&lt;yes&gt;`,
		`style="text-align: center"`,
		`1 selected`,
		`1 selected row(s) are no longer available`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSelectionTableRendererRequiresView(t *testing.T) {
	var buf bytes.Buffer
	if err := selectionTableRenderer(&buf, render.Field{Name: "x"}, ComponentData{}); err == nil {
		t.Fatalf("expected error for missing table view")
	}
}
