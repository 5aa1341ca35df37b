package selection_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/selection"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

type feature struct {
	ID       string
	Label    string
	Observed string
}

func featureID(f feature) string { return f.ID }

var features = []feature{
	{ID: "HP:0001250", Label: "Seizure", Observed: "yes"},
	{ID: "HP:0000252", Label: "Microcephaly", Observed: "no"},
	{ID: "HP:0001263", Label: "Global developmental delay", Observed: "yes"},
}

func featureColumns() []selection.Column[feature] {
	return []selection.Column[feature]{
		{Name: "id", Header: "HPO ID", Width: 3, Format: func(f feature) string { return f.ID }},
		{Name: "label", Header: "Description", Width: 9, Format: func(f feature) string { return f.Label }},
		{Name: "observed", Header: "Observed?", Width: 3, Align: "center", Format: func(f feature) string {
			if f.Observed == "yes" {
				return "✓"
			}
			return "✗"
		}},
	}
}

func TestMap_DoubleToggleRestores(t *testing.T) {
	original := selection.Map{"HP:0001250": true}
	once := original.Toggle("HP:0000252")
	twice := once.Toggle("HP:0000252")

	if !twice.Equal(original) {
		t.Fatalf("double toggle changed selection: %v -> %v", original, twice)
	}
	if len(original) != 1 {
		t.Fatalf("toggle mutated the receiver: %v", original)
	}
	if !once["HP:0000252"] {
		t.Fatalf("first toggle should select the row")
	}
}

func TestSelected_IgnoresStaleKeys(t *testing.T) {
	m := selection.Map{"HP:0000252": true, "HP:9999999": true, "HP:0001250": false}

	got := selection.Selected(features, featureID, m)
	want := []feature{features[1]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("selected mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"HP:9999999"}, selection.Stale(features, featureID, m)); diff != "" {
		t.Fatalf("stale mismatch (-want +got):\n%s", diff)
	}

	// Injecting more stale keys never changes the derived selection.
	m2 := m.With("HP:0000000", true)
	if diff := cmp.Diff(got, selection.Selected(features, featureID, m2)); diff != "" {
		t.Fatalf("stale injection changed selection (-want +got):\n%s", diff)
	}
}

func TestDuplicateIDs(t *testing.T) {
	type variant struct {
		Chrom, Ref, Alt string
		Pos             int
	}
	id := func(v variant) string { return fmt.Sprintf("%s-%d-%s-%s", v.Chrom, v.Pos, v.Ref, v.Alt) }
	rows := []variant{
		{Chrom: "1", Pos: 100, Ref: "A", Alt: "T"},
		{Chrom: "1", Pos: 100, Ref: "A", Alt: "T"},
		{Chrom: "2", Pos: 5, Ref: "G", Alt: "C"},
	}
	if diff := cmp.Diff([]string{"1-100-A-T"}, selection.DuplicateIDs(rows, id)); diff != "" {
		t.Fatalf("duplicates mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_SortAndFilterArePresentationOnly(t *testing.T) {
	table := selection.Table[feature]{Columns: featureColumns(), ID: featureID, DefaultSort: "label"}
	m := selection.Map{"HP:0001250": true}

	view := table.View(features, m, model.TableQuery{})
	var order []string
	for _, row := range view.Rows {
		order = append(order, row.ID)
	}
	if diff := cmp.Diff([]string{"HP:0001263", "HP:0000252", "HP:0001250"}, order); diff != "" {
		t.Fatalf("default sort mismatch (-want +got):\n%s", diff)
	}
	if view.SelectedCount != 1 || !view.Rows[2].Selected {
		t.Fatalf("selection lost during sort: %+v", view.Rows)
	}

	desc := true
	view = table.View(features, m, model.TableQuery{SortColumn: "id", Descending: &desc, Filter: "SEIZ"})
	if len(view.Rows) != 1 || view.Rows[0].ID != "HP:0001250" || !view.SortDescending {
		t.Fatalf("filter/sort mismatch: %+v", view)
	}
	if diff := cmp.Diff([]string{"HP:0001250", "Seizure", "✓"}, view.Rows[0].Cells); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
	if features[0].ID != "HP:0001250" {
		t.Fatalf("rows were reordered in place")
	}
}

func TestTable_NumericSortKeys(t *testing.T) {
	type match struct {
		ID      string
		Created int64
	}
	rows := []match{{ID: "a", Created: 5}, {ID: "b", Created: 40}, {ID: "c", Created: 10}}
	columns := []selection.Column[match]{{Name: "createdDate", Value: func(m match) any { return m.Created }}}
	table := selection.Table[match]{
		Columns:     columns,
		ID:          func(m match) string { return m.ID },
		DefaultSort: "createdDate",
		Descending:  true,
	}
	view := table.View(rows, nil, model.TableQuery{})
	var order []string
	for _, row := range view.Rows {
		order = append(order, row.ID)
	}
	if diff := cmp.Diff([]string{"b", "c", "a"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestInput_FormatParseThroughForm(t *testing.T) {
	rows := features
	input := selection.NewInput(featureID, func() []feature { return rows }, featureColumns(),
		selection.WithDefaultSort[feature]("label", false),
		selection.WithLoading[feature](func() bool { return true }),
	)

	f, err := form.New(model.Descriptors{input.Descriptor("phenotypes", "Phenotypes")}, map[string]any{
		"phenotypes": []feature{features[2]},
	})
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	display, _ := f.Display("phenotypes")
	if diff := cmp.Diff(selection.Map{"HP:0001263": true}, display); diff != "" {
		t.Fatalf("display mismatch (-want +got):\n%s", diff)
	}

	next := selection.FromValue(display).Toggle("HP:0001250")
	if err := f.Change("phenotypes", next); err != nil {
		t.Fatalf("change: %v", err)
	}
	stored, _ := f.Stored("phenotypes")
	want := []feature{features[0], features[2]}
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Fatalf("stored rows mismatch (-want +got):\n%s", diff)
	}

	view := input.Table(selection.FromValue(next), model.TableQuery{})
	if !view.Loading || view.SelectedCount != 2 || len(view.Columns) != 3 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if got := f.Values(); !cmp.Equal(valuebag.Bag{"phenotypes": want}, got) {
		t.Fatalf("values mismatch: %v", got)
	}
}

func TestFromValue(t *testing.T) {
	got := selection.FromValue(map[string]any{"a": true, "b": false, "c": "yes"})
	if diff := cmp.Diff(selection.Map{"a": true, "b": false}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if len(selection.FromValue(42)) != 0 {
		t.Fatalf("unsupported values should map to an empty selection")
	}
}
