package vanilla

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/selection"
)

type gene struct {
	ID     string
	Symbol string
}

func decodeSession(t *testing.T) *form.Form {
	t.Helper()
	rows := []gene{{"v1", "BRCA1"}, {"v2", "BRCA2"}, {"v3", "TTN"}}
	input := selection.NewInput(
		func(g gene) string { return g.ID },
		func() []gene { return rows },
		[]selection.Column[gene]{{Name: "gene", Header: "Gene", Value: func(g gene) any { return g.Symbol }}},
	)
	descriptors := model.Descriptors{
		{Name: "contact.name", Kind: model.KindText},
		{Name: "flag", Kind: model.KindCheckbox},
		{Name: "tags", Kind: model.KindMultiSelect, Options: []model.Option{{Value: "a"}, {Value: "b"}}},
		input.Descriptor("geneVariants", "Genotypes"),
	}
	session, err := form.New(descriptors, map[string]any{
		"contact":      map[string]any{"name": "Dr. Y"},
		"flag":         true,
		"geneVariants": []gene{rows[2]},
	})
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return session
}

func TestDecodeAppliesPostedValues(t *testing.T) {
	session := decodeSession(t)
	values := url.Values{
		"contact.name": {"Dr. X"},
		"tags":         {"a", "b"},
		"geneVariants": {"v1"},
	}
	if err := Decode(session, values, nil); err != nil {
		t.Fatalf("decode: %v", err)
	}

	got := session.Values()
	want := map[string]any{
		"contact":      map[string]any{"name": "Dr. X"},
		"flag":         false,
		"tags":         []string{"a", "b"},
		"geneVariants": []gene{{"v1", "BRCA1"}},
	}
	if diff := cmp.Diff(want, map[string]any(got)); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeKeepsSelectionHiddenByFilter(t *testing.T) {
	session := decodeSession(t)
	values := url.Values{
		"_filter.geneVariants": {"BRCA"},
		"geneVariants":         {"v2"},
	}
	if err := Decode(session, values, nil); err != nil {
		t.Fatalf("decode: %v", err)
	}

	display, err := session.Display("geneVariants")
	if err != nil {
		t.Fatalf("display: %v", err)
	}
	if diff := cmp.Diff(selection.Map{"v2": true, "v3": true}, display); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	name, _ := session.Display("contact.name")
	if name != "Dr. Y" {
		t.Fatalf("absent text input must be left alone, got %v", name)
	}
}

func TestQueriesReadsFilters(t *testing.T) {
	got := Queries(url.Values{"_filter.geneVariants": {"tt"}, "_filter.": {"x"}, "other": {"y"}})
	want := map[string]model.TableQuery{"geneVariants": {Filter: "tt"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("queries mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeLeavesUntouchedSelectionAlone(t *testing.T) {
	cases := []struct {
		name    string
		loading bool
	}{
		{name: "rows loading", loading: true},
		{name: "rows absent", loading: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := selection.NewInput(
				func(g gene) string { return g.ID },
				func() []gene { return nil },
				[]selection.Column[gene]{{Name: "gene", Header: "Gene", Value: func(g gene) any { return g.Symbol }}},
				selection.WithLoading[gene](func() bool { return tc.loading }),
			)
			saved := []gene{{"v1", "BRCA1"}}
			session, err := form.New(model.Descriptors{
				{Name: "contact.name", Kind: model.KindText},
				input.Descriptor("geneVariants", "Genotypes"),
			}, map[string]any{"geneVariants": saved})
			if err != nil {
				t.Fatalf("new form: %v", err)
			}

			if err := Decode(session, url.Values{"contact.name": {"Dr. Q"}}, nil); err != nil {
				t.Fatalf("decode: %v", err)
			}

			stored, ok := session.Stored("geneVariants")
			if !ok {
				t.Fatalf("geneVariants missing after decode")
			}
			if diff := cmp.Diff(saved, stored); diff != "" {
				t.Fatalf("selection must survive a post that never drew it (-want +got):\n%s", diff)
			}
			if session.Touched("geneVariants") {
				t.Fatalf("untouched table must not be marked touched")
			}
		})
	}
}
