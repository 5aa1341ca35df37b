package render_test

import (
	"errors"
	"testing"

	"github.com/shulp2211/seqr-formkit/pkg/render"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestLocalizePage_UsesKeysAndFallbacks(t *testing.T) {
	page := render.Page{
		Title: "Matchmaker Submission",
		Metadata: map[string]string{
			"layout.titleKey":          "mme.title",
			"section.contact.titleKey": "mme.sections.contact",
		},
		Sections: []render.Section{{ID: "contact", Title: "Contact"}},
		Fields: []render.Field{{
			Name:        "patient.contact.name",
			Label:       "Contact Name",
			Placeholder: "Full name",
			Metadata: map[string]string{
				"labelKey":       "mme.contact.name",
				"placeholderKey": "mme.contact.name.placeholder",
			},
		}},
	}

	render.LocalizePage(&page, render.RenderOptions{
		Locale:     "es",
		Translator: stubTranslator{"mme.contact.name": "Nombre de contacto", "mme.sections.contact": "Contacto"},
	})

	if page.Title != "Matchmaker Submission" {
		t.Fatalf("expected title to fall back when missing, got %q", page.Title)
	}
	if page.Sections[0].Title != "Contacto" {
		t.Fatalf("expected translated section title, got %q", page.Sections[0].Title)
	}
	if page.Fields[0].Label != "Nombre de contacto" {
		t.Fatalf("expected translated field label, got %q", page.Fields[0].Label)
	}
	if page.Fields[0].Placeholder != "Full name" {
		t.Fatalf("expected placeholder fallback, got %q", page.Fields[0].Placeholder)
	}
}

func TestLocalizePage_MissingTranslator(t *testing.T) {
	var gotErr error
	page := render.Page{
		Fields: []render.Field{{Name: "comments", Metadata: map[string]string{"helpKey": "status.comments.help"}}},
	}
	render.LocalizePage(&page, render.RenderOptions{
		OnMissing: func(_ string, key string, _ []any, err error) string {
			gotErr = err
			return "[" + key + "]"
		},
	})
	if !errors.Is(gotErr, render.ErrMissingTranslator) {
		t.Fatalf("expected ErrMissingTranslator, got %v", gotErr)
	}
	if page.Fields[0].Help != "[status.comments.help]" {
		t.Fatalf("unexpected help text %q", page.Fields[0].Help)
	}
}
