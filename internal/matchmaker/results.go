package matchmaker

import (
	"strings"
	"time"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/selection"
)

const dateLayout = "2006-01-02"

// ResultColumns lists the match results table columns.
func ResultColumns() []selection.Column[MatchResult] {
	return []selection.Column[MatchResult]{
		{Name: "id", Header: "Match", Width: 2, Value: func(r MatchResult) any { return r.ID }},
		{
			Name:   "createdDate",
			Header: "First Seen",
			Width:  1,
			Value:  func(r MatchResult) any { return r.CreatedDate },
			Format: func(r MatchResult) string { return formatDate(r.CreatedDate) },
		},
		{Name: "contact", Header: "Contact", Width: 3, Format: contactText},
		{Name: "geneVariants", Header: "Genes", Width: 2, Format: geneText},
		{Name: "phenotypes", Header: "Phenotypes", Width: 4, Format: phenotypeText},
		{Name: "comments", Header: "Follow Up Status", Width: 4, Format: statusText},
	}
}

// ResultsTable is the read-only match table, newest first unless query
// says otherwise.
func ResultsTable(results []MatchResult, query model.TableQuery, loading bool) model.TableView {
	table := selection.Table[MatchResult]{
		Columns:     ResultColumns(),
		ID:          func(r MatchResult) string { return r.ID },
		DefaultSort: "createdDate",
		Descending:  true,
	}
	view := table.View(results, nil, query)
	view.Loading = loading
	return view
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func contactText(r MatchResult) string {
	c := r.Patient.Contact
	if c == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, part := range []string{c.Institution, c.Name, strings.Replace(c.Href, mailtoPrefix, "", 1)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " / ")
}

func geneText(r MatchResult) string {
	parts := make([]string, 0, len(r.GeneVariants))
	for _, v := range r.GeneVariants {
		if v.GeneSymbol != "" {
			parts = append(parts, v.GeneSymbol)
			continue
		}
		parts = append(parts, v.Summary())
	}
	return strings.Join(parts, ", ")
}

func phenotypeText(r MatchResult) string {
	parts := make([]string, 0, len(r.Phenotypes))
	for _, p := range r.Phenotypes {
		label := p.Label
		if label == "" {
			label = p.ID
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}

func statusText(r MatchResult) string {
	badges := StatusBadges(r.MatchStatus)
	parts := make([]string, 0, len(badges)+1)
	for _, badge := range badges {
		parts = append(parts, badge.Text)
	}
	if r.MatchStatus.Comments != "" {
		parts = append(parts, r.MatchStatus.Comments)
	}
	return strings.Join(parts, "; ")
}
