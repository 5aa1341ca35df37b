package matchmaker

import (
	"regexp"
	"strings"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/selection"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// SubmissionFormID names the submission form; overlays are keyed by it.
const SubmissionFormID = "mme-submission"

const (
	mailtoPrefix = "mailto:"

	msgInvalidContactURL = "Invalid contact url"
	msgDataRequired      = "Genotypes and/or phenotypes are required"

	UpdateConfirm = "Are you sure you want to update this submission?"
	CreateConfirm = "Are you sure you want to submit this individual?"
	DeleteConfirm = "Are you sure you want to remove this patient from the Matchmaker Exchange"
)

var contactURLPattern = regexp.MustCompile(`(?i)^mailto:[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,4}(,\s*[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{1,4})*$`)

// GenotypeColumns lists the saved-variant table columns.
func GenotypeColumns() []selection.Column[Variant] {
	return []selection.Column[Variant]{
		{Name: "geneSymbol", Header: "Gene", Width: 2, Value: func(v Variant) any { return v.GeneSymbol }},
		{Name: "xpos", Header: "Variant", Width: 3, Value: func(v Variant) any { return v.Position() }, Format: Variant.Summary},
		{Name: "numAlt", Header: "Genotype", Width: 2, Value: func(v Variant) any { return v.NumAlt }, Format: Variant.Genotype},
		{Name: "tags", Header: "Tags", Width: 8, Format: Variant.TagNames},
	}
}

// PhenotypeColumns lists the HPO feature table columns.
func PhenotypeColumns() []selection.Column[Phenotype] {
	return []selection.Column[Phenotype]{
		{Name: "id", Header: "HPO ID", Width: 3, Value: func(p Phenotype) any { return p.ID }},
		{Name: "label", Header: "Description", Width: 9, Value: func(p Phenotype) any { return p.Label }},
		{Name: "observed", Header: "Observed?", Width: 3, Align: "center", Value: func(p Phenotype) any { return p.Observed }, Format: observedMark},
	}
}

func observedMark(p Phenotype) string {
	if p.IsObserved() {
		return "✓"
	}
	return "✗"
}

// NewGenotypeInput binds the family's saved variants. loading reports an
// outstanding fetch and may be nil.
func NewGenotypeInput(rows func() []Variant, loading func() bool) *selection.Input[Variant] {
	opts := []selection.InputOption[Variant]{selection.WithDefaultSort[Variant]("xpos", false)}
	if loading != nil {
		opts = append(opts, selection.WithLoading[Variant](loading))
	}
	return selection.NewInput(Variant.Key, rows, GenotypeColumns(), opts...)
}

// NewPhenotypeInput binds the individual's HPO features.
func NewPhenotypeInput(rows func() []Phenotype) *selection.Input[Phenotype] {
	return selection.NewInput(func(p Phenotype) string { return p.ID }, rows, PhenotypeColumns(),
		selection.WithDefaultSort[Phenotype]("label", false))
}

// SubmissionDescriptors declares the submission form over the two tables.
func SubmissionDescriptors(variants *selection.Input[Variant], phenotypes *selection.Input[Phenotype]) model.Descriptors {
	genotypes := variants.Descriptor("geneVariants", "Genotypes")
	features := phenotypes.Descriptor("phenotypes", "Phenotypes")
	features.Validate = requireGenotypesOrPhenotypes

	return model.Descriptors{
		{Name: "patient.contact.name", Label: "Contact Name", Kind: model.KindText},
		{
			Name:     "patient.contact.href",
			Label:    "Contact URL",
			Kind:     model.KindText,
			Parse:    parseContactURL,
			Format:   formatContactURL,
			Validate: validateContactURL,
		},
		genotypes,
		features,
	}
}

func parseContactURL(display any) (any, error) {
	text, _ := display.(string)
	return mailtoPrefix + text, nil
}

func formatContactURL(stored any) any {
	text, _ := stored.(string)
	return strings.Replace(text, mailtoPrefix, "", 1)
}

func validateContactURL(value any, _ valuebag.Bag) string {
	text, _ := value.(string)
	if contactURLPattern.MatchString(text) {
		return ""
	}
	return msgInvalidContactURL
}

func requireGenotypesOrPhenotypes(value any, all valuebag.Bag) string {
	if valuebag.Len(value) > 0 {
		return ""
	}
	if variants, ok := all["geneVariants"]; ok && valuebag.Len(variants) > 0 {
		return ""
	}
	return msgDataRequired
}
