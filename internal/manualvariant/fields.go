package manualvariant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

const (
	// FormID keys the dialog's ui schema overlay.
	FormID = "manual-variant"
	// BaseFormID prefixes the per-family dialog id.
	BaseFormID = "addVariant-"

	// NoteTagName is the free-text tag type, never offered in the dialog.
	NoteTagName = "Note"

	fieldChrom         = "chrom"
	fieldPos           = "pos"
	fieldEnd           = "end"
	fieldGenomeVersion = "genomeVersion"
	fieldTags          = "tags"
	fieldSVName        = "svName"
	fieldSVType        = "svType"
	fieldGenotypes     = "genotypes"

	copyNumberKey = "cn"
	minCopyNumber = 0
	maxCopyNumber = 12

	msgRequired = "Required"
	msgInteger  = "Must be a whole number"
)

// Chromosomes lists the selectable chromosomes in karyotype order.
var Chromosomes = func() []string {
	out := make([]string, 0, 24)
	for i := 1; i <= 22; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return append(out, "X", "Y")
}()

// SVTypes lists the structural variant classes.
var SVTypes = []model.Option{
	{Value: "DEL", Text: "Deletion"},
	{Value: "DUP", Text: "Duplication"},
	{Value: "Multiallelic CNV"},
	{Value: "Insertion"},
	{Value: "Inversion"},
	{Value: "Complex SVs"},
	{Value: "Other"},
}

// GenomeVersions lists the supported reference builds.
var GenomeVersions = []model.Option{
	{Value: "37", Text: "GRCh37"},
	{Value: "38", Text: "GRCh38"},
}

// TagType is a project variant tag a manual variant may be filed under.
type TagType struct {
	Name        string `json:"name" yaml:"name"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Member is a family member offered a copy number input.
type Member struct {
	GUID        string `json:"individualGuid" yaml:"individualGuid"`
	DisplayName string `json:"displayName" yaml:"displayName"`
}

// Descriptors declares the dialog fields. Tag options come from tagTypes,
// minus the note tag; copy number inputs follow members in the order given.
func Descriptors(tagTypes []TagType, members []Member) model.Descriptors {
	chromosomes := make([]model.Option, 0, len(Chromosomes))
	for _, chrom := range Chromosomes {
		chromosomes = append(chromosomes, model.Option{Value: chrom})
	}

	position := func(name, label string) model.FieldDescriptor {
		return model.FieldDescriptor{
			Name:   name,
			Label:  label,
			Kind:   model.KindInteger,
			Parse:  parseInteger,
			Rules:  []model.ValidationRule{model.Required(), model.Rule(model.ValidationRuleMin, "0")},
			Layout: model.Layout{Inline: true, Width: 7},
		}
	}

	return model.Descriptors{
		{
			Name:    fieldChrom,
			Label:   "Chrom",
			Kind:    model.KindSelect,
			Options: chromosomes,
			Rules:   []model.ValidationRule{model.Required()},
			Layout:  model.Layout{Inline: true, Width: 2},
		},
		position(fieldPos, "Start Position"),
		position(fieldEnd, "Stop Position"),
		{
			Name:    fieldGenomeVersion,
			Label:   "Genome Version",
			Kind:    model.KindSelect,
			Options: GenomeVersions,
			Rules:   []model.ValidationRule{model.Required()},
		},
		{
			Name:      fieldTags,
			Label:     "Tags",
			Kind:      model.KindMultiSelect,
			Options:   tagOptions(tagTypes),
			Format:    formatTags,
			Normalize: normalizeTags,
			Validate:  requireTags,
			Layout:    model.Layout{Inline: true, Width: 16},
		},
		{
			Name:   fieldSVName,
			Label:  "SV Name",
			Kind:   model.KindText,
			Rules:  []model.ValidationRule{model.Required()},
			Layout: model.Layout{Inline: true, Width: 8},
		},
		{
			Name:    fieldSVType,
			Label:   "SV Type",
			Kind:    model.KindSelect,
			Options: SVTypes,
			Rules:   []model.ValidationRule{model.Required()},
			Layout:  model.Layout{Inline: true, Width: 8},
		},
		genotypeGroup(members),
	}
}

func genotypeGroup(members []Member) model.FieldDescriptor {
	nested := make([]model.FieldDescriptor, 0, len(members))
	for _, member := range members {
		nested = append(nested, model.FieldDescriptor{
			Name:      member.GUID,
			Label:     member.DisplayName,
			Kind:      model.KindInteger,
			Parse:     parseInteger,
			Normalize: normalizeCopyNumber,
			Format:    formatCopyNumber,
			Validate:  validateCopyNumber,
		})
	}
	return model.FieldDescriptor{
		Name:     fieldGenotypes,
		Label:    "Copy Number",
		Kind:     model.KindGroup,
		Nested:   nested,
		Validate: requireCopyNumber,
		Layout:   model.Layout{Inline: true, Width: 16},
	}
}

func tagOptions(tagTypes []TagType) []model.Option {
	out := make([]model.Option, 0, len(tagTypes))
	for _, tag := range tagTypes {
		if tag.Name == NoteTagName {
			continue
		}
		description := tag.Description
		if tag.Category != "" {
			description = strings.TrimSpace(tag.Category + ": " + description)
		}
		out = append(out, model.Option{Value: tag.Name, Color: tag.Color, Description: description})
	}
	return out
}

// parseInteger accepts ints and numeric text. Blank input clears the value.
func parseInteger(display any) (any, error) {
	switch v := display.(type) {
	case nil:
		return nil, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return nil, errors.New(msgInteger)
		}
		return int(v), nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, errors.New(msgInteger)
		}
		return n, nil
	default:
		return nil, errors.New(msgInteger)
	}
}

func normalizeCopyNumber(value any, _ valuebag.Bag) any {
	if value == nil {
		return nil
	}
	return map[string]any{copyNumberKey: value}
}

func formatCopyNumber(stored any) any {
	if m, ok := stored.(map[string]any); ok {
		return m[copyNumberKey]
	}
	return nil
}

func validateCopyNumber(value any, _ valuebag.Bag) string {
	cn := formatCopyNumber(value)
	if cn == nil {
		return ""
	}
	n, ok := toInt(cn)
	if !ok {
		return msgInteger
	}
	if n < minCopyNumber {
		return fmt.Sprintf("Must be at least %d", minCopyNumber)
	}
	if n > maxCopyNumber {
		return fmt.Sprintf("Must be at most %d", maxCopyNumber)
	}
	return ""
}

// requireCopyNumber needs at least one member with an entered copy number.
func requireCopyNumber(value any, _ valuebag.Bag) string {
	members, _ := value.(map[string]any)
	for _, entry := range members {
		if formatCopyNumber(entry) != nil {
			return ""
		}
	}
	return msgRequired
}

func toInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	default:
		return 0, false
	}
}

// formatTags shows stored [{name}] objects as their names.
func formatTags(stored any) any {
	out := []string{}
	switch v := stored.(type) {
	case []map[string]any:
		for _, tag := range v {
			if name, ok := tag["name"].(string); ok {
				out = append(out, name)
			}
		}
	case []any:
		for _, item := range v {
			if tag, ok := item.(map[string]any); ok {
				if name, ok := tag["name"].(string); ok {
					out = append(out, name)
				}
			}
		}
	}
	return out
}

// normalizeTags stores selected names as [{name}] objects.
func normalizeTags(value any, _ valuebag.Bag) any {
	var names []string
	switch v := value.(type) {
	case []string:
		names = v
	case []any:
		for _, item := range v {
			if name, ok := item.(string); ok {
				names = append(names, name)
			}
		}
	case string:
		if v != "" {
			names = []string{v}
		}
	}
	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]any{"name": name})
	}
	return out
}

func requireTags(value any, _ valuebag.Bag) string {
	if valuebag.Len(value) > 0 {
		return ""
	}
	return msgRequired
}
