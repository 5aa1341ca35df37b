package matchmaker

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// Tag is a saved-variant tag.
type Tag struct {
	TagGUID string `json:"tagGuid,omitempty" yaml:"tagGuid,omitempty"`
	Name    string `json:"name" yaml:"name"`
	Color   string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Variant is a tagged variant that can be shared in a submission.
type Variant struct {
	VariantID  string `json:"variantId,omitempty" yaml:"variantId,omitempty"`
	Chrom      string `json:"chrom" yaml:"chrom"`
	Pos        int    `json:"pos" yaml:"pos"`
	Ref        string `json:"ref,omitempty" yaml:"ref,omitempty"`
	Alt        string `json:"alt,omitempty" yaml:"alt,omitempty"`
	Xpos       int64  `json:"xpos,omitempty" yaml:"xpos,omitempty"`
	GeneSymbol string `json:"geneSymbol,omitempty" yaml:"geneSymbol,omitempty"`
	NumAlt     int    `json:"numAlt" yaml:"numAlt"`
	Tags       []Tag  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Key identifies the variant in a selection. Variants without an id fall
// back to chrom-pos-ref-alt, which is not guaranteed unique; callers should
// check rows with selection.DuplicateIDs.
func (v Variant) Key() string {
	if v.VariantID != "" {
		return v.VariantID
	}
	return fmt.Sprintf("%s-%d-%s-%s", v.Chrom, v.Pos, v.Ref, v.Alt)
}

// Position is the genome-wide sort key. Xpos is used when set, otherwise it
// is derived from the chromosome index.
func (v Variant) Position() int64 {
	if v.Xpos != 0 {
		return v.Xpos
	}
	return int64(chromIndex(v.Chrom))*1_000_000_000 + int64(v.Pos)
}

// Summary renders "chrom:pos ref > alt", or "chrom:pos" without an alt.
func (v Variant) Summary() string {
	out := fmt.Sprintf("%s:%d", v.Chrom, v.Pos)
	if v.Alt != "" {
		out += fmt.Sprintf(" %s > %s", v.Ref, v.Alt)
	}
	return out
}

// Genotype renders the allele pair for NumAlt.
func (v Variant) Genotype() string {
	ref, alt := v.Ref, v.Alt
	if ref == "" {
		ref = "ref"
	}
	if alt == "" {
		alt = "alt"
	}
	switch v.NumAlt {
	case 0:
		return ref + "/" + ref
	case 1:
		return ref + "/" + alt
	case 2:
		return alt + "/" + alt
	default:
		return "no call"
	}
}

// TagNames joins the tag names.
func (v Variant) TagNames() string {
	names := make([]string, 0, len(v.Tags))
	for _, tag := range v.Tags {
		names = append(names, tag.Name)
	}
	return strings.Join(names, ", ")
}

func chromIndex(chrom string) int {
	chrom = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(chrom)), "CHR")
	switch chrom {
	case "X":
		return 23
	case "Y":
		return 24
	case "M", "MT":
		return 25
	}
	n, err := strconv.Atoi(chrom)
	if err != nil {
		return 99
	}
	return n
}

// Phenotype is an HPO feature recorded for an individual.
type Phenotype struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Observed string `json:"observed,omitempty" yaml:"observed,omitempty"`
}

// IsObserved reports whether the feature was observed.
func (p Phenotype) IsObserved() bool {
	return p.Observed == "yes"
}

// Contact is the submitter contact shared with the exchange.
type Contact struct {
	Name        string `json:"name" yaml:"name"`
	Href        string `json:"href" yaml:"href"`
	Institution string `json:"institution,omitempty" yaml:"institution,omitempty"`
}

// Patient is the patient block of a submission or match.
type Patient struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Contact *Contact `json:"contact,omitempty" yaml:"contact,omitempty"`
}

// Submission is the data shared with the exchange for one individual.
type Submission struct {
	Patient      Patient     `json:"patient" yaml:"patient"`
	GeneVariants []Variant   `json:"geneVariants" yaml:"geneVariants"`
	Phenotypes   []Phenotype `json:"phenotypes" yaml:"phenotypes"`
}

// Bag converts the submission into the value bag edited by the form. Row
// lists keep their Go types so selection inputs can decode them.
func (s Submission) Bag() valuebag.Bag {
	patient := map[string]any{}
	if s.Patient.ID != "" {
		patient["id"] = s.Patient.ID
	}
	if c := s.Patient.Contact; c != nil {
		contact := map[string]any{"name": c.Name, "href": c.Href}
		if c.Institution != "" {
			contact["institution"] = c.Institution
		}
		patient["contact"] = contact
	}
	variants := append([]Variant{}, s.GeneVariants...)
	phenotypes := append([]Phenotype{}, s.Phenotypes...)
	return valuebag.Bag{
		"patient":      patient,
		"geneVariants": variants,
		"phenotypes":   phenotypes,
	}
}

// SubmissionFromBag decodes a value bag, typically a resolved server
// response, back into a Submission.
func SubmissionFromBag(bag valuebag.Bag) (Submission, error) {
	var out Submission
	if err := remarshal(map[string]any(bag), &out); err != nil {
		return Submission{}, errors.Wrap(err, "matchmaker: decode submission")
	}
	return out, nil
}

// MatchStatus is the follow up state of one match.
type MatchStatus struct {
	WeContacted      bool   `json:"weContacted" yaml:"weContacted"`
	HostContacted    bool   `json:"hostContacted" yaml:"hostContacted"`
	FlagForAnalysis  bool   `json:"flagForAnalysis" yaml:"flagForAnalysis"`
	DeemedIrrelevant bool   `json:"deemedIrrelevant" yaml:"deemedIrrelevant"`
	Comments         string `json:"comments" yaml:"comments"`
}

// Bag converts the status into a value bag.
func (s MatchStatus) Bag() valuebag.Bag {
	return valuebag.Bag{
		"weContacted":      s.WeContacted,
		"hostContacted":    s.HostContacted,
		"flagForAnalysis":  s.FlagForAnalysis,
		"deemedIrrelevant": s.DeemedIrrelevant,
		"comments":         s.Comments,
	}
}

// MatchStatusFromBag decodes a status value bag.
func MatchStatusFromBag(bag valuebag.Bag) MatchStatus {
	flag := func(key string) bool {
		v, _ := bag[key].(bool)
		return v
	}
	comments, _ := bag["comments"].(string)
	return MatchStatus{
		WeContacted:      flag("weContacted"),
		HostContacted:    flag("hostContacted"),
		FlagForAnalysis:  flag("flagForAnalysis"),
		DeemedIrrelevant: flag("deemedIrrelevant"),
		Comments:         comments,
	}
}

// MatchResult is one match returned by the exchange.
type MatchResult struct {
	GUID         string      `json:"matchmakerResultGuid" yaml:"matchmakerResultGuid"`
	ID           string      `json:"id" yaml:"id"`
	CreatedDate  time.Time   `json:"createdDate" yaml:"createdDate"`
	Patient      Patient     `json:"patient" yaml:"patient"`
	GeneVariants []Variant   `json:"geneVariants" yaml:"geneVariants"`
	Phenotypes   []Phenotype `json:"phenotypes" yaml:"phenotypes"`
	MatchStatus  MatchStatus `json:"matchStatus" yaml:"matchStatus"`
}

// Individual is an affected individual that can be submitted.
type Individual struct {
	GUID          string      `json:"individualGuid" yaml:"individualGuid"`
	IndividualID  string      `json:"individualId" yaml:"individualId"`
	FamilyGUID    string      `json:"familyGuid" yaml:"familyGuid"`
	Affected      string      `json:"affected" yaml:"affected"`
	Features      []Phenotype `json:"features" yaml:"features"`
	Submitted     *Submission `json:"mmeSubmittedData,omitempty" yaml:"mmeSubmittedData,omitempty"`
	SubmittedDate *time.Time  `json:"mmeSubmittedDate,omitempty" yaml:"mmeSubmittedDate,omitempty"`
	DeletedDate   *time.Time  `json:"mmeDeletedDate,omitempty" yaml:"mmeDeletedDate,omitempty"`
}

// Affected marks an affected individual.
const Affected = "A"

// HasSubmission reports whether the individual has a live submission.
func (i Individual) HasSubmission() bool {
	return i.Submitted != nil && i.SubmittedDate != nil && i.DeletedDate == nil
}

func remarshal(in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
