package matchmaker

import (
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// MatchStatusFormID names the follow up status form.
const MatchStatusFormID = "mme-match-status"

// MatchStatusTitle is the edit dialog title for a match's follow up status.
const MatchStatusTitle = "Edit MME Submission Status"

// MatchStatusDescriptors declares the follow up status form.
func MatchStatusDescriptors() model.Descriptors {
	inline := model.Layout{Inline: true}
	return model.Descriptors{
		{Name: "weContacted", Label: "We Contacted Host", Kind: model.KindCheckbox, Layout: inline},
		{Name: "hostContacted", Label: "Host Contacted Us", Kind: model.KindCheckbox, Layout: inline},
		{Name: "flagForAnalysis", Label: "Flag for Analysis", Kind: model.KindCheckbox, Layout: inline},
		{Name: "deemedIrrelevant", Label: "Deemed Irrelevant", Kind: model.KindCheckbox, Layout: inline},
		{Name: "comments", Label: "Comments", Kind: model.KindTextArea, Layout: model.Layout{Rows: 5}},
	}
}

// ContactedLabel summarises who reached out first.
func ContactedLabel(status MatchStatus) string {
	if status.HostContacted {
		return "Host Contacted Us"
	}
	if status.WeContacted {
		return "We Contacted Host"
	}
	return "Not Contacted"
}

// StatusBadges renders the contacted label plus the analysis flags.
func StatusBadges(status MatchStatus) []model.Badge {
	color := "orange"
	if status.HostContacted || status.WeContacted {
		color = "green"
	}
	badges := []model.Badge{{Text: ContactedLabel(status), Color: color}}
	if status.FlagForAnalysis {
		badges = append(badges, model.Badge{Text: "Flag for Analysis", Color: "purple"})
	}
	if status.DeemedIrrelevant {
		badges = append(badges, model.Badge{Text: "Deemed Irrelevant", Color: "red"})
	}
	return badges
}

// StatusDisplay is the read-only view of a follow up status.
func StatusDisplay(value valuebag.Bag, present bool) model.Display {
	status := MatchStatusFromBag(value)
	out := model.Display{Badges: StatusBadges(status)}
	if !present {
		return out
	}
	if status.Comments != "" {
		out.Lines = []model.Line{{Value: status.Comments}}
	}
	return out
}
