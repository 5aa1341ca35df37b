package manualvariant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/lifecycle"
	"github.com/shulp2211/seqr-formkit/pkg/uischema"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

type recorder struct {
	payloads []valuebag.Bag
	err      error
}

func (r *recorder) UpdateVariantTags(_ context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
	r.payloads = append(r.payloads, payload)
	if r.err != nil {
		return nil, r.err
	}
	return valuebag.Bag{"variantGuid": "SV0001"}, nil
}

var (
	testFamily = Family{
		GUID:        "F1",
		DisplayName: "1",
		Members: []Member{
			{GUID: "I1", DisplayName: "proband"},
			{GUID: "I2", DisplayName: "mother"},
		},
	}
	testProject = Project{
		GUID:          "P1",
		GenomeVersion: "38",
		TagTypes: []TagType{
			{Name: "Known gene", Category: "CMG Discovery Tags", Color: "#03441E"},
			{Name: NoteTagName},
			{Name: "Tier 1"},
		},
	}
	staff = User{Username: "staff", IsStaff: true}
)

func fill(t *testing.T, session *form.Form) {
	t.Helper()
	changes := []struct {
		name  string
		value any
	}{
		{"chrom", "X"},
		{"pos", "1000"},
		{"end", "2500"},
		{"svName", "DEL_X_1"},
		{"svType", "DEL"},
		{"tags", []string{"Known gene"}},
		{"genotypes.I1", "1"},
		{"genotypes.I2", "2"},
	}
	for _, change := range changes {
		require.NoError(t, session.Change(change.name, change.value), change.name)
	}
}

func TestDialogShapesPayload(t *testing.T) {
	svc := &recorder{}
	var saved valuebag.Bag
	dialog, err := NewDialog(testFamily, testProject, staff, svc, WithOnSaved(func(b valuebag.Bag) { saved = b }))
	require.NoError(t, err)

	ctrl := dialog.Controller()
	assert.Equal(t, "addVariant-F1", dialog.ID())
	assert.Equal(t, "Add a Manual Variant for Family 1", ctrl.Title())
	assert.Equal(t, ButtonText, ctrl.View().Title)

	session, err := ctrl.BeginEdit(false)
	require.NoError(t, err)
	version, err := session.Display("genomeVersion")
	require.NoError(t, err)
	assert.Equal(t, "38", version)

	fill(t, session)
	tags, err := session.Display("tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"Known gene"}, tags)
	cn, err := session.Display("genotypes.I2")
	require.NoError(t, err)
	assert.Equal(t, 2, cn)

	_, err = ctrl.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, svc.payloads, 1)

	payload := svc.payloads[0]
	assert.Equal(t, "F1", payload["familyGuid"])
	assert.Equal(t, []map[string]any{{"name": "Known gene"}}, payload["tags"])
	variant, ok := payload["variant"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "DEL_X_1", variant["variantId"])
	assert.Equal(t, "X", variant["chrom"])
	assert.Equal(t, 1000, variant["pos"])
	assert.Equal(t, "38", variant["genomeVersion"])
	assert.NotContains(t, variant, "tags")
	assert.Equal(t, map[string]any{
		"I1": map[string]any{"cn": 1},
		"I2": map[string]any{"cn": 2},
	}, variant["genotypes"])

	assert.Equal(t, valuebag.Bag{"variantGuid": "SV0001"}, saved)
	assert.Equal(t, lifecycle.Viewing, ctrl.State())

	next, err := ctrl.BeginEdit(false)
	require.NoError(t, err)
	svName, err := next.Display("svName")
	require.NoError(t, err)
	assert.Nil(t, svName)
}

func TestDialogRequiresEveryField(t *testing.T) {
	svc := &recorder{}
	dialog, err := NewDialog(testFamily, testProject, staff, svc)
	require.NoError(t, err)
	ctrl := dialog.Controller()
	_, err = ctrl.BeginEdit(false)
	require.NoError(t, err)

	_, err = ctrl.Submit(context.Background())
	var verr *form.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, name := range []string{"chrom", "pos", "end", "svName", "svType", "tags", "genotypes"} {
		assert.Equal(t, []string{"Required"}, verr.Fields[name], name)
	}
	assert.NotContains(t, verr.Fields, "genomeVersion")
	assert.Empty(t, svc.payloads)
}

func TestDialogFieldRules(t *testing.T) {
	dialog, err := NewDialog(testFamily, testProject, staff, &recorder{})
	require.NoError(t, err)
	session, err := dialog.Controller().BeginEdit(false)
	require.NoError(t, err)

	var perr *form.ParseError
	require.ErrorAs(t, session.Change("pos", "12.5"), &perr)
	assert.Equal(t, []string{"Must be a whole number"}, session.FieldErrors("pos"))

	require.NoError(t, session.Change("pos", "-1"))
	assert.Equal(t, []string{"Must be at least 0"}, session.FieldErrors("pos"))

	require.NoError(t, session.Change("genotypes.I1", "13"))
	assert.Equal(t, []string{"Must be at most 12"}, session.FieldErrors("genotypes.I1"))

	require.NoError(t, session.Change("genotypes.I1", ""))
	assert.Empty(t, session.FieldErrors("genotypes.I1"))
	require.NoError(t, session.Touch("genotypes"))
	assert.Equal(t, []string{"Required"}, session.FieldErrors("genotypes"))
}

func TestDialogDispatchFailure(t *testing.T) {
	svc := &recorder{err: errors.New("Network error")}
	dialog, err := NewDialog(testFamily, testProject, staff, svc)
	require.NoError(t, err)
	ctrl := dialog.Controller()
	session, err := ctrl.BeginEdit(false)
	require.NoError(t, err)
	fill(t, session)

	_, err = ctrl.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, lifecycle.Editing, ctrl.State())
	assert.Equal(t, "Network error", ctrl.ErrorPanel())
	name, err := ctrl.Form().Display("svName")
	require.NoError(t, err)
	assert.Equal(t, "DEL_X_1", name)
}

func TestDialogStaffOnly(t *testing.T) {
	dialog, err := NewDialog(testFamily, testProject, User{Username: "analyst"}, &recorder{})
	require.NoError(t, err)
	assert.False(t, dialog.Visible())
	assert.False(t, dialog.Controller().CanEdit())
	_, err = dialog.Controller().BeginEdit(true)
	assert.ErrorIs(t, err, lifecycle.ErrNotEditable)
}

func TestDescriptorsOptions(t *testing.T) {
	descriptors := Descriptors(testProject.TagTypes, testFamily.Members)
	require.NoError(t, descriptors.Check())

	chrom, ok := descriptors.Find("chrom")
	require.True(t, ok)
	require.Len(t, chrom.Options, 24)
	assert.Equal(t, "1", chrom.Options[0].Value)
	assert.Equal(t, "Y", chrom.Options[23].Value)

	tags, ok := descriptors.Find("tags")
	require.True(t, ok)
	require.Len(t, tags.Options, 2)
	assert.Equal(t, "Known gene", tags.Options[0].Value)
	assert.Equal(t, "CMG Discovery Tags:", tags.Options[0].Description)

	svType, ok := descriptors.Find("svType")
	require.True(t, ok)
	assert.Equal(t, "Deletion", svType.Options[0].Label())
	assert.Equal(t, "Multiallelic CNV", svType.Options[2].Label())

	member, ok := descriptors.Find("genotypes.I2")
	require.True(t, ok)
	assert.Equal(t, "mother", member.Label)
}

func TestDialogAppliesOverlay(t *testing.T) {
	store, err := uischema.LoadFS(uischema.EmbeddedFS())
	require.NoError(t, err)
	dialog, err := NewDialog(testFamily, testProject, staff, &recorder{}, WithDecorators(uischema.NewDecorator(store)))
	require.NoError(t, err)

	session, err := dialog.Controller().BeginEdit(false)
	require.NoError(t, err)
	assert.Equal(t, "Record a structural variant called outside the pipeline", session.Metadata()["layout.subtitle"])
	tags, ok := session.Descriptors().Find("tags")
	require.True(t, ok)
	assert.Equal(t, "At least one tag is required", tags.Help)
}
