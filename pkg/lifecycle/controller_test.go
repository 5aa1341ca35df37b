package lifecycle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/lifecycle"
	"github.com/shulp2211/seqr-formkit/pkg/metrics"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

func contactDescriptors() model.Descriptors {
	return model.Descriptors{
		{Name: "contact.name", Label: "Contact Name", Rules: []model.ValidationRule{model.Required()}},
		{Name: "comments", Kind: model.KindTextArea},
	}
}

type recorder struct {
	payloads []valuebag.Bag
	respond  func(valuebag.Bag) (valuebag.Bag, error)
}

func (r *recorder) submit(_ context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
	r.payloads = append(r.payloads, payload)
	return r.respond(payload)
}

func TestController_RejectionKeepsEdits(t *testing.T) {
	rec := &recorder{respond: func(valuebag.Bag) (valuebag.Bag, error) {
		return nil, errors.New("Network error")
	}}
	collector, err := metrics.New(nil)
	require.NoError(t, err)

	c, err := lifecycle.New(contactDescriptors(), valuebag.Bag{"contact": map[string]any{"name": "Dr. A"}}, rec.submit,
		lifecycle.WithName("mme"), lifecycle.WithMetrics(collector))
	require.NoError(t, err)

	session, err := c.BeginEdit(false)
	require.NoError(t, err)
	require.NoError(t, session.Change("contact.name", "Dr. B"))
	require.NoError(t, session.Change("comments", "follow up"))

	res, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Network error", res.Message)
	assert.Equal(t, lifecycle.Editing, c.State())
	assert.Equal(t, "Network error", c.ErrorPanel())
	assert.Same(t, session, c.Form())

	values := c.Form().Values()
	assert.Equal(t, "Dr. B", values.Lookup("contact.name"))
	assert.Equal(t, "follow up", values.Lookup("comments"))

	current, _ := c.Current()
	assert.Equal(t, "Dr. A", current.Lookup("contact.name"), "failed submit must not touch the current value")
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Submissions().WithLabelValues("mme", "submit", "error")))

	// Retrying the same edit needs no re-entry.
	rec.respond = func(p valuebag.Bag) (valuebag.Bag, error) { return p, nil }
	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Viewing, c.State())
	assert.Empty(t, c.ErrorPanel())
	assert.Len(t, rec.payloads, 2)
}

func TestController_ResolvedValueSeedsNextEdit(t *testing.T) {
	rec := &recorder{respond: func(valuebag.Bag) (valuebag.Bag, error) {
		return valuebag.Bag{"contact": map[string]any{"name": "Dr. X"}}, nil
	}}
	c, err := lifecycle.New(contactDescriptors(), valuebag.Bag{"contact": map[string]any{"name": "Dr. A"}}, rec.submit)
	require.NoError(t, err)

	session, err := c.BeginEdit(false)
	require.NoError(t, err)
	require.NoError(t, session.Change("contact.name", "Dr. Typed"))

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dr. X", res.Value.Lookup("contact.name"))
	assert.Equal(t, lifecycle.Viewing, c.State())
	assert.Nil(t, c.Form())

	view := c.View()
	require.NotEmpty(t, view.Lines)
	assert.Equal(t, model.Line{Label: "Contact Name", Value: "Dr. X"}, view.Lines[0])

	next, err := c.BeginEdit(false)
	require.NoError(t, err)
	display, err := next.Display("contact.name")
	require.NoError(t, err)
	assert.Equal(t, "Dr. X", display)
}

func TestController_ValidationBlocksDispatch(t *testing.T) {
	rec := &recorder{respond: func(p valuebag.Bag) (valuebag.Bag, error) { return p, nil }}
	c, err := lifecycle.New(contactDescriptors(), nil, rec.submit)
	require.NoError(t, err)

	_, err = c.BeginEdit(false)
	require.NoError(t, err)
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, form.ErrInvalid)
	assert.Empty(t, rec.payloads)
	assert.Equal(t, lifecycle.Editing, c.State())
	assert.Empty(t, c.ErrorPanel(), "validation errors stay inline")
	assert.Equal(t, []string{"Required"}, c.Form().FieldErrors("contact.name"))
}

func TestController_ContextMergedIntoPayload(t *testing.T) {
	rec := &recorder{respond: func(p valuebag.Bag) (valuebag.Bag, error) { return p, nil }}
	c, err := lifecycle.New(contactDescriptors(), valuebag.Bag{"contact": map[string]any{"name": "Dr. A"}}, rec.submit,
		lifecycle.WithContext(valuebag.Bag{"individualGuid": "I0001"}))
	require.NoError(t, err)

	_, err = c.BeginEdit(false)
	require.NoError(t, err)
	_, err = c.Submit(context.Background())
	require.NoError(t, err)

	require.Len(t, rec.payloads, 1)
	assert.Equal(t, "I0001", rec.payloads[0].Lookup("individualGuid"))
	assert.Equal(t, "Dr. A", rec.payloads[0].Lookup("contact.name"))
}

func TestController_ConfirmAndEditableGates(t *testing.T) {
	rec := &recorder{respond: func(p valuebag.Bag) (valuebag.Bag, error) { return p, nil }}
	c, err := lifecycle.New(contactDescriptors(), nil, rec.submit,
		lifecycle.WithConfirm("Editing will resubmit to the matchmaker. Continue?"),
		lifecycle.WithEditable(func(_ valuebag.Bag, present bool) bool { return present }))
	require.NoError(t, err)

	assert.False(t, c.CanEdit())
	_, err = c.BeginEdit(true)
	assert.ErrorIs(t, err, lifecycle.ErrNotEditable)

	assert.True(t, c.Refresh(valuebag.Bag{"contact": map[string]any{"name": "Dr. A"}}, true))
	_, err = c.BeginEdit(false)
	assert.ErrorIs(t, err, lifecycle.ErrConfirmationRequired)
	assert.Equal(t, lifecycle.Viewing, c.State())

	_, err = c.BeginEdit(true)
	require.NoError(t, err)
	assert.NotEmpty(t, c.SessionID())

	_, err = c.BeginEdit(true)
	assert.ErrorIs(t, err, lifecycle.ErrBusy)
	assert.False(t, c.Refresh(nil, false), "refresh must not clobber an open edit")

	require.NoError(t, c.Cancel())
	assert.Equal(t, lifecycle.Viewing, c.State())
	assert.ErrorIs(t, c.Cancel(), lifecycle.ErrNotEditing)
}

func TestController_DeleteUsesSubmitPath(t *testing.T) {
	rec := &recorder{respond: func(valuebag.Bag) (valuebag.Bag, error) { return nil, nil }}
	c, err := lifecycle.New(contactDescriptors(), valuebag.Bag{"contact": map[string]any{"name": "Dr. A"}}, rec.submit,
		lifecycle.WithContext(valuebag.Bag{"individualGuid": "I0001"}),
		lifecycle.WithDelete(nil),
		lifecycle.WithDeleteConfirm("Are you sure you want to remove this patient from the Matchmaker Exchange?"))
	require.NoError(t, err)

	require.True(t, c.CanDelete())
	_, err = c.Delete(context.Background(), false)
	assert.ErrorIs(t, err, lifecycle.ErrConfirmationRequired)
	assert.Empty(t, rec.payloads)

	_, err = c.Delete(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, rec.payloads, 1)
	assert.Equal(t, valuebag.Bag{"individualGuid": "I0001", lifecycle.DeleteKey: true}, rec.payloads[0])

	_, present := c.Current()
	assert.False(t, present)
	assert.True(t, c.View().Empty)
	assert.False(t, c.CanDelete())
}

func TestController_DeleteFailureShowsPanel(t *testing.T) {
	rec := &recorder{respond: func(valuebag.Bag) (valuebag.Bag, error) {
		return nil, &lifecycle.RejectionError{Message: "Unable to delete submission"}
	}}
	c, err := lifecycle.New(contactDescriptors(), valuebag.Bag{"contact": map[string]any{"name": "Dr. A"}}, rec.submit,
		lifecycle.WithDelete(nil))
	require.NoError(t, err)

	res, err := c.Delete(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, "Unable to delete submission", res.Message)
	assert.Equal(t, lifecycle.Viewing, c.State())
	assert.Equal(t, "Unable to delete submission", c.ErrorPanel())
	_, present := c.Current()
	assert.True(t, present)
}

func TestController_SubmitOutsideEditing(t *testing.T) {
	rec := &recorder{respond: func(p valuebag.Bag) (valuebag.Bag, error) { return p, nil }}
	c, err := lifecycle.New(contactDescriptors(), nil, rec.submit)
	require.NoError(t, err)
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, lifecycle.ErrNotEditing)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "viewing", lifecycle.Viewing.String())
	assert.Equal(t, "editing", lifecycle.Editing.String())
	assert.Equal(t, "submitting", lifecycle.Submitting.String())
}
