package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/lifecycle"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/render"
	"github.com/shulp2211/seqr-formkit/pkg/selection"
)

var plainText = bluemonday.StrictPolicy()

// Edit opens an edit on ctrl, prompts for every field and submits. Invalid
// fields are asked again until the form validates or the user gives up; a
// dispatcher failure offers a retry. Declining any confirmation cancels the
// edit and returns ErrDeclined.
func (r *Renderer) Edit(ctx context.Context, ctrl *lifecycle.Controller, opts render.RenderOptions) (lifecycle.Result, error) {
	if prompt := ctrl.ConfirmPrompt(); prompt != "" {
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: prompt})
		if err != nil {
			return lifecycle.Result{}, err
		}
		if !ok {
			return lifecycle.Result{}, ErrDeclined
		}
	}

	session, err := ctrl.BeginEdit(true)
	if err != nil {
		return lifecycle.Result{}, err
	}
	r.logger.Debug("tui edit started", "record", ctrl.Name(), "session", ctrl.SessionID())

	abort := func(err error) (lifecycle.Result, error) {
		if cerr := ctrl.Cancel(); cerr != nil {
			r.logger.Warn("tui cancel failed", "record", ctrl.Name(), "error", cerr)
		}
		return lifecycle.Result{}, err
	}

	names := promptable(render.BuildFields(session, opts))
	for {
		if err := r.promptFields(ctx, session, opts, names); err != nil {
			return abort(err)
		}

		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Submit?", Default: true})
		if err != nil {
			return abort(err)
		}
		if !ok {
			return abort(ErrDeclined)
		}

		result, err := ctrl.Submit(ctx)
		if err == nil {
			return result, nil
		}

		var verr *form.ValidationError
		if errors.As(err, &verr) {
			r.reportErrors(ctx, verr.Fields)
			names = form.SortedNames(verr.Fields)
			continue
		}

		_ = r.driver.Info(ctx, r.theme.Error.Render(lifecycle.Message(err)))
		retry, cerr := r.driver.Confirm(ctx, ConfirmConfig{Message: "Retry?"})
		if cerr != nil {
			return abort(cerr)
		}
		if !retry {
			if cancelErr := ctrl.Cancel(); cancelErr != nil {
				r.logger.Warn("tui cancel failed", "record", ctrl.Name(), "error", cancelErr)
			}
			return result, err
		}
		names = form.SortedNames(session.VisibleErrors())
	}
}

// Delete asks for the delete confirmation, when one is configured, and
// dispatches the delete.
func (r *Renderer) Delete(ctx context.Context, ctrl *lifecycle.Controller) (lifecycle.Result, error) {
	if prompt := ctrl.DeleteConfirmPrompt(); prompt != "" {
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: prompt})
		if err != nil {
			return lifecycle.Result{}, err
		}
		if !ok {
			return lifecycle.Result{}, ErrDeclined
		}
	}
	result, err := ctrl.Delete(ctx, true)
	if err != nil {
		_ = r.driver.Info(ctx, r.theme.Error.Render(lifecycle.Message(err)))
	}
	return result, err
}

func (r *Renderer) promptFields(ctx context.Context, session *form.Form, opts render.RenderOptions, names []string) error {
	for _, name := range expandGroups(render.BuildFields(session, opts), names) {
		field, ok := lookupField(render.BuildFields(session, opts), name)
		if !ok || field.Kind == model.KindGroup {
			continue
		}
		if err := r.promptField(ctx, session, field); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, session *form.Form, field render.Field) error {
	for {
		value, err := r.ask(ctx, field)
		if err != nil {
			return err
		}
		err = session.Change(field.Name, value)
		var perr *form.ParseError
		if errors.As(err, &perr) {
			_ = r.driver.Info(ctx, r.theme.Error.Render(fmt.Sprintf("%s: %v", field.Label, perr.Err)))
			continue
		}
		if err != nil {
			return err
		}
		for _, msg := range session.FieldErrors(field.Name) {
			_ = r.driver.Info(ctx, r.theme.Error.Render(fmt.Sprintf("%s: %s", field.Label, msg)))
		}
		return nil
	}
}

func (r *Renderer) ask(ctx context.Context, field render.Field) (any, error) {
	label := field.Label
	help := strings.TrimSpace(plainText.Sanitize(field.Help))

	switch field.Kind {
	case model.KindCheckbox:
		return r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: field.Checked, Help: help})
	case model.KindTextArea:
		return r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: field.Text, Help: help})
	case model.KindSelect:
		labels, selected := optionLabels(field.Options)
		defaultIdx := -1
		if len(selected) > 0 {
			defaultIdx = selected[0]
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: label, Options: labels, Descriptions: optionDescriptions(field.Options), DefaultIndex: defaultIdx, Help: help})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return "", nil
		}
		return field.Options[idx].Value, nil
	case model.KindMultiSelect:
		labels, selected := optionLabels(field.Options)
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{Message: label, Options: labels, Descriptions: optionDescriptions(field.Options), Defaults: selected, Help: help})
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(field.Options) {
				values = append(values, field.Options[idx].Value)
			}
		}
		return values, nil
	case model.KindSelectionTable:
		return r.askTable(ctx, field, help)
	default:
		return r.driver.Input(ctx, InputConfig{Message: label, Default: field.Text, Help: help})
	}
}

// askTable presents table rows as a multi-select; the answer becomes a
// selection map keyed by row id.
func (r *Renderer) askTable(ctx context.Context, field render.Field, help string) (any, error) {
	if field.Table == nil {
		return selection.Map{}, nil
	}
	view := field.Table
	labels := make([]string, 0, len(view.Rows))
	var defaults []int
	for idx, row := range view.Rows {
		labels = append(labels, strings.Join(row.Cells, " | "))
		if row.Selected {
			defaults = append(defaults, idx)
		}
	}
	indices, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  field.Label,
		Options:  labels,
		Defaults: defaults,
		Help:     help,
		PageSize: 15,
	})
	if err != nil {
		return nil, err
	}
	out := selection.Map{}
	for _, idx := range indices {
		if idx >= 0 && idx < len(view.Rows) {
			out = out.With(view.Rows[idx].ID, true)
		}
	}
	return out, nil
}

func (r *Renderer) reportErrors(ctx context.Context, errs map[string][]string) {
	for _, name := range form.SortedNames(errs) {
		for _, msg := range errs[name] {
			_ = r.driver.Info(ctx, r.theme.Error.Render(fmt.Sprintf("%s: %s", name, msg)))
		}
	}
}

func promptable(fields []render.Field) []string {
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field.Kind == model.KindGroup {
			continue
		}
		out = append(out, field.Name)
	}
	return out
}

// expandGroups replaces each group name with the inputs nested under it, so
// an error reported on a group re-asks its members. Order follows fields.
func expandGroups(fields []render.Field, names []string) []string {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if name != "" {
			wanted[name] = true
		}
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, field := range fields {
		if !wanted[field.Name] && !wanted[field.Parent] {
			continue
		}
		if field.Kind == model.KindGroup {
			wanted[field.Name] = true
			continue
		}
		if !seen[field.Name] {
			seen[field.Name] = true
			out = append(out, field.Name)
		}
	}
	return out
}

func lookupField(fields []render.Field, name string) (render.Field, bool) {
	for _, field := range fields {
		if field.Name == name {
			return field, true
		}
	}
	return render.Field{}, false
}

func optionLabels(options []render.Option) (labels []string, selected []int) {
	labels = make([]string, 0, len(options))
	for idx, opt := range options {
		labels = append(labels, opt.Label)
		if opt.Selected {
			selected = append(selected, idx)
		}
	}
	return labels, selected
}

// optionDescriptions returns nil when no option carries a description.
func optionDescriptions(options []render.Option) []string {
	var (
		out       []string
		described bool
	)
	for _, opt := range options {
		out = append(out, plainText.Sanitize(opt.Description))
		described = described || opt.Description != ""
	}
	if !described {
		return nil
	}
	return out
}
