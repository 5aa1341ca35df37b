package manualvariant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/lifecycle"
	"github.com/shulp2211/seqr-formkit/pkg/metrics"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// ButtonText labels the trigger that opens the dialog.
const ButtonText = "Add Manual Variant"

// Service saves a manual variant together with its tags.
type Service interface {
	UpdateVariantTags(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error)
}

// Family is the family the variant is filed under.
type Family struct {
	GUID        string   `json:"familyGuid" yaml:"familyGuid"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Members     []Member `json:"individuals,omitempty" yaml:"individuals,omitempty"`
}

// Project supplies the initial values and the tag types of the dialog.
type Project struct {
	GUID          string    `json:"projectGuid" yaml:"projectGuid"`
	GenomeVersion string    `json:"genomeVersion" yaml:"genomeVersion"`
	TagTypes      []TagType `json:"variantTagTypes,omitempty" yaml:"variantTagTypes,omitempty"`
}

// User is the signed-in user. Only staff may add manual variants.
type User struct {
	Username string `json:"username" yaml:"username"`
	IsStaff  bool   `json:"isStaff" yaml:"isStaff"`
}

// Option configures a Dialog.
type Option func(*Dialog)

// WithDecorators applies form decorators to every edit session.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(d *Dialog) {
		d.decorators = append(d.decorators, decorators...)
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dialog) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics records submissions.
func WithMetrics(collector *metrics.Collector) Option {
	return func(d *Dialog) {
		d.metrics = collector
	}
}

// WithOnSaved is called with the resolved response of every saved variant.
func WithOnSaved(fn func(valuebag.Bag)) Option {
	return func(d *Dialog) {
		d.onSaved = fn
	}
}

// Dialog is the create-only "Add Manual Variant" record. Every edit starts
// from the project defaults; a saved variant does not become the dialog's
// current value.
type Dialog struct {
	family  Family
	project Project
	user    User
	service Service

	decorators []model.Decorator
	logger     *slog.Logger
	metrics    *metrics.Collector
	onSaved    func(valuebag.Bag)

	ctrl *lifecycle.Controller
}

// NewDialog builds the dialog controller for a family.
func NewDialog(family Family, project Project, user User, service Service, opts ...Option) (*Dialog, error) {
	if service == nil {
		return nil, errors.New("manualvariant: service is nil")
	}
	d := &Dialog{
		family:  family,
		project: project,
		user:    user,
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	ctrl, err := lifecycle.New(
		Descriptors(project.TagTypes, family.Members),
		d.initialValues(),
		d.send,
		lifecycle.WithName(FormID),
		lifecycle.WithTitle(fmt.Sprintf("Add a Manual Variant for Family %s", family.DisplayName)),
		lifecycle.WithContext(valuebag.Bag{"familyGuid": family.GUID}),
		lifecycle.WithEditable(func(valuebag.Bag, bool) bool { return d.user.IsStaff }),
		lifecycle.WithDisplay(func(valuebag.Bag, bool) model.Display {
			return model.Display{Title: ButtonText, Empty: true}
		}),
		lifecycle.WithFormOptions(form.WithDecorators(d.decorators...)),
		lifecycle.WithLogger(d.logger.With("family", family.GUID)),
		lifecycle.WithMetrics(d.metrics),
	)
	if err != nil {
		return nil, errors.Wrap(err, "manualvariant: controller")
	}
	d.ctrl = ctrl
	return d, nil
}

// ID is the per-family dialog id.
func (d *Dialog) ID() string { return BaseFormID + d.family.GUID }

// Visible reports whether the trigger is shown to the user at all.
func (d *Dialog) Visible() bool { return d.user.IsStaff }

// Controller returns the lifecycle controller driving the dialog.
func (d *Dialog) Controller() *lifecycle.Controller { return d.ctrl }

func (d *Dialog) initialValues() valuebag.Bag {
	out := valuebag.Bag{}
	if d.project.GenomeVersion != "" {
		out[fieldGenomeVersion] = d.project.GenomeVersion
	}
	return out
}

// send shapes the payload, saves it and hands the project defaults back so
// the next edit starts fresh.
func (d *Dialog) send(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
	resolved, err := d.service.UpdateVariantTags(ctx, Shape(payload))
	if err != nil {
		return nil, err
	}
	if d.onSaved != nil {
		d.onSaved(resolved)
	}
	return d.initialValues(), nil
}

// Shape turns dialog values into the variant tag request: the tags and
// family id at the top level, every other field under "variant" with the SV
// name doubling as the variant id.
func Shape(values valuebag.Bag) valuebag.Bag {
	variant := map[string]any{}
	for _, name := range []string{fieldChrom, fieldPos, fieldEnd, fieldGenomeVersion, fieldSVName, fieldSVType, fieldGenotypes} {
		variant[name] = values[name]
	}
	variant["variantId"] = values[fieldSVName]
	return valuebag.Bag{
		"familyGuid": values["familyGuid"],
		"tags":       values[fieldTags],
		"variant":    variant,
	}
}
