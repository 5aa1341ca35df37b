package matchmaker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/lifecycle"
	"github.com/shulp2211/seqr-formkit/pkg/loader"
	"github.com/shulp2211/seqr-formkit/pkg/metrics"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/readmodel"
	"github.com/shulp2211/seqr-formkit/pkg/selection"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// ErrUnknownMatch is returned for a match id the page has not loaded.
var ErrUnknownMatch = errors.New("matchmaker: unknown match")

// Service is the remote side of the matchmaker page.
type Service interface {
	SavedVariants(ctx context.Context, familyGUID string) ([]Variant, error)
	// Matches lists known matches; search asks the exchange for new ones.
	Matches(ctx context.Context, individualGUID string, search bool) ([]MatchResult, error)
	UpdateSubmission(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error)
	UpdateMatchStatus(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error)
}

// Option configures a Page.
type Option func(*Page)

// WithDefaultContact seeds the contact of a new submission.
func WithDefaultContact(contact Contact) Option {
	return func(p *Page) {
		p.defaultContact = contact
	}
}

// WithDecorators applies form decorators, such as ui schema overlays, to
// every edit session the page opens.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(p *Page) {
		p.decorators = append(p.decorators, decorators...)
	}
}

// WithLogger sets the logger passed down to loaders and controllers.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Page) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records loads and submissions.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Page) {
		p.metrics = collector
	}
}

// Page is the matchmaker view of one affected individual: the submission
// record, the saved variants it draws from and the matches it produced.
type Page struct {
	individual     Individual
	service        Service
	defaultContact Contact
	decorators     []model.Decorator
	logger         *slog.Logger
	metrics        *metrics.Collector

	variants *readmodel.Store[Variant]
	results  *readmodel.Store[MatchResult]

	variantLoader *loader.Loader
	matchLoader   *loader.Loader

	mu         sync.Mutex
	submission *lifecycle.Controller
	mode       bool
	statuses   map[string]*lifecycle.Controller
}

// NewPage wires the read models, loaders and submission controller for an
// individual.
func NewPage(individual Individual, service Service, opts ...Option) (*Page, error) {
	if service == nil {
		return nil, errors.New("matchmaker: service is nil")
	}
	p := &Page{
		individual: individual,
		service:    service,
		logger:     slog.Default(),
		variants:   readmodel.NewStore[Variant](),
		results:    readmodel.NewStore[MatchResult](),
		statuses:   make(map[string]*lifecycle.Controller),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if individual.HasSubmission() {
		p.results.PutValue(individual.GUID, individual.Submitted.Bag())
	}

	family := individual.FamilyGUID
	loadVariants := p.variants.Loader(func(ctx context.Context, owner string) ([]Variant, error) {
		return service.SavedVariants(ctx, owner)
	})
	p.variantLoader = loader.New(
		func() bool { return p.variants.HasRows(family) },
		func(ctx context.Context) error { return loadVariants(ctx, family) },
		loader.WithName("saved-variants"),
		loader.WithLogger(p.logger),
		loader.WithMetrics(p.metrics),
	)

	loadMatches := p.results.Loader(func(ctx context.Context, owner string) ([]MatchResult, error) {
		return service.Matches(ctx, owner, false)
	})
	p.matchLoader = loader.New(
		func() bool { return !p.Submitted() || p.results.HasRows(individual.GUID) },
		func(ctx context.Context) error { return loadMatches(ctx, individual.GUID) },
		loader.WithName("mme-matches"),
		loader.WithLogger(p.logger),
		loader.WithMetrics(p.metrics),
	)

	if _, err := p.Submission(); err != nil {
		return nil, err
	}
	return p, nil
}

// Individual returns the individual the page is built for.
func (p *Page) Individual() Individual { return p.individual }

// Submitted reports whether a live submission exists.
func (p *Page) Submitted() bool {
	_, ok := p.results.CurrentValue(p.individual.GUID)
	return ok
}

// Mount starts the saved-variant and match loads.
func (p *Page) Mount(ctx context.Context) {
	p.variantLoader.Mount(ctx)
	p.matchLoader.Mount(ctx)
}

// Sync re-checks both loaders, for example after a submission was created
// or deleted.
func (p *Page) Sync(ctx context.Context) {
	p.variantLoader.Sync(ctx)
	p.matchLoader.Sync(ctx)
}

// Wait blocks until outstanding loads finish.
func (p *Page) Wait(ctx context.Context) error {
	if err := p.variantLoader.Wait(ctx); err != nil {
		return err
	}
	return p.matchLoader.Wait(ctx)
}

// Search asks the exchange for new matches and replaces the results.
func (p *Page) Search(ctx context.Context) error {
	if !p.Submitted() {
		return errors.New("matchmaker: search requires a submission")
	}
	load := p.results.Loader(func(ctx context.Context, owner string) ([]MatchResult, error) {
		return p.service.Matches(ctx, owner, true)
	})
	return load(ctx, p.individual.GUID)
}

// Submission returns the submission controller. It is rebuilt when the
// record switches between create and update so titles and prompts follow.
func (p *Page) Submission() (*lifecycle.Controller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	submitted := p.Submitted()
	if p.submission != nil && (p.mode == submitted || p.submission.State() != lifecycle.Viewing) {
		return p.submission, nil
	}

	current, ok := p.results.CurrentValue(p.individual.GUID)
	if !ok {
		current = p.defaultSubmission().Bag()
	}

	variants := NewGenotypeInput(
		func() []Variant { return p.variants.Rows(p.individual.FamilyGUID) },
		func() bool { return p.variants.IsLoading(p.individual.FamilyGUID) },
	)
	phenotypes := NewPhenotypeInput(func() []Phenotype { return p.individual.Features })

	title := fmt.Sprintf("Create Submission for %s", p.individual.IndividualID)
	confirm := CreateConfirm
	if submitted {
		title = fmt.Sprintf("Update Submission for %s", p.individual.IndividualID)
		confirm = UpdateConfirm
	}

	ctrl, err := lifecycle.New(
		SubmissionDescriptors(variants, phenotypes),
		current,
		p.results.Dispatcher(p.individual.GUID, p.sendSubmission),
		lifecycle.WithName(SubmissionFormID),
		lifecycle.WithTitle(title),
		lifecycle.WithConfirm(confirm),
		lifecycle.WithDeleteConfirm(DeleteConfirm),
		lifecycle.WithContext(valuebag.Bag{"individualGuid": p.individual.GUID}),
		lifecycle.WithDelete(func(_ valuebag.Bag, _ bool) bool { return p.Submitted() }),
		lifecycle.WithDisplay(p.submissionDisplay),
		lifecycle.WithFormOptions(form.WithDecorators(p.decorators...)),
		lifecycle.WithLogger(p.logger),
		lifecycle.WithMetrics(p.metrics),
	)
	if err != nil {
		return nil, errors.Wrap(err, "matchmaker: submission controller")
	}
	if dups := selection.DuplicateIDs(p.variants.Rows(p.individual.FamilyGUID), Variant.Key); len(dups) > 0 {
		p.logger.Warn("saved variants share a selection id", "individual", p.individual.GUID, "ids", dups)
	}
	p.submission = ctrl
	p.mode = submitted
	return ctrl, nil
}

// sendSubmission dispatches the payload and decodes the resolved value so
// the row lists keep their Go types.
func (p *Page) sendSubmission(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
	resolved, err := p.service.UpdateSubmission(ctx, payload)
	if err != nil {
		return nil, err
	}
	if readmodel.IsDelete(payload) || len(resolved) == 0 {
		return resolved, nil
	}
	sub, err := SubmissionFromBag(resolved)
	if err != nil {
		return nil, err
	}
	return sub.Bag(), nil
}

func (p *Page) defaultSubmission() Submission {
	contact := p.defaultContact
	var observed []Phenotype
	for _, feature := range p.individual.Features {
		if feature.IsObserved() {
			observed = append(observed, feature)
		}
	}
	return Submission{
		Patient:      Patient{ID: p.individual.GUID, Contact: &contact},
		GeneVariants: []Variant{},
		Phenotypes:   observed,
	}
}

func (p *Page) submissionDisplay(value valuebag.Bag, present bool) model.Display {
	if !present || !p.Submitted() {
		return model.Display{Title: "This individual has no submissions", Empty: true}
	}
	sub, err := SubmissionFromBag(value)
	if err != nil {
		p.logger.Warn("undecodable submission", "individual", p.individual.GUID, "error", err)
		return model.Display{Empty: true}
	}

	genotypes := "None"
	if len(sub.GeneVariants) > 0 {
		genotypes = geneText(MatchResult{GeneVariants: sub.GeneVariants})
	}
	phenotypes := "None"
	if len(sub.Phenotypes) > 0 {
		phenotypes = phenotypeText(MatchResult{Phenotypes: sub.Phenotypes})
	}
	out := model.Display{
		Title: p.individual.IndividualID,
		Lines: []model.Line{
			{Label: "Submitted Genotypes", Value: genotypes},
			{Label: "Submitted Phenotypes", Value: phenotypes},
		},
	}
	if sub.Patient.Contact != nil {
		out.Lines = append(out.Lines, model.Line{Label: "Contact", Value: contactText(MatchResult{Patient: sub.Patient})})
	}
	results := p.Results(model.TableQuery{})
	out.Table = &results
	return out
}

// Results renders the match table.
func (p *Page) Results(query model.TableQuery) model.TableView {
	return ResultsTable(p.results.Rows(p.individual.GUID), query, p.matchLoader.Loading())
}

// MatchStatus returns the follow up status controller for a match.
func (p *Page) MatchStatus(matchID string) (*lifecycle.Controller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctrl, ok := p.statuses[matchID]; ok {
		return ctrl, nil
	}

	var (
		result MatchResult
		found  bool
	)
	for _, row := range p.results.Rows(p.individual.GUID) {
		if row.ID == matchID {
			result, found = row, true
			break
		}
	}
	if !found {
		return nil, errors.Wrapf(ErrUnknownMatch, "%q", matchID)
	}

	ctrl, err := lifecycle.New(
		MatchStatusDescriptors(),
		result.MatchStatus.Bag(),
		p.statusDispatcher(matchID),
		lifecycle.WithName(MatchStatusFormID),
		lifecycle.WithTitle(MatchStatusTitle),
		lifecycle.WithContext(valuebag.Bag{"matchmakerResultGuid": result.GUID}),
		lifecycle.WithDisplay(StatusDisplay),
		lifecycle.WithFormOptions(form.WithDecorators(p.decorators...)),
		lifecycle.WithLogger(p.logger.With("match", matchID)),
		lifecycle.WithMetrics(p.metrics),
	)
	if err != nil {
		return nil, errors.Wrap(err, "matchmaker: match status controller")
	}
	p.statuses[matchID] = ctrl
	return ctrl, nil
}

// statusDispatcher sends a status update and writes the resolved status
// back into the match row.
func (p *Page) statusDispatcher(matchID string) lifecycle.SubmitFunc {
	return func(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
		resolved, err := p.service.UpdateMatchStatus(ctx, payload)
		if err != nil {
			return nil, err
		}
		if len(resolved) == 0 {
			resolved = payload
		}
		status := MatchStatusFromBag(resolved)

		rows := p.results.Rows(p.individual.GUID)
		for idx := range rows {
			if rows[idx].ID == matchID {
				rows[idx].MatchStatus = status
			}
		}
		p.results.PutRows(p.individual.GUID, rows)
		return status.Bag(), nil
	}
}
