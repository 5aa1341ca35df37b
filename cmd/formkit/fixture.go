package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/shulp2211/seqr-formkit/internal/manualvariant"
	"github.com/shulp2211/seqr-formkit/internal/matchmaker"
	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/readmodel"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

//go:embed fixtures/sample.yaml
var sampleFixture []byte

// Fixture is the in-memory stand-in for the seqr API.
type Fixture struct {
	User           manualvariant.User                  `yaml:"user"`
	DefaultContact matchmaker.Contact                  `yaml:"defaultContact"`
	Project        manualvariant.Project               `yaml:"project"`
	Family         manualvariant.Family                `yaml:"family"`
	Individuals    []matchmaker.Individual             `yaml:"individuals"`
	SavedVariants  map[string][]matchmaker.Variant     `yaml:"savedVariants"`
	Matches        map[string][]matchmaker.MatchResult `yaml:"matches"`
	SearchResults  map[string][]matchmaker.MatchResult `yaml:"searchResults"`
	// FailWith makes every update fail with this message.
	FailWith string `yaml:"failWith"`
	// Latency delays every call.
	Latency time.Duration `yaml:"latency"`
}

func loadFixture(path string) (Fixture, error) {
	data := sampleFixture
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Fixture{}, errors.Wrapf(err, "read fixture %s", path)
		}
		data = raw
	}
	var out Fixture
	if err := yaml.Unmarshal(data, &out); err != nil {
		return Fixture{}, errors.Wrap(err, "parse fixture")
	}
	if len(out.Individuals) == 0 {
		return Fixture{}, errors.New("fixture has no individuals")
	}
	return out, nil
}

// Individual returns the individual with guid, or the first one.
func (f Fixture) Individual(guid string) (matchmaker.Individual, error) {
	if guid == "" {
		return f.Individuals[0], nil
	}
	for _, ind := range f.Individuals {
		if ind.GUID == guid {
			return ind, nil
		}
	}
	return matchmaker.Individual{}, errors.Newf("fixture has no individual %q", guid)
}

// fixtureService serves reads from a Fixture and applies writes to it.
type fixtureService struct {
	mu      sync.Mutex
	fixture Fixture
	logger  *slog.Logger
	saved   int
}

func newFixtureService(fixture Fixture, logger *slog.Logger) *fixtureService {
	return &fixtureService{fixture: fixture, logger: logger}
}

func (s *fixtureService) wait(ctx context.Context) error {
	if s.fixture.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.fixture.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *fixtureService) fail() error {
	if s.fixture.FailWith == "" {
		return nil
	}
	return &form.RejectionError{Message: s.fixture.FailWith}
}

func (s *fixtureService) SavedVariants(ctx context.Context, familyGUID string) ([]matchmaker.Variant, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]matchmaker.Variant(nil), s.fixture.SavedVariants[familyGUID]...), nil
}

func (s *fixtureService) Matches(ctx context.Context, individualGUID string, search bool) ([]matchmaker.MatchResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if search {
		found := s.fixture.SearchResults[individualGUID]
		delete(s.fixture.SearchResults, individualGUID)
		if s.fixture.Matches == nil {
			s.fixture.Matches = make(map[string][]matchmaker.MatchResult)
		}
		s.fixture.Matches[individualGUID] = append(s.fixture.Matches[individualGUID], found...)
	}
	return append([]matchmaker.MatchResult(nil), s.fixture.Matches[individualGUID]...), nil
}

func (s *fixtureService) UpdateSubmission(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if err := s.fail(); err != nil {
		return nil, err
	}
	guid, _ := payload["individualGuid"].(string)
	s.logger.Info("submission update", "individual", guid, "delete", readmodel.IsDelete(payload))

	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.fixture.Individuals {
		ind := &s.fixture.Individuals[idx]
		if ind.GUID != guid {
			continue
		}
		now := time.Now().UTC()
		if readmodel.IsDelete(payload) {
			ind.Submitted = nil
			ind.DeletedDate = &now
			delete(s.fixture.Matches, guid)
			return nil, nil
		}
		sub, err := matchmaker.SubmissionFromBag(payload)
		if err != nil {
			return nil, err
		}
		sub.Patient.ID = guid
		ind.Submitted = &sub
		ind.SubmittedDate = &now
		return sub.Bag(), nil
	}
	return nil, &form.RejectionError{Message: fmt.Sprintf("Individual %s not found", guid)}
}

func (s *fixtureService) UpdateMatchStatus(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if err := s.fail(); err != nil {
		return nil, err
	}
	guid, _ := payload["matchmakerResultGuid"].(string)
	status := matchmaker.MatchStatusFromBag(payload)
	s.logger.Info("match status update", "match", guid)

	s.mu.Lock()
	defer s.mu.Unlock()
	for owner, results := range s.fixture.Matches {
		for idx := range results {
			if results[idx].GUID == guid {
				s.fixture.Matches[owner][idx].MatchStatus = status
				return status.Bag(), nil
			}
		}
	}
	return nil, &form.RejectionError{Message: fmt.Sprintf("Match %s not found", guid)}
}

func (s *fixtureService) UpdateVariantTags(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved++
	variant, _ := payload["variant"].(map[string]any)
	id := fmt.Sprintf("SV%07d", s.saved)
	s.logger.Info("manual variant saved", "family", payload["familyGuid"], "variant", variant["variantId"], "guid", id)
	return valuebag.Bag{"variantGuid": id, "variant": variant}, nil
}
