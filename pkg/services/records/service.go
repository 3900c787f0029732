package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/de-tools/bacc-research/pkg/adapters"
	"github.com/de-tools/bacc-research/pkg/models/domain"
	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/store/jsonfile"
)

const surveySuffixLen = 9

type Service interface {
	SaveCalculation(ctx context.Context, req domain.AllowanceRequest, res domain.CalculationResult) (store.CalculationRecord, error)
	SaveSurvey(ctx context.Context, submittedAt string, responses store.Answers) (store.SurveyRecord, error)
	Calculations(ctx context.Context) ([]store.CalculationRecord, error)
	Surveys(ctx context.Context) ([]store.SurveyRecord, error)
}

type Option func(*service)

// WithClock replaces time.Now. Date and time strings use the clock's location.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithSuffix replaces the random part of survey ids.
func WithSuffix(suffix func() string) Option {
	return func(s *service) {
		s.suffix = suffix
	}
}

type service struct {
	calculations jsonfile.Store[store.CalculationRecord]
	surveys      jsonfile.Store[store.SurveyRecord]
	now          func() time.Time
	suffix       func() string
}

func NewService(
	calculations jsonfile.Store[store.CalculationRecord],
	surveys jsonfile.Store[store.SurveyRecord],
	opts ...Option,
) (Service, error) {
	if calculations == nil {
		return nil, fmt.Errorf("calculation store is nil")
	}
	if surveys == nil {
		return nil, fmt.Errorf("survey store is nil")
	}

	s := &service{
		calculations: calculations,
		surveys:      surveys,
		now:          time.Now,
		suffix:       randomSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SaveCalculation returns the built record even when the write fails so the
// caller can decide whether the failure matters.
func (s *service) SaveCalculation(
	ctx context.Context,
	req domain.AllowanceRequest,
	res domain.CalculationResult,
) (store.CalculationRecord, error) {
	rec := adapters.MapDomainToCalculationRecord(req, res, s.now())
	if err := s.calculations.Append(ctx, rec); err != nil {
		return rec, fmt.Errorf("save calculation: %w", err)
	}
	return rec, nil
}

// SaveSurvey stores one submission. An empty submittedAt is filled from the
// clock.
func (s *service) SaveSurvey(ctx context.Context, submittedAt string, responses store.Answers) (store.SurveyRecord, error) {
	now := s.now()
	if submittedAt == "" {
		submittedAt = now.UTC().Format(time.RFC3339Nano)
	}
	if responses == nil {
		responses = store.Answers{}
	}

	rec := store.SurveyRecord{
		ID:          fmt.Sprintf("survey_%d_%s", now.UnixMilli(), s.suffix()),
		SubmittedAt: submittedAt,
		Date:        now.Format(adapters.DateLayout),
		Time:        now.Format(adapters.TimeLayout),
		Responses:   responses,
	}
	if err := s.surveys.Append(ctx, rec); err != nil {
		return rec, fmt.Errorf("save survey: %w", err)
	}
	return rec, nil
}

func (s *service) Calculations(ctx context.Context) ([]store.CalculationRecord, error) {
	return s.calculations.ReadAll(ctx)
}

func (s *service) Surveys(ctx context.Context) ([]store.SurveyRecord, error) {
	return s.surveys.ReadAll(ctx)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:surveySuffixLen]
}
