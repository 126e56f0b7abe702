package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) ScrapeAll(ctx context.Context, agencies []model.Agency) []model.Listing {
	return m.Called(ctx, agencies).Get(0).([]model.Listing)
}

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) LoadAll(ctx context.Context) model.SeenURLs {
	return m.Called(ctx).Get(0).(model.SeenURLs)
}

func (m *mockTracker) MergeAndSave(ctx context.Context, urls model.SeenURLs) bool {
	return m.Called(ctx, urls).Bool(0)
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, candidates []model.CandidateURL) []model.URLClassification {
	args := m.Called(ctx, candidates)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.URLClassification)
}

type mockDetails struct {
	mock.Mock
}

func (m *mockDetails) FetchAll(ctx context.Context, agency model.Agency, labels []model.URLClassification) []model.PropertyDetail {
	args := m.Called(ctx, agency, labels)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.PropertyDetail)
}

type mockEvaluator struct {
	mock.Mock
}

func (m *mockEvaluator) EvaluateAll(ctx context.Context, details []model.PropertyDetail) []model.PropertyEvaluation {
	args := m.Called(ctx, details)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.PropertyEvaluation)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, matches []model.Match) error {
	return m.Called(ctx, matches).Error(0)
}

func (m *mockNotifier) Name() string { return "mock" }
