package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JodusNodus/apartment-eagle/internal/extract"
	"github.com/JodusNodus/apartment-eagle/internal/model"
	"github.com/JodusNodus/apartment-eagle/internal/store"
)

var testAgencies = []model.Agency{
	{Name: "A", URL: "https://a.be/huur"},
	{Name: "B", URL: "https://b.be/te-huur", RequiresRendering: true},
	{Name: "C", URL: "https://c.be/aanbod"},
}

func listing(agency, html string) model.Listing {
	return model.Listing{Agency: agency, HTML: html, Timestamp: time.Now()}
}

type fixture struct {
	scraper    *mockScraper
	tracker    *mockTracker
	classifier *mockClassifier
	details    *mockDetails
	evaluator  *mockEvaluator
	notifier   *mockNotifier
	released   int
}

func newFixture() *fixture {
	return &fixture{
		scraper:    new(mockScraper),
		tracker:    new(mockTracker),
		classifier: new(mockClassifier),
		details:    new(mockDetails),
		evaluator:  new(mockEvaluator),
		notifier:   new(mockNotifier),
	}
}

func (f *fixture) cycle(agencies []model.Agency) *Cycle {
	return New(agencies, Deps{
		Scraper:    f.scraper,
		Extractor:  extract.New(nil),
		Tracker:    f.tracker,
		Classifier: f.classifier,
		Details:    f.details,
		Evaluator:  f.evaluator,
		Notifier:   f.notifier,
		Release:    func() { f.released++ },
	})
}

func TestCycle_EmptyCycle(t *testing.T) {
	f := newFixture()
	agencies := testAgencies[:2]
	f.tracker.On("LoadAll", mock.Anything).Return(model.SeenURLs{
		"A": {"https://a.be/pand/1"},
		"B": {"https://b.be/pand/9"},
	})
	f.scraper.On("ScrapeAll", mock.Anything, agencies).Return([]model.Listing{
		listing("A", `<a href="/pand/1">1</a>`),
		listing("B", `<a href="/pand/9">9</a>`),
	})
	f.tracker.On("MergeAndSave", mock.Anything, model.SeenURLs{
		"A": {"https://a.be/pand/1"},
		"B": {"https://b.be/pand/9"},
	}).Return(true)

	report := f.cycle(agencies).Run(context.Background())

	assert.Equal(t, model.CycleStatusComplete, report.Status)
	assert.True(t, report.Persisted)
	assert.Equal(t, 0, report.TotalNewURLs())
	assert.Equal(t, 1, f.released)
	f.classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	f.tracker.AssertExpectations(t)
}

func TestCycle_EndToEnd(t *testing.T) {
	f := newFixture()
	agencies := testAgencies[:2]
	newURL := "https://a.be/pand/2"

	f.tracker.On("LoadAll", mock.Anything).Return(model.SeenURLs{
		"A": {"https://a.be/pand/1"},
		"B": {"https://b.be/pand/9"},
	})
	f.scraper.On("ScrapeAll", mock.Anything, agencies).Return([]model.Listing{
		listing("A", `<a href="/pand/1">1</a><a href="/pand/2">2</a><a href="/contact">c</a>`),
		listing("B", `<a href="/pand/9">9</a>`),
	})

	label := model.URLClassification{URL: newURL, IsListingDetail: true, Confidence: 9}
	f.classifier.On("Classify", mock.Anything, []model.CandidateURL{
		{URL: newURL, Agency: "A", AgencyURL: "https://a.be/huur"},
	}).Return([]model.URLClassification{label})

	detail := model.PropertyDetail{URL: newURL, Agency: "A", HTML: "<p>x</p>"}
	f.details.On("FetchAll", mock.Anything, agencies[0], []model.URLClassification{label}).
		Return([]model.PropertyDetail{detail})
	f.evaluator.On("EvaluateAll", mock.Anything, []model.PropertyDetail{detail}).
		Return([]model.PropertyEvaluation{{Property: detail, Matches: true, Reasoning: "fits"}})

	var notified []model.Match
	f.notifier.On("Notify", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { notified = args.Get(1).([]model.Match) }).
		Return(nil).Once()
	f.tracker.On("MergeAndSave", mock.Anything, mock.Anything).Return(true)

	report := f.cycle(agencies).Run(context.Background())

	require.Len(t, notified, 1)
	assert.Equal(t, "A", notified[0].Agency)
	assert.Equal(t, newURL, notified[0].URL)
	assert.Equal(t, "https://a.be/huur", notified[0].AgencyURL)
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)

	assert.Equal(t, 1, report.NewURLs["A"])
	assert.Equal(t, 0, report.NewURLs["B"])
	assert.Equal(t, 1, report.Classified)
	assert.Equal(t, 1, report.DetailPages)
	assert.Equal(t, 1, report.Matches)
	assert.True(t, report.Notified)
	assert.NotEmpty(t, report.ID)
}

func TestCycle_FailureIsolation(t *testing.T) {
	f := newFixture()
	f.tracker.On("LoadAll", mock.Anything).Return(model.SeenURLs{
		"B": {"https://b.be/pand/1", "https://b.be/pand/2"},
	})
	f.scraper.On("ScrapeAll", mock.Anything, testAgencies).Return([]model.Listing{
		listing("A", `<a href="/pand/1">1</a>`),
		listing("B", ""),
		listing("C", `<a href="/pand/3">3</a>`),
	})

	f.classifier.On("Classify", mock.Anything, []model.CandidateURL{
		{URL: "https://a.be/pand/1", Agency: "A", AgencyURL: "https://a.be/huur"},
		{URL: "https://c.be/pand/3", Agency: "C", AgencyURL: "https://c.be/aanbod"},
	}).Return([]model.URLClassification{
		{URL: "https://a.be/pand/1", IsListingDetail: true, Confidence: 8},
		{URL: "https://c.be/pand/3", IsListingDetail: true, Confidence: 8},
	})

	dA := model.PropertyDetail{URL: "https://a.be/pand/1", Agency: "A"}
	dC := model.PropertyDetail{URL: "https://c.be/pand/3", Agency: "C"}
	f.details.On("FetchAll", mock.Anything, testAgencies[0], mock.Anything).Return([]model.PropertyDetail{dA})
	f.details.On("FetchAll", mock.Anything, testAgencies[2], mock.Anything).Return([]model.PropertyDetail{dC})
	f.evaluator.On("EvaluateAll", mock.Anything, []model.PropertyDetail{dA}).
		Return([]model.PropertyEvaluation{{Property: dA, Matches: true}})
	f.evaluator.On("EvaluateAll", mock.Anything, []model.PropertyDetail{dC}).
		Return([]model.PropertyEvaluation{{Property: dC, Matches: false}})
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	var saved model.SeenURLs
	f.tracker.On("MergeAndSave", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(model.SeenURLs) }).
		Return(true)

	report := f.cycle(testAgencies).Run(context.Background())

	assert.Equal(t, 2, report.AgenciesOK)
	assert.Equal(t, 1, report.AgenciesFailed)
	assert.Equal(t, 1, report.Matches)

	_, hasB := saved["B"]
	assert.False(t, hasB, "a failed scrape must not touch the stored set")
	assert.Equal(t, []string{"https://a.be/pand/1"}, saved["A"])
	assert.Equal(t, []string{"https://c.be/pand/3"}, saved["C"])
}

func TestCycle_AgencyPanicIsolated(t *testing.T) {
	f := newFixture()
	agencies := []model.Agency{testAgencies[0], testAgencies[2]}
	f.tracker.On("LoadAll", mock.Anything).Return(model.SeenURLs{})
	f.scraper.On("ScrapeAll", mock.Anything, agencies).Return([]model.Listing{
		listing("A", `<a href="/pand/1">1</a>`),
		listing("C", `<a href="/pand/3">3</a>`),
	})
	f.classifier.On("Classify", mock.Anything, mock.Anything).Return([]model.URLClassification{
		{URL: "https://a.be/pand/1", IsListingDetail: true, Confidence: 8},
		{URL: "https://c.be/pand/3", IsListingDetail: true, Confidence: 8},
	})

	dC := model.PropertyDetail{URL: "https://c.be/pand/3", Agency: "C"}
	f.details.On("FetchAll", mock.Anything, testAgencies[0], mock.Anything).
		Run(func(mock.Arguments) { panic("browser crashed") })
	f.details.On("FetchAll", mock.Anything, testAgencies[2], mock.Anything).Return([]model.PropertyDetail{dC})
	f.evaluator.On("EvaluateAll", mock.Anything, []model.PropertyDetail{dC}).
		Return([]model.PropertyEvaluation{{Property: dC, Matches: true}})
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(m []model.Match) bool {
		return len(m) == 1 && m[0].Agency == "C"
	})).Return(nil)
	f.tracker.On("MergeAndSave", mock.Anything, mock.Anything).Return(true)

	report := f.cycle(agencies).Run(context.Background())
	assert.Equal(t, 1, report.Matches)
	assert.Equal(t, model.CycleStatusComplete, report.Status)
	f.notifier.AssertExpectations(t)
}

func TestCycle_NotifyFailureStillPersists(t *testing.T) {
	f := newFixture()
	agencies := testAgencies[:1]
	f.tracker.On("LoadAll", mock.Anything).Return(model.SeenURLs{})
	f.scraper.On("ScrapeAll", mock.Anything, agencies).Return([]model.Listing{listing("A", `<a href="/pand/1">1</a>`)})
	f.classifier.On("Classify", mock.Anything, mock.Anything).Return([]model.URLClassification{
		{URL: "https://a.be/pand/1", IsListingDetail: true, Confidence: 8},
	})
	d := model.PropertyDetail{URL: "https://a.be/pand/1", Agency: "A"}
	f.details.On("FetchAll", mock.Anything, mock.Anything, mock.Anything).Return([]model.PropertyDetail{d})
	f.evaluator.On("EvaluateAll", mock.Anything, mock.Anything).
		Return([]model.PropertyEvaluation{{Property: d, Matches: true}})
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	f.tracker.On("MergeAndSave", mock.Anything, mock.Anything).Return(true)

	report := f.cycle(agencies).Run(context.Background())
	assert.False(t, report.Notified)
	assert.True(t, report.Persisted)
	assert.Equal(t, model.CycleStatusComplete, report.Status)
}

func TestCycle_UnclassifiedURLsAreNotFetched(t *testing.T) {
	f := newFixture()
	agencies := testAgencies[:1]
	f.tracker.On("LoadAll", mock.Anything).Return(model.SeenURLs{})
	f.scraper.On("ScrapeAll", mock.Anything, agencies).Return([]model.Listing{listing("A", `<a href="/pand/1">1</a>`)})
	f.classifier.On("Classify", mock.Anything, mock.Anything).Return(nil)
	f.tracker.On("MergeAndSave", mock.Anything, mock.Anything).Return(true)

	report := f.cycle(agencies).Run(context.Background())
	assert.Equal(t, 0, report.Classified)
	f.details.AssertNotCalled(t, "FetchAll", mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestCycle_IdempotentAgainstStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	tracker := store.NewTracker(store.NewJSONFs(fs, "data/scraped_urls.json"))
	agencies := testAgencies[:1]

	scraper := new(mockScraper)
	scraper.On("ScrapeAll", mock.Anything, agencies).Return([]model.Listing{
		listing("A", `<a href="/pand/1">1</a><a href="/pand/2">2</a>`),
	})
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).Return([]model.URLClassification{})

	c := New(agencies, Deps{
		Scraper:    scraper,
		Extractor:  extract.New(nil),
		Tracker:    tracker,
		Classifier: classifier,
		Details:    new(mockDetails),
		Evaluator:  new(mockEvaluator),
		Notifier:   new(mockNotifier),
	})

	first := c.Run(context.Background())
	assert.Equal(t, 2, first.NewURLs["A"])

	second := c.Run(context.Background())
	assert.Equal(t, 0, second.NewURLs["A"])
	classifier.AssertNumberOfCalls(t, "Classify", 1)
}

func TestCycle_CancelledContextFailsReport(t *testing.T) {
	f := newFixture()
	agencies := testAgencies[:1]
	ctx, cancel := context.WithCancel(context.Background())

	f.tracker.On("LoadAll", mock.Anything).Return(model.SeenURLs{})
	f.scraper.On("ScrapeAll", mock.Anything, agencies).
		Run(func(mock.Arguments) { cancel() }).
		Return([]model.Listing{listing("A", `<a href="/pand/1">1</a>`)})
	f.classifier.On("Classify", mock.Anything, mock.Anything).Return(nil)

	report := f.cycle(agencies).Run(ctx)
	assert.Equal(t, model.CycleStatusFailed, report.Status)
	assert.Equal(t, context.Canceled.Error(), report.Error)
	assert.False(t, report.Persisted)
	assert.Equal(t, 1, f.released)
	f.tracker.AssertNotCalled(t, "MergeAndSave", mock.Anything, mock.Anything)
}

func TestCycle_InterruptedCycleRedetectsNewURLs(t *testing.T) {
	fs := afero.NewMemMapFs()
	tracker := store.NewTracker(store.NewJSONFs(fs, "data/scraped_urls.json"))
	agencies := testAgencies[:1]

	scraper := new(mockScraper)
	scraper.On("ScrapeAll", mock.Anything, agencies).Return([]model.Listing{
		listing("A", `<a href="/pand/1">1</a>`),
	})

	// The first classification runs past the cycle deadline.
	ctx, cancel := context.WithCancel(context.Background())
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil).Once()
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return([]model.URLClassification{}).Once()

	c := New(agencies, Deps{
		Scraper:    scraper,
		Extractor:  extract.New(nil),
		Tracker:    tracker,
		Classifier: classifier,
		Details:    new(mockDetails),
		Evaluator:  new(mockEvaluator),
	})

	first := c.Run(ctx)
	assert.Equal(t, model.CycleStatusFailed, first.Status)
	assert.Equal(t, 1, first.NewURLs["A"])
	assert.False(t, first.Persisted)
	assert.Empty(t, tracker.LoadAll(context.Background()))

	second := c.Run(context.Background())
	assert.Equal(t, model.CycleStatusComplete, second.Status)
	assert.Equal(t, 1, second.NewURLs["A"])
	assert.True(t, second.Persisted)
	classifier.AssertNumberOfCalls(t, "Classify", 2)

	seen := tracker.LoadAll(context.Background())
	assert.Equal(t, []string{"https://a.be/pand/1"}, seen["A"])
}

func TestCycle_NoNotifierLeavesNotifiedFalse(t *testing.T) {
	f := newFixture()
	agencies := testAgencies[:1]
	f.tracker.On("LoadAll", mock.Anything).Return(model.SeenURLs{})
	f.scraper.On("ScrapeAll", mock.Anything, agencies).Return([]model.Listing{listing("A", `<a href="/pand/1">1</a>`)})
	f.classifier.On("Classify", mock.Anything, mock.Anything).Return([]model.URLClassification{
		{URL: "https://a.be/pand/1", IsListingDetail: true, Confidence: 8},
	})
	d := model.PropertyDetail{URL: "https://a.be/pand/1", Agency: "A"}
	f.details.On("FetchAll", mock.Anything, mock.Anything, mock.Anything).Return([]model.PropertyDetail{d})
	f.evaluator.On("EvaluateAll", mock.Anything, mock.Anything).
		Return([]model.PropertyEvaluation{{Property: d, Matches: true}})
	f.tracker.On("MergeAndSave", mock.Anything, mock.Anything).Return(true)

	c := f.cycle(agencies)
	c.deps.Notifier = nil
	report := c.Run(context.Background())

	assert.Equal(t, 1, report.Matches)
	assert.False(t, report.Notified)
	assert.True(t, report.Persisted)
}
