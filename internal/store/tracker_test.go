package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context) (model.SeenURLs, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.SeenURLs), args.Error(1)
}

func (m *mockStore) Merge(ctx context.Context, urls model.SeenURLs) error {
	return m.Called(ctx, urls).Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockStore) Close() error                      { return m.Called().Error(0) }

func TestTracker_LoadAll(t *testing.T) {
	st := new(mockStore)
	st.On("Load", mock.Anything).Return(model.SeenURLs{"A": {"https://a.be/1"}}, nil)

	got := NewTracker(st).LoadAll(context.Background())
	assert.Equal(t, []string{"https://a.be/1"}, got["A"])
}

func TestTracker_LoadAllFailureIsEmpty(t *testing.T) {
	st := new(mockStore)
	st.On("Load", mock.Anything).Return(nil, errors.New("disk gone"))

	got := NewTracker(st).LoadAll(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTracker_MergeAndSave(t *testing.T) {
	st := new(mockStore)
	urls := model.SeenURLs{"A": {"https://a.be/1"}}
	st.On("Merge", mock.Anything, urls).Return(nil).Once()
	st.On("Merge", mock.Anything, model.SeenURLs{}).Return(errors.New("read-only")).Once()

	tr := NewTracker(st)
	assert.True(t, tr.MergeAndSave(context.Background(), urls))
	assert.False(t, tr.MergeAndSave(context.Background(), model.SeenURLs{}))
	st.AssertExpectations(t)
}

// Monotonic persistence through the real file store: history after a merge
// is always a superset of history before.
func TestTracker_MonotonicWithJSONStore(t *testing.T) {
	s, _ := newMemJSONStore(t)
	tr := NewTracker(s)
	ctx := context.Background()

	tr.MergeAndSave(ctx, model.SeenURLs{"A": {"https://a.be/1", "https://a.be/2"}})
	before := tr.LoadAll(ctx)

	tr.MergeAndSave(ctx, model.SeenURLs{"A": {"https://a.be/3"}, "B": {}})
	after := tr.LoadAll(ctx)

	for agency, urls := range before {
		set := after.Set(agency)
		for _, u := range urls {
			_, ok := set[u]
			assert.True(t, ok, "lost %s for %s", u, agency)
		}
	}
	assert.Len(t, after["A"], 3)
}
