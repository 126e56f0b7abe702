package store

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

func newMemJSONStore(t *testing.T) (*JSONStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s := NewJSONFs(fs, "data/scraped_urls.json")
	require.NoError(t, s.Migrate(context.Background()))
	return s, fs
}

func TestJSONStore_LoadMissingFile(t *testing.T) {
	s, _ := newMemJSONStore(t)

	urls, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, urls)
	assert.Empty(t, urls)
}

func TestJSONStore_MergeIsAdditive(t *testing.T) {
	s, _ := newMemJSONStore(t)
	ctx := context.Background()

	require.NoError(t, s.Merge(ctx, model.SeenURLs{
		"A": {"https://a.be/1", "https://a.be/2"},
		"B": {"https://b.be/1"},
	}))
	require.NoError(t, s.Merge(ctx, model.SeenURLs{
		"A": {"https://a.be/3"},
	}))

	urls, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.be/1", "https://a.be/2", "https://a.be/3"}, urls["A"])
	assert.Equal(t, []string{"https://b.be/1"}, urls["B"])
}

func TestJSONStore_EmptyMergeNeverShrinks(t *testing.T) {
	s, _ := newMemJSONStore(t)
	ctx := context.Background()

	require.NoError(t, s.Merge(ctx, model.SeenURLs{"A": {"https://a.be/1"}}))
	require.NoError(t, s.Merge(ctx, model.SeenURLs{"A": {}}))

	urls, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.be/1"}, urls["A"])
}

func TestJSONStore_FileLayout(t *testing.T) {
	s, fs := newMemJSONStore(t)
	require.NoError(t, s.Merge(context.Background(), model.SeenURLs{"A": {"https://a.be/1"}}))

	data, err := afero.ReadFile(fs, "data/scraped_urls.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"urls":{"A":["https://a.be/1"]}}`, string(data))

	exists, err := afero.Exists(fs, "data/scraped_urls.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestJSONStore_ReadsExistingFile(t *testing.T) {
	s, fs := newMemJSONStore(t)
	require.NoError(t, afero.WriteFile(fs, "data/scraped_urls.json",
		[]byte(`{"urls":{"ERA":["https://www.era.be/pand/1"]}}`), 0o644))

	urls, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.era.be/pand/1"}, urls["ERA"])
}

func TestJSONStore_CorruptFile(t *testing.T) {
	s, fs := newMemJSONStore(t)
	require.NoError(t, afero.WriteFile(fs, "data/scraped_urls.json", []byte(`{not json`), 0o644))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	aside, err := afero.ReadFile(fs, "data/scraped_urls.json.corrupt")
	require.NoError(t, err)
	assert.Equal(t, `{not json`, string(aside))

	// The next merge writes fresh state in place of the corrupt file.
	require.NoError(t, s.Merge(context.Background(), model.SeenURLs{"A": {"https://a.be/1"}}))
	got, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SeenURLs{"A": {"https://a.be/1"}}, got)
}

func TestJSONStore_CorruptFileReadOnly(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "data/scraped_urls.json", []byte(`{not json`), 0o644))
	s := NewJSONFs(afero.NewReadOnlyFs(base), "data/scraped_urls.json")

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: json: decode")
}

func TestJSONStore_ReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	s := NewJSONFs(fs, "data/scraped_urls.json")

	err := s.Merge(context.Background(), model.SeenURLs{"A": {"https://a.be/1"}})
	require.Error(t, err)
}
