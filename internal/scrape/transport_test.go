package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
	name string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Page), args.Error(1)
}

func (m *mockFetcher) Name() string { return m.name }

func TestTransport_PlainHTTP(t *testing.T) {
	plain := &mockFetcher{name: "http"}
	browser := &mockFetcher{name: "browser"}
	plain.On("Fetch", mock.Anything, "https://a.be").Return(&Page{HTML: "ok", Source: "http"}, nil)

	page, err := NewTransport(plain, browser).Fetch(context.Background(), "https://a.be", false)
	require.NoError(t, err)
	assert.Equal(t, "http", page.Source)
	browser.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestTransport_RenderingGoesToBrowser(t *testing.T) {
	plain := &mockFetcher{name: "http"}
	browser := &mockFetcher{name: "browser"}
	browser.On("Fetch", mock.Anything, "https://b.be").Return(&Page{HTML: "rendered", Source: "browser"}, nil)

	page, err := NewTransport(plain, browser).Fetch(context.Background(), "https://b.be", true)
	require.NoError(t, err)
	assert.Equal(t, "rendered", page.HTML)
	plain.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestTransport_ShellFallsBackToBrowser(t *testing.T) {
	plain := &mockFetcher{name: "http"}
	browser := &mockFetcher{name: "browser"}
	plain.On("Fetch", mock.Anything, "https://c.be").Return(nil, &BlockedError{URL: "https://c.be", Type: BlockJSShell})
	browser.On("Fetch", mock.Anything, "https://c.be").Return(&Page{HTML: "rendered", Source: "browser"}, nil).Once()

	page, err := NewTransport(plain, browser).Fetch(context.Background(), "https://c.be", false)
	require.NoError(t, err)
	assert.Equal(t, "browser", page.Source)
	browser.AssertExpectations(t)
}

func TestTransport_CaptchaDoesNotFallBack(t *testing.T) {
	plain := &mockFetcher{name: "http"}
	browser := &mockFetcher{name: "browser"}
	plain.On("Fetch", mock.Anything, mock.Anything).Return(nil, &BlockedError{Type: BlockCaptcha})

	_, err := NewTransport(plain, browser).Fetch(context.Background(), "https://d.be", false)
	require.Error(t, err)
	browser.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestTransport_NoBrowser(t *testing.T) {
	plain := &mockFetcher{name: "http"}
	plain.On("Fetch", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	plain.On("Fetch", mock.Anything, mock.Anything).Return(&Page{HTML: "plain"}, nil).Once()

	tr := NewTransport(plain, nil)
	_, err := tr.Fetch(context.Background(), "https://e.be", false)
	require.Error(t, err)

	// Without a browser, rendering agencies fall back to plain HTTP.
	page, err := tr.Fetch(context.Background(), "https://e.be", true)
	require.NoError(t, err)
	assert.Equal(t, "plain", page.HTML)
}

func TestBrowser_CloseWithoutStart(t *testing.T) {
	b := NewBrowser(testScrapeConfig())
	assert.False(t, b.Started())
	assert.NotPanics(t, func() {
		b.Close()
		b.Close()
	})
}
