package search

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<a class="item-card" href="/outside">not in the list</a>
<div id="itemList">
  <a class="item-card" href="/products/1">
    <img class="item-img" src="https://cdn.example.com/1.png">
    <p class="txt1"> 뉴트리원 </p>
    <p class="txt2">비타민 D <b>2000IU</b></p>
    <span class="star-point">4.8</span>
    <span class="txt3">(1,203)</span>
    <span class="txt-dot">1일 1정</span>
  </a>
  <a class="item-card" href="https://other.example.com/p/2"><p class="txt2">두번째</p></a>
  <a class="item-card"><p class="txt2">세번째</p></a>
  <a class="item-card" href="/products/4"><p class="txt2">네번째</p></a>
  <a class="item-card" href="/products/5"><p class="txt2">다섯번째</p></a>
  <a class="other-card" href="/products/6"></a>
</div>
</body></html>`

func newTestSearcher(t *testing.T) *Searcher {
	t.Helper()

	s, err := New(Options{}, NewCache(0), nil)
	require.NoError(t, err)
	httpmock.ActivateNonDefault(s.Resty().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return s
}

func TestParseResults(t *testing.T) {
	base, _ := url.Parse(DefaultBaseURL)

	items, err := ParseResults([]byte(resultsPage), base, 4)
	require.NoError(t, err)
	require.Len(t, items, 4)

	first := items[0]
	assert.Equal(t, "https://www.pillyze.com/products/1", first.Href)
	assert.Equal(t, "뉴트리원", first.Brand)
	assert.Equal(t, "비타민 D 2000IU", first.Name)
	assert.Equal(t, "4.8", first.Rating)
	assert.Equal(t, "(1,203)", first.Reviews)
	assert.Equal(t, "1일 1정", first.Dose)
	assert.Equal(t, "https://cdn.example.com/1.png", first.Image)

	assert.Equal(t, "https://other.example.com/p/2", items[1].Href)
	assert.Empty(t, items[2].Href)
	assert.Empty(t, items[2].Brand)
	assert.Equal(t, "네번째", items[3].Name)
}

func TestParseResults_NoList(t *testing.T) {
	base, _ := url.Parse(DefaultBaseURL)

	items, err := ParseResults([]byte(`<html><body><p>검색 결과가 없습니다</p></body></html>`), base, 4)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSearch_FetchesAndCaches(t *testing.T) {
	s := newTestSearcher(t)

	httpmock.RegisterResponderWithQuery(http.MethodGet, DefaultBaseURL+"/search/nutrients",
		map[string]string{"query": "Vitamin D"},
		httpmock.NewStringResponder(http.StatusOK, resultsPage))

	resp, err := s.Search(context.Background(), "  Vitamin D ")
	require.NoError(t, err)
	assert.Equal(t, "Vitamin D", resp.Query)
	assert.False(t, resp.Cached)
	assert.Equal(t, 4, resp.Count)
	assert.Len(t, resp.Items, 4)

	// Case-insensitive cache hit skips the upstream call.
	resp, err = s.Search(context.Background(), "vitamin d")
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, "vitamin d", resp.Query)
	assert.Equal(t, 4, resp.Count)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSearch_QueryRequired(t *testing.T) {
	s := newTestSearcher(t)

	_, err := s.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrQueryRequired)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestSearch_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, "boom")},
		{"forbidden", httpmock.NewStringResponder(http.StatusForbidden, "")},
		{"transport", httpmock.NewErrorResponder(http.ErrHandlerTimeout)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSearcher(t)
			httpmock.RegisterResponder(http.MethodGet, DefaultBaseURL+"/search/nutrients", tt.responder)

			_, err := s.Search(context.Background(), "omega")
			assert.ErrorIs(t, err, ErrUpstream)

			// Failures are not cached.
			_, found := s.cache.Get("omega")
			assert.False(t, found)
		})
	}
}

func TestSearch_SendsBrowserHeaders(t *testing.T) {
	s := newTestSearcher(t)

	httpmock.RegisterResponder(http.MethodGet, DefaultBaseURL+"/search/nutrients",
		func(req *http.Request) (*http.Response, error) {
			assert.Contains(t, req.Header.Get("User-Agent"), "Mozilla/5.0")
			assert.Equal(t, "text/html", req.Header.Get("Accept"))
			return httpmock.NewStringResponse(http.StatusOK, "<html></html>"), nil
		})

	resp, err := s.Search(context.Background(), "칼슘")
	require.NoError(t, err)
	assert.Zero(t, resp.Count)
}
