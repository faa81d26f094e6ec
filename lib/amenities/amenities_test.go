package amenities

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestExtractStructuredItems(t *testing.T) {
	content := PageContent{
		Items: []string{"  POOL ", "Valet parking", "wifi", "Ballroom dancing"},
	}
	found := Extract(content)
	require.Equal(t, []string{"Pool", "Valet parking", "Wifi"}, found)
}

func TestExtractNearMatch(t *testing.T) {
	// close but not exact label text still resolves to the canonical label
	content := PageContent{Items: []string{"Airport transportations"}}
	found := Extract(content)
	require.Equal(t, []string{"Airport transportation"}, found)
}

func TestExtractLiteralTextFallback(t *testing.T) {
	content := PageContent{
		Text: "Guests love the Rooftop terrace and the Free parking at this property.",
	}
	found := Extract(content)
	require.Contains(t, found, "Rooftop terrace")
	require.Contains(t, found, "Free parking")
}

func TestExtractEmpty(t *testing.T) {
	require.Empty(t, Extract(PageContent{}))
}

type stubProvider struct {
	pages map[string]PageContent
	fail  map[string]bool
}

func (p stubProvider) FetchPage(_ context.Context, url string) (PageContent, error) {
	if p.fail[url] {
		return PageContent{}, fmt.Errorf("fetch %s: connection refused", url)
	}
	return p.pages[url], nil
}

func TestCompareThreeEntities(t *testing.T) {
	provider := stubProvider{pages: map[string]PageContent{
		"http://a": {Items: []string{"Pool", "Wifi"}},
		"http://b": {Items: []string{"Wifi", "Spa"}},
		"http://c": {Items: []string{"Wifi", "Pool"}},
	}}
	entities := []Entity{
		{Name: "A", URL: "http://a"},
		{Name: "B", URL: "http://b"},
		{Name: "C", URL: "http://c"},
	}

	result, err := Compare(context.Background(), provider, entities)
	require.NoError(t, err)

	require.Empty(t, cmp.Diff([]string{"Wifi"}, result.Common))
	require.Empty(t, cmp.Diff([]string{"Pool", "Spa", "Wifi"}, result.Union))
	require.InDelta(t, 1.0/3.0, result.AgreementRate, 1e-9)

	require.Empty(t, result.Entities[0].Unique)
	require.Equal(t, []string{"Spa"}, result.Entities[1].Unique)
	require.Empty(t, result.Entities[2].Unique)
}

func TestCompareFetchFailureDegrades(t *testing.T) {
	provider := stubProvider{
		pages: map[string]PageContent{
			"http://a": {Items: []string{"Pool"}},
		},
		fail: map[string]bool{"http://b": true},
	}
	entities := []Entity{
		{Name: "A", URL: "http://a"},
		{Name: "B", URL: "http://b"},
	}

	result, err := Compare(context.Background(), provider, entities)
	require.NoError(t, err)
	require.Empty(t, result.Common)
	require.Equal(t, []string{"Pool"}, result.Union)
	require.Zero(t, result.AgreementRate)
}

func TestCompareEntityCountBounds(t *testing.T) {
	provider := stubProvider{}
	_, err := Compare(context.Background(), provider, []Entity{{Name: "A"}})
	require.Error(t, err)
	_, err = Compare(context.Background(), provider, make([]Entity, 4))
	require.Error(t, err)
}

func TestSelectionEvictsOldest(t *testing.T) {
	sel := NewSelection(3)
	sel.Add(Entity{Name: "first"})
	sel.Add(Entity{Name: "second"})
	sel.Add(Entity{Name: "third"})
	sel.Add(Entity{Name: "fourth"})

	items := sel.Items()
	require.Len(t, items, 3)
	require.Equal(t, "second", items[0].Name)
	require.Equal(t, "fourth", items[2].Name)

	sel.Clear()
	require.Zero(t, sel.Len())
}

func TestHTTPProviderFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<div data-test-target="amenity-item">Free  wifi</div>
			<div class="amenity-item">Pool</div>
			<p>This property also offers a Rooftop bar.</p>
		</body></html>`)
	}))
	defer server.Close()

	provider, err := NewHTTPProvider()
	require.NoError(t, err)

	content, err := provider.FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, []string{"Free wifi", "Pool"}, content.Items)
	require.Contains(t, content.Text, "Rooftop bar")
}
