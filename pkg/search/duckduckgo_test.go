package search

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultPage = `
<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fart&amp;rut=abc">Example Art</a>
  <a class="result__snippet">A page about <b>art</b> styles.</a>
</div>
<div class="result">
  <a class="result__a" href="https://plain.example.org/page">Plain Link</a>
  <a class="result__snippet">Another snippet.</a>
</div>
<div class="result">
  <a class="result__a" href="https://no-title.example.org"></a>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultPage))
	require.NoError(t, err)

	results := parseResults(doc, 10)
	require.Len(t, results, 2, "result without a title is skipped")

	assert.Equal(t, "Example Art", results[0].Title)
	assert.Equal(t, "https://example.com/art", results[0].URL)
	assert.Equal(t, "A page about art styles.", results[0].Body)

	assert.Equal(t, "Plain Link", results[1].Title)
	assert.Equal(t, "https://plain.example.org/page", results[1].URL)
}

func TestParseResults_MaxResults(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultPage))
	require.NoError(t, err)

	results := parseResults(doc, 1)
	assert.Len(t, results, 1)
}

func TestExtractActualURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a b",
		extractActualURL("/l/?uddg=https%3A%2F%2Fexample.com%2Fa%20b&rut=x"))
	assert.Equal(t, "https://direct.example.com",
		extractActualURL("https://direct.example.com"))
	assert.Equal(t, "https://schemeless.example.com",
		extractActualURL("//schemeless.example.com"))
}

func TestBuildSearchURL(t *testing.T) {
	c := NewDuckDuckGoClient()

	u := c.buildSearchURL("fox ears", SearchOptions{Region: "us-en", SafeSearch: "off"})
	assert.Contains(t, u, "html.duckduckgo.com/html/")
	assert.Contains(t, u, "q=fox+ears")
	assert.Contains(t, u, "kp=-2")

	u = c.buildSearchURL("x", SearchOptions{SafeSearch: "on"})
	assert.Contains(t, u, "kp=1")
}
