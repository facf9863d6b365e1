package webextract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>  Acme   Rocket Launch </title>
	<script src="analytics.js"></script>
	<style>body { color: red; }</style>
</head>
<body>
	<nav><a href="/">Home</a><a href="/about">About</a></nav>
	<h1>Introducing the Acme Rocket</h1>
	<p>The fastest way to reach    orbit on a budget.</p>
	<script>trackEvent("pageview");</script>
	<ul>
		<li>Reusable booster</li>
		<li>Carbon neutral fuel</li>
	</ul>
	<footer>Copyright Acme Corp</footer>
</body>
</html>`

func TestExtractFromHTML(t *testing.T) {
	content, err := ExtractFromHTML(strings.NewReader(samplePage), "https://acme.example/launch")
	require.NoError(t, err)

	assert.Equal(t, "https://acme.example/launch", content.URL)
	assert.Equal(t, "Acme Rocket Launch", content.Title)

	assert.Contains(t, content.Text, "Introducing the Acme Rocket")
	assert.Contains(t, content.Text, "The fastest way to reach orbit on a budget.")
	assert.Contains(t, content.Text, "Reusable booster")

	assert.NotContains(t, content.Text, "trackEvent")
	assert.NotContains(t, content.Text, "color: red")
	assert.NotContains(t, content.Text, "Copyright Acme Corp")
}

func TestExtractFromHTMLWithoutSemanticMarkup(t *testing.T) {
	content, err := ExtractFromHTML(strings.NewReader("<html><body>just   plain text</body></html>"), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "just plain text", content.Text)
}

func TestTruncateRunes(t *testing.T) {
	long := strings.Repeat("a", maxTextRunes+100)
	got := truncateRunes(long, maxTextRunes)
	assert.True(t, strings.HasSuffix(got, " [truncated]"))
	assert.Len(t, got, maxTextRunes+len(" [truncated]"))
}
