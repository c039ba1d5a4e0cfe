package siteprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const richPage = `<!doctype html><html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"LocalBusiness","name":"Clarity Copiers"}</script>
<style>.price{color:red}</style>
</head><body>
<div itemscope itemtype="https://schema.org/Organization">Clarity</div>
<p>Lease a Ricoh MFD from £45 per month.</p>
<a href="https://www.facebook.com/claritycopiers">Facebook</a>
<a href="https://uk.linkedin.com/company/clarity">LinkedIn</a>
<a href="/contact">Contact</a>
</body></html>`

func TestInspectRichPage(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(richPage))
	require.NoError(t, err)

	f := Inspect(doc)

	assert.True(t, f.StructuredData)
	assert.Equal(t, []string{"LocalBusiness", "Organization"}, f.SchemaTypes)
	assert.True(t, f.SocialMedia)
	assert.Equal(t, []string{"facebook.com", "linkedin.com"}, f.SocialLinks)
	assert.True(t, f.Pricing)
}

func TestInspectBarePage(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body><h1>Welcome</h1><a href="/about">About us</a></body></html>`))
	require.NoError(t, err)

	f := Inspect(doc)

	assert.False(t, f.StructuredData)
	assert.False(t, f.SocialMedia)
	assert.False(t, f.Pricing)
	assert.Empty(t, f.SocialLinks)
}

func TestProbeFetchesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(richPage))
	}))
	defer srv.Close()

	f, err := NewProber().Probe(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, f.StructuredData)
	assert.Equal(t, srv.URL, f.URL)
}

func TestProbeNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewProber().Probe(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("clarity-copiers.co.uk")
	require.NoError(t, err)
	assert.Equal(t, "https://clarity-copiers.co.uk", got)

	_, err = Normalize("ftp://example.com")
	assert.Error(t, err)

	_, err = Normalize("  ")
	assert.Error(t, err)
}
