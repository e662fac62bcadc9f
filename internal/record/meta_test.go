package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMeta(t *testing.T) {
	html := `<!doctype html>
<html><head>
  <title>  Camisa   Azul | Loja </title>
  <meta name="description" content="Camisa azul de algodão">
</head><body>
  <h1>Camisa <span>Azul</span></h1>
  <h1>Second</h1>
</body></html>`

	m, err := ExtractMeta([]byte(html))
	require.NoError(t, err)
	assert.Equal(t, "Camisa Azul | Loja", m.Title)
	assert.Equal(t, "Camisa azul de algodão", m.Description)
	assert.Equal(t, "Camisa Azul", m.H1)
}

func TestExtractMeta_OpenGraphFallback(t *testing.T) {
	html := `<html><head>
  <meta property="og:title" content="OG Title">
  <meta property="og:description" content="OG Desc">
</head><body></body></html>`

	m, err := ExtractMeta([]byte(html))
	require.NoError(t, err)
	assert.Equal(t, PageMeta{Title: "OG Title", Description: "OG Desc"}, m)
}

func TestExtractMeta_Empty(t *testing.T) {
	m, err := ExtractMeta(nil)
	require.NoError(t, err)
	assert.Equal(t, PageMeta{}, m)
}
