package ai

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub-api/internal/logger"
)

func TestDecodeBase64(t *testing.T) {
	want := []byte("%PDF-1.4 hello")
	std := base64.StdEncoding.EncodeToString(want)

	for _, in := range []string{
		std,
		"data:application/pdf;base64," + std,
		base64.RawURLEncoding.EncodeToString(want),
		std[:8] + "\n" + std[8:],
	} {
		got, err := DecodeBase64(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := DecodeBase64("***")
	assert.Error(t, err)
}

func TestExtractTextRejectsNonPDF(t *testing.T) {
	p := NewPDFExtractor(logger.Nop(), 2)
	_, err := p.ExtractText([]byte("hello"))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = p.ExtractText([]byte("%PDF-1.4\nthis is not really a pdf"))
	assert.Error(t, err)
}

func TestExtractManyKeepsOrderAndErrors(t *testing.T) {
	p := NewPDFExtractor(logger.Nop(), 2)
	res := p.ExtractMany(context.Background(), []PDFFile{
		{Name: "a.pdf", Data: []byte("nope")},
		{Name: "b.pdf", Data: []byte("%PDF-broken")},
		{Name: "c.txt", Data: []byte("plain")},
	})
	require.Len(t, res, 3)
	assert.Equal(t, "a.pdf", res[0].Name)
	assert.Equal(t, "c.txt", res[2].Name)
	assert.Equal(t, 5, res[2].Size)
	for _, r := range res {
		assert.Empty(t, r.Text)
		assert.NotEmpty(t, r.Error)
	}
}

func TestExtractBase64DegradesToEmpty(t *testing.T) {
	p := NewPDFExtractor(logger.Nop(), 0)
	text := p.ExtractBase64(context.Background(), []string{
		"not base64 !!",
		base64.StdEncoding.EncodeToString([]byte("not a pdf")),
	})
	assert.Equal(t, "", text)
}

func TestTidy(t *testing.T) {
	assert.Equal(t, "a b\n\nc", tidy("  a \t b\r\n\n\n\n\nc  "))
}
