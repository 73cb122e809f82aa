package docs

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

type fakeEngine struct {
	text string
	err  error
}

func (f fakeEngine) Recognize(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

func buildZip(t *testing.T, parts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Photosynthesis </w:t></w:r><w:r><w:t>overview</w:t></w:r></w:p>
<w:p><w:r><w:t>Light</w:t><w:tab/><w:t>energy</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>التمثيل الضوئي</w:t></w:r></w:p>
</w:body>
</w:document>`

func slideXML(text string) string {
	return `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
		`<p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestLoadDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": documentXML})

	text, err := LoadDOCX(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis overview\nLight\tenergy\nالتمثيل الضوئي", text)
}

func TestLoadDOCXMissingPart(t *testing.T) {
	data := buildZip(t, map[string]string{"other.xml": "<a/>"})

	_, err := LoadDOCX(context.Background(), data)
	assert.Error(t, err)

	_, err = LoadDOCX(context.Background(), []byte("not a zip"))
	assert.Error(t, err)
}

func TestLoadPPTXSlideOrder(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/slides/slide10.xml":            slideXML("ten"),
		"ppt/slides/slide2.xml":             slideXML("two"),
		"ppt/slides/slide1.xml":             slideXML("one"),
		"ppt/slides/_rels/slide1.xml.rels":  "<Relationships/>",
		"ppt/slideLayouts/slideLayout1.xml": slideXML("layout"),
	})

	text, err := LoadPPTX(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "one\n\ntwo\n\nten", text)
}

func TestDecodeText(t *testing.T) {
	t.Run("UTF-8 with BOM", func(t *testing.T) {
		text, err := DecodeText([]byte("\xef\xbb\xbfمرحبا"), charmap.ISO8859_1)
		require.NoError(t, err)
		assert.Equal(t, "مرحبا", text)
	})

	t.Run("Latin-1 fallback", func(t *testing.T) {
		text, err := DecodeText([]byte("caf\xe9"), charmap.ISO8859_1)
		require.NoError(t, err)
		assert.Equal(t, "café", text)
	})

	t.Run("Windows-1256 fallback", func(t *testing.T) {
		text, err := DecodeText([]byte{0xe3, 0xd1, 0xcd, 0xc8, 0xc7}, charmap.Windows1256)
		require.NoError(t, err)
		assert.Equal(t, "مرحبا", text)
	})

	t.Run("No fallback", func(t *testing.T) {
		_, err := DecodeText([]byte("caf\xe9"), nil)
		assert.Error(t, err)
	})
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("Without OCR", func(t *testing.T) {
		r := NewRegistry(nil)
		assert.Equal(t, []string{"docx", "pdf", "pptx", "txt"}, r.SupportedFormats())

		_, err := r.Extract(ctx, "scan.png", []byte("img"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})

	t.Run("With OCR", func(t *testing.T) {
		r := NewRegistry(fakeEngine{text: "  recognized text \n"})
		assert.Contains(t, r.SupportedFormats(), "jpeg")
		assert.Contains(t, r.SupportedFormats(), "tiff")

		text, err := r.Extract(ctx, "Scan.PNG", []byte("img"))
		require.NoError(t, err)
		assert.Equal(t, "recognized text", text)
	})

	t.Run("OCR failure", func(t *testing.T) {
		r := NewRegistry(fakeEngine{err: errors.New("boom")})

		_, err := r.Extract(ctx, "scan.jpg", []byte("img"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OCR processing failed")
	})

	t.Run("Text file", func(t *testing.T) {
		text, err := NewRegistry(nil).Extract(ctx, "notes.txt", []byte("  hello\n"))
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	})

	t.Run("Unknown extension", func(t *testing.T) {
		_, err := NewRegistry(nil).Extract(ctx, "archive.rar", nil)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.Contains(t, err.Error(), ".rar")
	})
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", Extension("Lecture.PDF"))
	assert.Equal(t, "", Extension("README"))
	assert.Equal(t, "gz", Extension("a.tar.gz"))
}
