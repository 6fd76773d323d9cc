package intake

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeImage(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func makeDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestImageMIME(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"png", "image/png"},
		{"jpeg", "image/jpeg"},
		{"gif", "image/gif"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, ok := ImageMIME(encodeImage(t, tt.format))
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	webp := append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), make([]byte, 16)...)
	got, ok := ImageMIME(webp)
	assert.True(t, ok)
	assert.Equal(t, "image/webp", got)

	_, ok = ImageMIME([]byte("plain words"))
	assert.False(t, ok)
}

func TestLoadImageSniffsContent(t *testing.T) {
	// The extension lies; the bytes win.
	path := writeFile(t, "photo.jpg", encodeImage(t, "png"))

	att, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, att.Image)
	assert.Nil(t, att.Document)
	assert.Equal(t, "image/png", att.Image.MIMEType)

	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestLoadImageRejectsText(t *testing.T) {
	path := writeFile(t, "notes.png", []byte("not an image"))

	_, err := LoadImage(path)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLoadTextDocument(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("ABC"))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, "ABC", doc.Text)
}

func TestDocxParagraphs(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First</w:t></w:r><w:r><w:t xml:space="preserve"> line</w:t></w:r></w:p>
    <w:p><w:r><w:t>Col A</w:t><w:tab/><w:t>Col B</w:t></w:r></w:p>
    <w:p><w:r><w:t>Break</w:t><w:br/><w:t>here</w:t></w:r></w:p>
  </w:body>
</w:document>`

	att, err := FromBytes("report.docx", makeDocx(t, xml))
	require.NoError(t, err)
	require.NotNil(t, att.Document)
	assert.Equal(t, "report.docx", att.Document.Name)
	for _, want := range []string{"First", "line", "Col A", "Col B", "Break", "here"} {
		assert.Contains(t, att.Document.Text, want)
	}
	assert.NotContains(t, att.Document.Text, "<w:")
}

func TestCorruptDocumentsFail(t *testing.T) {
	for _, name := range []string{"broken.docx", "broken.pdf"} {
		t.Run(name, func(t *testing.T) {
			_, err := FromBytes(name, []byte("definitely not a container"))
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrUnsupported), "a known type that fails to parse is a read error")
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestBinaryIsUnsupported(t *testing.T) {
	_, err := FromBytes("blob.bin", []byte{0x00, 0x01, 0x02, 0xff})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestUnknownExtensionTextIsAccepted(t *testing.T) {
	att, err := FromBytes("Makefile", []byte("all:\n\tgo build ./...\n"))
	require.NoError(t, err)
	assert.Equal(t, "Makefile", att.Document.Name)
}

func TestExtensions(t *testing.T) {
	exts := Extensions()
	for _, want := range []string{".png", ".webp", ".docx", ".pdf", ".md"} {
		assert.Contains(t, exts, want)
	}
	assert.True(t, IsImagePath("a/B.JPEG"))
	assert.False(t, IsImagePath("a/b.pdf"))
}
