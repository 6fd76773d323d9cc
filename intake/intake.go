// Package intake reads local files into submission attachments: images as
// raw bytes with a sniffed media type, documents as extracted plain text.
package intake

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"linae/model"
)

// ErrUnsupported is returned for files that are neither a supported image
// nor readable as text.
var ErrUnsupported = errors.New("unsupported file type")

// imageTypes are the media types every provider accepts.
var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// textExtensions are read verbatim.
var textExtensions = []string{
	".txt", ".md", ".markdown", ".rst", ".csv", ".tsv", ".log",
	".json", ".yaml", ".yml", ".toml", ".ini", ".cfg", ".xml", ".html", ".htm",
	".go", ".py", ".js", ".ts", ".tsx", ".jsx", ".rs", ".java", ".c", ".h",
	".cpp", ".hpp", ".sh", ".sql",
}

// Attachment is what a file became: exactly one of Image or Document is set.
type Attachment struct {
	Image    *model.Image
	Document *model.Document
}

// Load reads path and classifies it by content first, extension second.
func Load(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes classifies an in-memory file. name supplies the extension and
// the document label.
func FromBytes(name string, data []byte) (Attachment, error) {
	if mime, ok := ImageMIME(data); ok {
		return Attachment{Image: &model.Image{MIMEType: mime, Data: data}}, nil
	}

	text, err := extractText(name, data)
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{Document: &model.Document{Name: name, Text: text}}, nil
}

// LoadImage reads path and fails unless it holds a supported image.
func LoadImage(path string) (*model.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	mime, ok := ImageMIME(data)
	if !ok {
		return nil, fmt.Errorf("%s: %w: not a png, jpeg, gif or webp image", filepath.Base(path), ErrUnsupported)
	}
	return &model.Image{MIMEType: mime, Data: data}, nil
}

// LoadDocument reads path as a document.
func LoadDocument(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	name := filepath.Base(path)
	text, err := extractText(name, data)
	if err != nil {
		return nil, err
	}
	return &model.Document{Name: name, Text: text}, nil
}

// ImageMIME sniffs data and reports its media type when it is a supported
// image.
func ImageMIME(data []byte) (string, bool) {
	mime := http.DetectContentType(data)
	if imageTypes[mime] {
		return mime, true
	}
	return "", false
}

func extractText(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		text, err := docxText(data)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return text, nil
	case ".pdf":
		text, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return text, nil
	}

	if !looksLikeText(data) {
		return "", fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	return string(data), nil
}

// looksLikeText accepts valid UTF-8 without NUL bytes.
func looksLikeText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}

// Extensions lists the file extensions offered by the file picker.
func Extensions() []string {
	out := make([]string, 0, len(imageExtensions)+len(textExtensions)+2)
	out = append(out, imageExtensions...)
	out = append(out, ".docx", ".pdf")
	out = append(out, textExtensions...)
	return out
}

// IsImagePath reports whether the extension names an image.
func IsImagePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range imageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
