package intake

import (
	"strings"

	"github.com/lu4p/cat/docxtxt"
)

// docxText returns the body text of a Word document. Formatting, tables
// and images are dropped.
func docxText(data []byte) (string, error) {
	text, err := docxtxt.BytesToStr(data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
