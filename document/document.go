package document

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ExportFilename is the fixed name offered for Markdown downloads.
const ExportFilename = "medtech_outlook_2026.md"

// ExportContentType is the MIME type of exported documents.
const ExportContentType = "text/markdown"

//go:embed outlook.md
var defaultArticle string

// Document is the editable article text. It carries no history; every Set
// replaces the previous text.
type Document struct {
	mu   sync.RWMutex
	text string
}

func New(text string) *Document {
	return &Document{text: text}
}

// Default returns a document holding the bundled regulatory outlook article.
func Default() *Document {
	return New(defaultArticle)
}

// Load reads a document from disk.
func Load(path string) (*Document, error) {
	d := &Document{}
	if err := d.ReadFile(path); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

func (d *Document) Set(text string) {
	d.mu.Lock()
	d.text = text
	d.mu.Unlock()
}

// WordCount counts whitespace separated words in the current text.
func (d *Document) WordCount() int {
	return WordCount(d.Text())
}

// Import reads r wholesale and replaces the document with it.
func (d *Document) Import(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.Set(string(data))
	return nil
}

// ReadFile replaces the document with the contents of path.
func (d *Document) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	d.Set(string(data))
	return nil
}

// Export writes the current text as Markdown.
func (d *Document) Export(w io.Writer) error {
	_, err := io.WriteString(w, d.Text())
	return err
}

// WriteFile saves the current text to path.
func (d *Document) WriteFile(path string) error {
	return os.WriteFile(path, []byte(d.Text()), 0o644)
}

func WordCount(text string) int {
	return len(strings.Fields(text))
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Preview converts Markdown to HTML.
func Preview(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
