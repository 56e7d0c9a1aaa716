// Package textextract turns stored document files into bounded plain text.
package textextract

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"unidoc-hub/internal/pkg/docxextract"
	"unidoc-hub/internal/pkg/pdfextract"
	"unidoc-hub/internal/pkg/textnorm"
)

const (
	DefaultMaxChars = 15000
	TruncatedMarker = "\n...[nội dung đã được rút gọn]"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// ObjectReader fetches stored files by key.
type ObjectReader interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
}

type decodeFunc func([]byte) (string, error)

var decoders = map[string]decodeFunc{
	".pdf":  pdfextract.ExtractText,
	".docx": docxextract.ExtractText,
	".txt":  decodePlain,
}

type Extractor struct {
	objects  ObjectReader
	maxChars int
}

func New(objects ObjectReader, maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Extractor{objects: objects, maxChars: maxChars}
}

func (e *Extractor) IsSupported(fileKey string) bool {
	_, ok := decoders[extension(fileKey)]
	return ok
}

// ExtractText downloads fileKey and returns its whitespace-collapsed text,
// cut to the configured length with TruncatedMarker appended when cut.
func (e *Extractor) ExtractText(ctx context.Context, fileKey string) (string, error) {
	ext := extension(fileKey)
	decode, ok := decoders[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	raw, err := e.objects.GetBytes(ctx, fileKey)
	if err != nil {
		return "", fmt.Errorf("fetch %s failed: %w", fileKey, err)
	}

	text, err := decode(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s failed: %w", fileKey, err)
	}

	text = textnorm.CollapseSpaces(text)
	if cut, truncated := textnorm.Truncate(text, e.maxChars); truncated {
		text = cut + TruncatedMarker
	}
	return text, nil
}

func decodePlain(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return strings.ToValidUTF8(string(b), "�"), nil
	}
	return string(b), nil
}

func extension(fileKey string) string {
	return strings.ToLower(path.Ext(fileKey))
}
