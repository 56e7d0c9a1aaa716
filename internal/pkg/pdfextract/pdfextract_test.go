package pdfextract

import "testing"

func TestExtractTextEmpty(t *testing.T) {
	got, err := ExtractText(nil)
	if err != nil || got != "" {
		t.Errorf("ExtractText(nil) = %q, %v", got, err)
	}
}

func TestExtractTextCorrupt(t *testing.T) {
	if _, err := ExtractText([]byte("definitely not a pdf")); err == nil {
		t.Error("expected error for corrupt input")
	}
}
