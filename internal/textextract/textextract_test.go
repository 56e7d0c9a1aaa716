package textextract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeObjects struct {
	data  map[string][]byte
	calls int
}

func (f *fakeObjects) GetBytes(_ context.Context, key string) ([]byte, error) {
	f.calls++
	b, ok := f.data[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return b, nil
}

func TestIsSupported(t *testing.T) {
	e := New(&fakeObjects{}, 0)
	cases := map[string]bool{
		"documents/a.pdf":  true,
		"documents/a.PDF":  true,
		"documents/a.docx": true,
		"documents/a.txt":  true,
		"documents/a.doc":  false,
		"documents/a.pptx": false,
		"documents/noext":  false,
	}
	for key, want := range cases {
		if got := e.IsSupported(key); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestExtractTextUnsupportedSkipsFetch(t *testing.T) {
	objects := &fakeObjects{}
	e := New(objects, 0)

	_, err := e.ExtractText(context.Background(), "documents/slides.pptx")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if objects.calls != 0 {
		t.Errorf("object store called %d times", objects.calls)
	}
}

func TestExtractTextPlainCollapsesAndTruncates(t *testing.T) {
	objects := &fakeObjects{data: map[string][]byte{
		"short.txt": []byte("  giải   tích\n\n1 "),
		"long.txt":  []byte(strings.Repeat("a ", 20)),
	}}
	e := New(objects, 10)
	ctx := context.Background()

	got, err := e.ExtractText(ctx, "short.txt")
	if err != nil || got != "giải tích 1" {
		t.Errorf("short = %q, %v", got, err)
	}

	got, err = e.ExtractText(ctx, "long.txt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "a a a a a "+TruncatedMarker {
		t.Errorf("long = %q", got)
	}
}

func TestExtractTextFetchError(t *testing.T) {
	e := New(&fakeObjects{}, 0)
	if _, err := e.ExtractText(context.Background(), "gone.pdf"); err == nil {
		t.Error("expected fetch error")
	}
}
