package textnorm

import "testing"

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Giải Tích  1":             "giai tich 1",
		"tìm tài liệu về giải tích": "tim tai lieu ve giai tich",
		"Đại số tuyến tính":         "dai so tuyen tinh",
		"":                          "",
		"  Xác   suất\tthống kê ":   "xac suat thong ke",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	got, cut := Truncate("giải tích", 4)
	if !cut || got != "giải" {
		t.Errorf("Truncate = %q,%v", got, cut)
	}
	got, cut = Truncate("abc", 10)
	if cut || got != "abc" {
		t.Errorf("Truncate short = %q,%v", got, cut)
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("giai tich, 1-2?")
	want := []string{"giai", "tich", "1", "2"}
	if len(got) != len(want) {
		t.Fatalf("Tokens = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
