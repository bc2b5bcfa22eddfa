package extract

import (
	"strings"
	"testing"
)

func TestEstimatePages(t *testing.T) {
	s := NewService()
	cases := []struct {
		chars int
		want  int
	}{
		{0, 0},
		{1, 1},
		{1800, 1},
		{1801, 2},
		{3600, 2},
		{9500, 6},
	}
	for _, tc := range cases {
		if got := s.EstimatePages(strings.Repeat("a", tc.chars)); got != tc.want {
			t.Errorf("%d chars: got %d pages, want %d", tc.chars, got, tc.want)
		}
	}
	// Rune-based, not byte-based: Cyrillic text is not double counted.
	if got := s.EstimatePages(strings.Repeat("ж", 1800)); got != 1 {
		t.Errorf("1800 cyrillic runes: got %d pages, want 1", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	s := NewService()
	cases := []struct {
		text string
		want string
	}{
		{"The parties agree to the following terms.", "EN"},
		{"Стороны пришли к следующему соглашению.", "RU"},
		{"Договор contract с вкраплениями of English", "RU"},
		{"mostly english текст", "EN"},
		{"1234 --- 5678", "UNKNOWN"},
		{"", "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := s.DetectLanguage(tc.text); got != tc.want {
			t.Errorf("%q: got %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestIsPDF(t *testing.T) {
	for _, name := range []string{"contract.pdf", "CONTRACT.PDF", "dir/file.Pdf"} {
		if !IsPDF(name) {
			t.Errorf("%q not recognized", name)
		}
	}
	for _, name := range []string{"contract.txt", "pdf", "contract.pdf.txt", ""} {
		if IsPDF(name) {
			t.Errorf("%q misrecognized", name)
		}
	}
}
