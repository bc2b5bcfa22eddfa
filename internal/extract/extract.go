package extract

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// charsPerPage is the plain-text page estimate used when no real page count
// is available. Roughly a standard contract page.
const charsPerPage = 1800

// Service is the document-extraction collaborator: it turns uploads into the
// page count and language the billing core needs. It never parses anything
// beyond that.
type Service struct {
	conf *model.Configuration
}

func NewService() *Service {
	return &Service{conf: model.NewDefaultConfiguration()}
}

// PDFPageCount reads the page count from a PDF stream.
func (s *Service) PDFPageCount(rs io.ReadSeeker) (int, error) {
	n, err := api.PageCount(rs, s.conf)
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	if n < 1 {
		return 0, fmt.Errorf("pdf reports %d pages", n)
	}
	return n, nil
}

// EstimatePages approximates a page count for raw text uploads. Always at
// least 1 for non-empty text.
func (s *Service) EstimatePages(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	pages := (n + charsPerPage - 1) / charsPerPage
	return pages
}

// DetectLanguage classifies text as RU, EN or UNKNOWN by script.
func (s *Service) DetectLanguage(text string) string {
	var cyrillic, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.IsLetter(r) && r < 128:
			latin++
		}
	}
	total := cyrillic + latin
	if total == 0 {
		return "UNKNOWN"
	}
	if cyrillic*10 > total*3 {
		return "RU"
	}
	return "EN"
}

// IsPDF reports whether the filename looks like a PDF upload.
func IsPDF(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
