package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

const pdfLicenseEnv = "UNIDOC_LICENSE_KEY"

var (
	pdfLicenseOnce sync.Once
	pdfLicenseErr  error
)

// LoadSourceText reads the ingestion source. Plain text and markdown must be
// UTF-8; PDFs are converted to text with UniPDF, which needs
// UNIDOC_LICENSE_KEY in the environment.
func LoadSourceText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractTextFromPDF(path)
	default:
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read source %s: %w", path, err)
		}
		if !utf8.Valid(content) {
			return "", fmt.Errorf("source %s is not valid UTF-8", path)
		}
		return string(content), nil
	}
}

// setPDFLicense applies UNIDOC_LICENSE_KEY once per process. The outcome of
// the first attempt is kept for every later call.
func setPDFLicense() error {
	pdfLicenseOnce.Do(func() {
		if key := os.Getenv(pdfLicenseEnv); key != "" {
			pdfLicenseErr = license.SetMeteredKey(key)
		}
	})
	return pdfLicenseErr
}

func extractTextFromPDF(path string) (string, error) {
	if err := setPDFLicense(); err != nil {
		return "", fmt.Errorf("failed to set unidoc license key: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source %s: %w", path, err)
	}
	defer f.Close()

	text, err := pdfText(f)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", path, err)
	}
	return text, nil
}

// pdfText returns the text of every page, one page after another. Pages
// without text are skipped so they do not produce blank chunks.
func pdfText(r io.ReadSeeker) (string, error) {
	reader, err := model.NewPdfReader(r)
	if err != nil {
		return "", err
	}
	pages, err := reader.GetNumPages()
	if err != nil {
		return "", err
	}

	var out []string
	for n := 1; n <= pages; n++ {
		page, err := reader.GetPage(n)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n"), nil
}
