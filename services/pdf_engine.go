package services

import (
	"bytes"
	"fmt"
	"strconv"

	pdfreader "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfEngine is the pdfcpu-backed PageEngine. Page artifacts are
// single-page PDFs; page text comes from the PDF's own text layer.
type pdfEngine struct {
	conf *model.Configuration
}

func NewPDFEngine() PageEngine {
	conf := model.NewDefaultConfiguration()
	// Real-world uploads are frequently slightly malformed.
	conf.ValidationMode = model.ValidationRelaxed
	return &pdfEngine{conf: conf}
}

func (e *pdfEngine) PageCount(data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), e.conf)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return count, nil
}

func (e *pdfEngine) ExtractPage(data []byte, pageNumber int) ([]byte, string, string, error) {
	var buf bytes.Buffer
	selected := []string{strconv.Itoa(pageNumber)}
	if err := api.Trim(bytes.NewReader(data), &buf, selected, e.conf); err != nil {
		return nil, "", "", fmt.Errorf("trim page %d: %w", pageNumber, err)
	}
	return buf.Bytes(), ".pdf", "application/pdf", nil
}

func (e *pdfEngine) ExtractPageText(data []byte, pageNumber int) (string, error) {
	reader, err := pdfreader.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	if pageNumber < 1 || pageNumber > reader.NumPage() {
		return "", fmt.Errorf("page %d out of range", pageNumber)
	}
	page := reader.Page(pageNumber)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract text from page %d: %w", pageNumber, err)
	}
	return text, nil
}
