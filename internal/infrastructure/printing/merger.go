package printing

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// PDFMerger concatenates printed documents into one PDF with pdfcpu
type PDFMerger struct {
	logger *zap.Logger
}

// NewPDFMerger creates a new PDFMerger
func NewPDFMerger(logger *zap.Logger) *PDFMerger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFMerger{logger: logger}
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Merge appends docs in order, without divider pages
func (m *PDFMerger) Merge(ctx context.Context, docs [][]byte) (*report.RenderedPDF, error) {
	if len(docs) == 0 {
		return nil, NewRenderError(ErrCodeInvalidInput, "nothing to merge", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "merge cancelled", err)
	}

	readers := make([]io.ReadSeeker, 0, len(docs))
	for i, d := range docs {
		if len(d) == 0 {
			return nil, NewRenderError(ErrCodeInvalidInput, "document "+strconv.Itoa(i)+" is empty", nil)
		}
		readers = append(readers, bytes.NewReader(d))
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, newConfiguration()); err != nil {
		return nil, NewRenderError(ErrCodeMergeFailed, "pdfcpu merge failed", err)
	}

	merged := out.Bytes()
	pages := CountPages(merged)
	m.logger.Debug("documents merged",
		zap.Int("documents", len(docs)),
		zap.Int("bytes", len(merged)),
		zap.Int("pages", pages))
	return &report.RenderedPDF{Data: merged, PageCount: pages}, nil
}

// CountPages returns the page count of a PDF, falling back to a byte scan
// when pdfcpu cannot read the file
func CountPages(pdf []byte) int {
	n, err := api.PageCount(bytes.NewReader(pdf), newConfiguration())
	if err == nil && n > 0 {
		return n
	}
	return estimatePageCount(pdf)
}

// estimatePageCount counts "/Type /Page" objects that are not "/Type /Pages"
func estimatePageCount(pdf []byte) int {
	count := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(count, 1)
}
