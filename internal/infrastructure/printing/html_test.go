package printing

import (
	"strings"
	"testing"
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *report.Document {
	return &report.Document{
		Title:       "Inventory Status",
		Subtitle:    "Categories: Tools & Hardware",
		GeneratedAt: time.Date(2024, time.July, 19, 14, 0, 0, 0, time.UTC),
		Columns: []report.Column{
			{Header: "Product", Align: report.AlignLeft},
			{Header: "On Hand", Align: report.AlignRight},
		},
		Rows: [][]string{
			{"Hammer <claw>", "10"},
			{"Rake", "3"},
		},
		Summary: []report.SummaryLine{{Label: "In stock", Value: "2"}},
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(sampleDocument())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Inventory Status</title>")
	assert.Contains(t, html, "Categories: Tools &amp; Hardware")
	assert.Contains(t, html, "Generated Jul 19, 2024 14:00 UTC")
	assert.Contains(t, html, `<th>Product</th>`)
	assert.Contains(t, html, `<th class="right">On Hand</th>`)
	assert.Contains(t, html, `<td>Hammer &lt;claw&gt;</td>`)
	assert.Contains(t, html, `<td class="right">10</td>`)
	assert.Contains(t, html, `<td class="label">In stock</td><td class="value">2</td>`)
	assert.NotContains(t, html, "No data")
}

func TestRenderHTML_EmptyRows(t *testing.T) {
	doc := sampleDocument()
	doc.Rows = nil
	doc.Summary = nil
	doc.Subtitle = ""

	html, err := RenderHTML(doc)
	require.NoError(t, err)

	assert.Contains(t, html, `<td class="empty" colspan="2">No data</td>`)
	assert.NotContains(t, html, `class="summary"`)
	assert.NotContains(t, html, `class="subtitle"`)
}

func TestRenderHTML_InvalidDocuments(t *testing.T) {
	_, err := RenderHTML(nil)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidInput, renderErr.Code)

	doc := sampleDocument()
	doc.Columns = nil
	_, err = RenderHTML(doc)
	assert.ErrorContains(t, err, "no columns")

	doc = sampleDocument()
	doc.Rows = append(doc.Rows, []string{"Shovel"})
	_, err = RenderHTML(doc)
	assert.ErrorContains(t, err, "row 2 has 1 cells, expected 2")
}
