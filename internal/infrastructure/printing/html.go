package printing

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/erp/reportdispatch/internal/domain/report"
)

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 10px; color: #222; margin: 0; }
  h1 { font-size: 18px; margin: 0 0 4px 0; }
  .subtitle { color: #555; margin: 0 0 2px 0; }
  .generated { color: #888; font-size: 9px; margin: 0 0 12px 0; }
  table { width: 100%; border-collapse: collapse; }
  thead { display: table-header-group; }
  tr { page-break-inside: avoid; }
  th { background: #f0f2f5; border-bottom: 1px solid #c8ccd2; padding: 5px 6px; text-align: left; }
  td { border-bottom: 1px solid #e4e6ea; padding: 4px 6px; }
  .right { text-align: right; }
  .empty { color: #888; text-align: center; padding: 16px; }
  .summary { margin-top: 14px; border-collapse: collapse; width: auto; }
  .summary td { border: none; padding: 2px 12px 2px 0; }
  .summary td.label { color: #555; }
  .summary td.value { font-weight: bold; text-align: right; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- if .Subtitle}}
<p class="subtitle">{{.Subtitle}}</p>
{{- end}}
<p class="generated">Generated {{.Generated}}</p>
<table>
<thead>
<tr>
{{- range .Columns}}
<th{{if eq .Align "right"}} class="right"{{end}}>{{.Header}}</th>
{{- end}}
</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>
{{- range .}}
<td{{if .Right}} class="right"{{end}}>{{.Value}}</td>
{{- end}}
</tr>
{{- else}}
<tr><td class="empty" colspan="{{len .Columns}}">No data</td></tr>
{{- end}}
</tbody>
</table>
{{- if .Summary}}
<table class="summary">
{{- range .Summary}}
<tr><td class="label">{{.Label}}</td><td class="value">{{.Value}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`

const footerTemplate = `<div style="font-size:8px;color:#888;width:100%;padding:0 10mm;display:flex;justify-content:space-between;">` +
	`<span class="title"></span><span><span class="pageNumber"></span> / <span class="totalPages"></span></span></div>`

var documentTmpl = template.Must(template.New("report-document").Parse(documentTemplate))

type cell struct {
	Value string
	Right bool
}

type documentView struct {
	Title     string
	Subtitle  string
	Generated string
	Columns   []report.Column
	Rows      [][]cell
	Summary   []report.SummaryLine
}

// RenderHTML lays out a document as a standalone HTML page
func RenderHTML(doc *report.Document) (string, error) {
	if doc == nil {
		return "", NewRenderError(ErrCodeInvalidInput, "document is nil", nil)
	}
	if len(doc.Columns) == 0 {
		return "", NewRenderError(ErrCodeInvalidInput, "document has no columns", nil)
	}

	view := documentView{
		Title:     doc.Title,
		Subtitle:  doc.Subtitle,
		Generated: doc.GeneratedAt.Format("Jan 2, 2006 15:04 MST"),
		Columns:   doc.Columns,
		Rows:      make([][]cell, 0, len(doc.Rows)),
		Summary:   doc.Summary,
	}
	for i, row := range doc.Rows {
		if len(row) != len(doc.Columns) {
			return "", NewRenderError(ErrCodeInvalidInput,
				fmt.Sprintf("row %d has %d cells, expected %d", i, len(row), len(doc.Columns)), nil)
		}
		cells := make([]cell, len(row))
		for j, v := range row {
			cells[j] = cell{Value: v, Right: doc.Columns[j].Align == report.AlignRight}
		}
		view.Rows = append(view.Rows, cells)
	}

	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, view); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "execute document template", err)
	}
	return buf.String(), nil
}
