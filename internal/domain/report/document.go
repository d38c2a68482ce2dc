package report

import "time"

// Align is the horizontal alignment of a document column
type Align string

const (
	AlignLeft  Align = "left"
	AlignRight Align = "right"
)

// Column describes one column of a tabular report document
type Column struct {
	Header string
	Align  Align
}

// SummaryLine is a labelled total printed below the table
type SummaryLine struct {
	Label string
	Value string
}

// Document is a print-ready tabular report: already filtered, sorted and formatted
type Document struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Columns     []Column
	Rows        [][]string
	Summary     []SummaryLine
	Landscape   bool
}

// RenderedPDF is the printed form of a document
type RenderedPDF struct {
	Data      []byte
	PageCount int
}
