// Package printing turns report documents into PDF files.
//
// ChromedpPrinter renders a report.Document to HTML and prints it with
// headless Chrome. PDFMerger concatenates printed documents with pdfcpu.
//
//	printer, err := printing.NewChromedpPrinter(&printing.ChromedpConfig{
//	    PaperSize: printing.PaperSizeA4,
//	    NoSandbox: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer printer.Close()
//
//	pdf, err := printer.Print(ctx, doc)
package printing
