package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/erp/reportdispatch/internal/domain/report"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 60 * time.Second
	defaultScale         = 1.0
)

// ChromedpConfig contains configuration for the chromedp printer
type ChromedpConfig struct {
	// DefaultTimeout bounds one print call when the caller has no earlier deadline
	DefaultTimeout time.Duration
	// RemoteURL is the DevTools websocket URL of a running Chrome (optional).
	// If empty, chromedp launches a local browser.
	RemoteURL string
	// ExecPath overrides the Chrome binary used for local launches
	ExecPath string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	PaperSize PaperSize
	Margins   *Margins
	Scale     float64
	Logger    *zap.Logger
}

// ChromedpPrinter prints report documents to PDF using Chrome DevTools Protocol
type ChromedpPrinter struct {
	config      *ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpPrinter creates a printer sharing one browser allocator across calls
func NewChromedpPrinter(config *ChromedpConfig) (*ChromedpPrinter, error) {
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}
	if config.Scale == 0 {
		config.Scale = defaultScale
	}
	if !config.PaperSize.IsValid() {
		config.PaperSize = PaperSizeA4
	}
	if config.Margins == nil {
		m := DefaultMargins()
		config.Margins = &m
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &ChromedpPrinter{
		config: config,
		logger: logger,
	}
	p.initAllocator()
	return p, nil
}

func (p *ChromedpPrinter) initAllocator() {
	if p.config.RemoteURL != "" {
		p.allocCtx, p.allocCancel = chromedp.NewRemoteAllocator(context.Background(), p.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if p.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if p.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.config.ExecPath))
	}
	p.allocCtx, p.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Print lays out the document as HTML and prints it in a fresh browser tab
func (p *ChromedpPrinter) Print(ctx context.Context, doc *report.Document) (*report.RenderedPDF, error) {
	html, err := RenderHTML(doc)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.config.DefaultTimeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(p.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			p.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()

	// the tab lives under the shared allocator, so tie it to the caller's deadline
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	params := p.buildPrintParams(doc)
	var pdfData []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(params.paperWidth).
				WithPaperHeight(params.paperHeight).
				WithMarginTop(params.marginTop).
				WithMarginRight(params.marginRight).
				WithMarginBottom(params.marginBottom).
				WithMarginLeft(params.marginLeft).
				WithScale(params.scale).
				WithLandscape(params.landscape).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate("<span></span>").
				WithFooterTemplate(footerTemplate).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF printing timed out", err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF printing was cancelled", err)
		}
		p.logger.Error("chromedp printing failed", zap.String("title", doc.Title), zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	pages := CountPages(pdfData)
	p.logger.Debug("document printed",
		zap.String("title", doc.Title),
		zap.Int("bytes", len(pdfData)),
		zap.Int("pages", pages),
		zap.Duration("duration", time.Since(startTime)))

	return &report.RenderedPDF{Data: pdfData, PageCount: pages}, nil
}

type printParams struct {
	paperWidth   float64
	paperHeight  float64
	marginTop    float64
	marginRight  float64
	marginBottom float64
	marginLeft   float64
	scale        float64
	landscape    bool
}

func (p *ChromedpPrinter) buildPrintParams(doc *report.Document) *printParams {
	width, height := p.config.PaperSize.Dimensions()
	m := p.config.Margins
	return &printParams{
		paperWidth:   mmToInches(float64(width)),
		paperHeight:  mmToInches(float64(height)),
		marginTop:    mmToInches(float64(m.Top)),
		marginRight:  mmToInches(float64(m.Right)),
		marginBottom: mmToInches(float64(m.Bottom)),
		marginLeft:   mmToInches(float64(m.Left)),
		scale:        p.config.Scale,
		landscape:    doc.Landscape,
	}
}

// Close shuts down the browser allocator
func (p *ChromedpPrinter) Close() error {
	if p.allocCancel != nil {
		p.allocCancel()
	}
	return nil
}
