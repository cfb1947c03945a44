package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/mohammad-safakhou/readmode/models"
)

// Printer turns an article into a binary document.
type Printer interface {
	Print(ctx context.Context, a models.Article) ([]byte, error)
}

// PDFPrinter prints the HTML reader view with headless Chrome.
type PDFPrinter struct {
	Timeout time.Duration
	// ExecPath overrides Chrome discovery when set.
	ExecPath string
	Logger   *log.Logger
}

func (p PDFPrinter) Print(ctx context.Context, a models.Article) ([]byte, error) {
	doc, err := HTML(a)
	if err != nil {
		return nil, err
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	t0 := time.Now()
	var pdf []byte
	err = chromedp.Run(bctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(doc)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			pdf = buf
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	if p.Logger != nil {
		p.Logger.Printf("printed %q to pdf: %d bytes in %s", a.Title, len(pdf), time.Since(t0))
	}
	return pdf, nil
}
