package pdfsource

import (
	"context"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/port"
)

type reader struct {
	opts LayoutOptions
	log  logrus.FieldLogger
}

// NewReader creates a DocumentSource backed by github.com/ledongthuc/pdf.
func NewReader(opts LayoutOptions, logger logrus.FieldLogger) port.DocumentSource {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}
	return &reader{opts: opts, log: logger}
}

func (r *reader) Open(ctx context.Context, path string) (doc *domain.Document, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("pdfsource.Open: malformed PDF %s: %v", path, rec)
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("pdfsource.Open: %w", err)
	}

	f, pr, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdfsource.Open: opening %s: %w", path, err)
	}
	defer f.Close()

	numPages := pr.NumPage()
	doc = &domain.Document{
		PageCount: numPages,
		Pages:     make([]domain.Page, 0, numPages),
		Metadata:  readInfo(pr, numPages, info.Size()),
	}

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pdfsource.Open: %w", err)
		}

		page := domain.Page{Number: i}
		p := pr.Page(i)
		if p.V.IsNull() {
			doc.Pages = append(doc.Pages, page)
			continue
		}

		content := p.Content()
		glyphs := make([]Glyph, 0, len(content.Text))
		for _, t := range content.Text {
			glyphs = append(glyphs, Glyph{S: t.S, X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize})
		}

		layout := AnalyzePage(glyphs, r.opts)
		page.Text = layout.Text
		page.Tables = layout.Tables
		page.DetectionMethod = layout.Method
		doc.Pages = append(doc.Pages, page)

		r.log.WithFields(logrus.Fields{
			"file":   path,
			"page":   i,
			"glyphs": len(glyphs),
			"tables": len(layout.Tables),
			"method": layout.Method,
		}).Debug("pdfsource.Open: page analyzed")
	}

	return doc, nil
}

func readInfo(pr *pdf.Reader, pages int, size int64) domain.DocumentMetadata {
	meta := domain.DocumentMetadata{Pages: pages, FileSizeBytes: size}
	info := pr.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}
	meta.Title = info.Key("Title").Text()
	meta.Author = info.Key("Author").Text()
	meta.Creator = info.Key("Creator").Text()
	meta.CreationDate = info.Key("CreationDate").Text()
	return meta
}
