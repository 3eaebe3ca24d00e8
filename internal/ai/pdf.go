package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/tutorhub/tutorhub-api/internal/logger"
)

// ContextSeparator joins the text of multiple PDFs.
const ContextSeparator = "\n\n---\n\n"

var (
	ErrNotPDF = errors.New("file is not a PDF")
	ErrNoText = errors.New("no extractable text")

	horizontalSpace = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

type PDFFile struct {
	Name string
	Data []byte
}

type ExtractedFile struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Chars int    `json:"chars"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

type extractStrategy struct {
	name string
	run  func(*pdf.Reader) (string, error)
}

// PDFExtractor pulls plain text out of PDF bytes, trying each strategy in
// turn until one yields text.
type PDFExtractor struct {
	log        *logger.Logger
	workers    int
	strategies []extractStrategy
}

func NewPDFExtractor(log *logger.Logger, workers int) *PDFExtractor {
	if workers <= 0 {
		workers = 4
	}
	return &PDFExtractor{
		log:     log,
		workers: workers,
		strategies: []extractStrategy{
			{name: "document", run: documentText},
			{name: "pages", run: pageText},
		},
	}
}

func (p *PDFExtractor) ExtractText(data []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\r\n\t "), []byte("%PDF-")) {
		return "", ErrNotPDF
	}
	reader, err := openPDF(data)
	if err != nil {
		return "", err
	}

	lastErr := ErrNoText
	for _, s := range p.strategies {
		text, err := safely(func() (string, error) { return s.run(reader) })
		if err != nil {
			p.log.Debug("pdf strategy failed", "strategy", s.name, "error", err)
			lastErr = err
			continue
		}
		if text = tidy(text); text != "" {
			return text, nil
		}
	}
	return "", lastErr
}

// ExtractMany keeps the input order; a failed file carries its error and
// empty text.
func (p *PDFExtractor) ExtractMany(ctx context.Context, files []PDFFile) []ExtractedFile {
	out := make([]ExtractedFile, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, f := range files {
		g.Go(func() error {
			res := ExtractedFile{Name: f.Name, Size: len(f.Data)}
			if ctx.Err() != nil {
				res.Error = ctx.Err().Error()
				out[i] = res
				return nil
			}
			text, err := p.ExtractText(f.Data)
			if err != nil {
				p.log.Warn("pdf extraction failed", "file", f.Name, "error", err)
				res.Error = err.Error()
			}
			res.Text = text
			res.Chars = len([]rune(text))
			out[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ExtractBase64 decodes and extracts every payload and joins the non-empty
// results. Failures degrade to empty text.
func (p *PDFExtractor) ExtractBase64(ctx context.Context, payloads []string) string {
	files := make([]PDFFile, 0, len(payloads))
	for i, raw := range payloads {
		data, err := DecodeBase64(raw)
		if err != nil {
			p.log.Warn("pdf payload is not base64", "index", i, "error", err)
			continue
		}
		files = append(files, PDFFile{Name: fmt.Sprintf("document-%d.pdf", i+1), Data: data})
	}
	var parts []string
	for _, r := range p.ExtractMany(ctx, files) {
		if r.Text != "" {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, ContextSeparator)
}

// DecodeBase64 accepts standard or URL alphabets and an optional data: URL
// prefix.
func DecodeBase64(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("invalid base64 payload")
}

func openPDF(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("open pdf: %v", rec)
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return r, nil
}

func documentText(r *pdf.Reader) (string, error) {
	rd, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func pageText(r *pdf.Reader) (string, error) {
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// safely converts a panic inside the PDF library into an error.
func safely(fn func() (string, error)) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()
	return fn()
}

func tidy(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
