package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/komsit37/vscreen/pkg/vscreen/report"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
)

const (
	pdfFont       = "Helvetica"
	pdfFontSize   = 9.0
	pdfLine       = 5.0
	pdfPageWidth  = 277.0 // A4 landscape minus margins
	pdfPageHeight = 200.0
)

// PDFRenderer lays the markdown report out on A4 landscape pages.
type PDFRenderer struct {
	md goldmark.Markdown
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{md: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

func (r *PDFRenderer) Render(ctx context.Context, w io.Writer, res screener.Result, opts RenderOptions) error {
	var src bytes.Buffer
	if err := report.WriteMarkdown(ctx, &src, res, reportOptions(opts)); err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(report.Title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfFontSize)

	source := src.Bytes()
	doc := r.md.Parser().Parse(text.NewReader(source))
	pw := &pdfWriter{pdf: pdf, source: source, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if err := ast.Walk(doc, pw.walk); err != nil {
		return fmt.Errorf("layout report: %w", err)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout report: %w", err)
	}
	return pdf.Output(w)
}

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	source []byte
	tr     func(string) string
	bold   bool
}

func (p *pdfWriter) font(size float64) {
	style := ""
	if p.bold {
		style = "B"
	}
	p.pdf.SetFont(pdfFont, style, size)
}

func (p *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := n.(type) {
	case *ast.Heading:
		if entering {
			p.pdf.Ln(4)
			p.bold = true
			switch n.Level {
			case 1:
				p.font(15)
			case 2:
				p.font(12)
			default:
				p.font(11)
			}
		} else {
			p.bold = false
			p.font(pdfFontSize)
			p.pdf.Ln(7)
		}
	case *ast.Paragraph:
		if !entering {
			p.pdf.Ln(pdfLine)
			if _, inItem := n.Parent().(*ast.ListItem); !inItem {
				p.pdf.Ln(2)
			}
		}
	case *ast.TextBlock:
		if !entering {
			p.pdf.Ln(pdfLine)
		}
	case *ast.Emphasis:
		p.bold = entering && n.Level == 2
		p.font(pdfFontSize)
	case *ast.ListItem:
		if entering {
			p.pdf.SetX(15)
			p.pdf.Write(pdfLine, p.tr("- "))
		}
	case *ast.List:
		if !entering {
			p.pdf.Ln(2)
		}
	case *ast.Text:
		if entering {
			p.pdf.Write(pdfLine, p.tr(string(n.Segment.Value(p.source))))
			if n.SoftLineBreak() {
				p.pdf.Write(pdfLine, " ")
			}
		}
	case *extast.Table:
		if entering {
			p.table(n)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (p *pdfWriter) table(t *extast.Table) {
	var rows [][]string
	aligns := t.Alignments
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, p.tr(p.plain(cell)))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	const size, height = 7.0, 5.0
	widths := make([]float64, len(rows[0]))
	p.pdf.SetFont(pdfFont, "B", size)
	for _, row := range rows {
		for i, c := range row {
			if i < len(widths) {
				if cw := p.pdf.GetStringWidth(c) + 3; cw > widths[i] {
					widths[i] = cw
				}
			}
		}
	}
	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > pdfPageWidth {
		for i := range widths {
			widths[i] *= pdfPageWidth / total
		}
	}

	for ri, row := range rows {
		if p.pdf.GetY()+height > pdfPageHeight {
			p.pdf.AddPage()
		}
		header := ri == 0
		if header {
			p.pdf.SetFont(pdfFont, "B", size)
			p.pdf.SetFillColor(230, 230, 230)
		} else {
			p.pdf.SetFont(pdfFont, "", size)
		}
		for i, c := range row {
			if i >= len(widths) {
				break
			}
			align := "L"
			if i < len(aligns) && aligns[i] == extast.AlignRight {
				align = "R"
			}
			p.pdf.CellFormat(widths[i], height, fit(p.pdf, c, widths[i]-1), "1", 0, align, header, 0, "")
		}
		p.pdf.Ln(height)
	}
	p.pdf.Ln(3)
	p.font(pdfFontSize)
}

// plain concatenates the text under n.
func (p *pdfWriter) plain(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(p.source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// fit truncates s with "..." until it is at most width wide.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 1 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
