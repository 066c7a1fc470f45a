package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/komsit37/vscreen/pkg/vscreen/report"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
)

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; max-width: 70em; margin: 2em auto; color: #222; }
table { border-collapse: collapse; font-size: 0.9em; }
th, td { border: 1px solid #ccc; padding: 0.25em 0.6em; }
th { background: #eee; }
h3 { margin-top: 2em; border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
`

// HTMLRenderer converts the markdown report to a standalone HTML page.
type HTMLRenderer struct {
	md goldmark.Markdown
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{md: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

func (r *HTMLRenderer) Render(ctx context.Context, w io.Writer, res screener.Result, opts RenderOptions) error {
	var src bytes.Buffer
	if err := report.WriteMarkdown(ctx, &src, res, reportOptions(opts)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, htmlHead, html.EscapeString(report.Title)); err != nil {
		return err
	}
	if err := r.md.Convert(src.Bytes(), w); err != nil {
		return fmt.Errorf("convert report: %w", err)
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
