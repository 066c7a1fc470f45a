// Package render writes screening results in the supported output formats.
package render

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/komsit37/vscreen/pkg/vscreen/columns"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
)

// Renderer renders a screening result to an output writer.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, res screener.Result, opts RenderOptions) error
}

type RenderOptions struct {
	Columns     []string // resolved column keys; nil means columns.Default
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	Top         int // records analysed in report formats
	Services    columns.Services
}

func (o RenderOptions) columns() []string {
	if len(o.Columns) > 0 {
		return o.Columns
	}
	return columns.Default
}

var factories = map[string]func() Renderer{
	"table":  func() Renderer { return NewTableRenderer() },
	"json":   func() Renderer { return NewJSONRenderer() },
	"csv":    func() Renderer { return NewCSVRenderer() },
	"syms":   func() Renderer { return NewSymsRenderer() },
	"report": func() Renderer { return NewReportRenderer() },
	"html":   func() Renderer { return NewHTMLRenderer() },
	"pdf":    func() Renderer { return NewPDFRenderer() },
}

// Formats lists the supported format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New returns the renderer for a format name.
func New(format string) (Renderer, error) {
	f, ok := factories[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unknown format %q; available: %s", format, strings.Join(Formats(), ", "))
	}
	return f(), nil
}
