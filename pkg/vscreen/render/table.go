package render

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/vscreen/pkg/vscreen/columns"
	"github.com/komsit37/vscreen/pkg/vscreen/report"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
)

// DefaultMaxColWidth wraps wide text columns.
const DefaultMaxColWidth = 40

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(ctx context.Context, w io.Writer, res screener.Result, opts RenderOptions) error {
	if len(res.Records) == 0 {
		msg := report.EmptyMessage
		if res.AllFailed() {
			msg = report.Summary(res)
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}
	cols := opts.columns()

	title := report.Title + ":"
	if opts.Color {
		title = text.Bold.Sprint(title)
	}
	fmt.Fprintln(w, title)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if opts.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Format.Header = text.FormatDefault

	hdr := make(table.Row, len(cols))
	for i, c := range cols {
		hdr[i] = columns.Header(c)
	}
	tw.AppendHeader(hdr)

	maxWidth := opts.MaxColWidth
	if maxWidth <= 0 {
		maxWidth = DefaultMaxColWidth
	}
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if columns.Registry[c].Numeric {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	tw.SetColumnConfigs(cfgs)

	for _, rec := range res.Records {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			v, err := columns.RenderValue(ctx, c, rec, opts.Services)
			if err != nil {
				return err
			}
			row[i] = v
			if opts.Color && (c == "last" || c == "chg%") && opts.Services.Quotes != nil {
				if q, err := opts.Services.Quotes.Get(ctx, rec.Ticker); err == nil {
					row[i] = colorize(v, q.ChgRaw)
				}
			}
		}
		tw.AppendRow(row)
	}
	tw.Render()

	summary := report.Summary(res)
	if opts.Color {
		summary = text.Faint.Sprint(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func colorize(v string, chg float64) string {
	switch {
	case chg > 0:
		return text.Colors{text.FgGreen}.Sprint(v)
	case chg < 0:
		return text.Colors{text.FgRed}.Sprint(v)
	}
	return v
}
