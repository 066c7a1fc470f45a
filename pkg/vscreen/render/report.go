package render

import (
	"context"
	"io"

	"github.com/komsit37/vscreen/pkg/vscreen/report"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
)

// ReportRenderer writes the markdown report as plain text.
type ReportRenderer struct{}

func NewReportRenderer() *ReportRenderer { return &ReportRenderer{} }

func (r *ReportRenderer) Render(ctx context.Context, w io.Writer, res screener.Result, opts RenderOptions) error {
	return report.WriteMarkdown(ctx, w, res, reportOptions(opts))
}

// reportOptions keeps the report's compact summary table unless columns
// were chosen explicitly.
func reportOptions(opts RenderOptions) report.Options {
	return report.Options{Top: opts.Top, Columns: opts.Columns, Services: opts.Services}
}
