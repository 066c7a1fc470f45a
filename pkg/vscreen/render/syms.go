package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/vscreen/pkg/vscreen/screener"
)

// symsRenderer prints the ranked tickers in a single comma-separated line,
// ready to paste into another tool.
type symsRenderer struct{}

func NewSymsRenderer() Renderer {
	return symsRenderer{}
}

func (symsRenderer) Render(_ context.Context, w io.Writer, res screener.Result, _ RenderOptions) error {
	symbols := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		symbols = append(symbols, rec.Ticker)
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}
