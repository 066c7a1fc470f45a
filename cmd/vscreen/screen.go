package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/vscreen/pkg/vscreen/columns"
	"github.com/komsit37/vscreen/pkg/vscreen/filter"
	"github.com/komsit37/vscreen/pkg/vscreen/pipeline"
	"github.com/komsit37/vscreen/pkg/vscreen/quotes"
	"github.com/komsit37/vscreen/pkg/vscreen/render"
	"github.com/komsit37/vscreen/pkg/vscreen/report"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/source"
)

func newScreenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen [tickers...]",
		Short: "Screen tickers and print the ranked matches (default command)",
		Example: `  vscreen
  vscreen screen KO PEP PG --min-criteria 2
  vscreen -u universe.yaml -l banks -f report
  vscreen --threshold max_pe=12 --threshold min_roe=20 -s id,valuation`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreen(a, cmd, args)
		},
	}
	f := cmd.Flags()
	f.StringP("universe", "u", "", "universe YAML file or directory (default: built-in large caps)")
	f.StringP("lists", "l", "", "universe list filter: names a,b | glob | /regex/ | substring | !negation")
	f.IntP("min-criteria", "k", screener.DefaultMinCriteria, "rule-sets a ticker must satisfy (1-6)")
	f.Float64("min-market-cap", screener.DefaultMinMarketCap, "minimum market cap in dollars")
	f.IntP("top", "n", report.DefaultTop, "records analysed in report formats")
	f.StringP("format", "f", "table", "output format: table, json, csv, syms, report, html, pdf")
	f.StringSliceP("column", "c", nil, "columns to show, comma separated")
	f.StringSliceP("set", "s", nil, "column sets to show: id, valuation, growth, profitability, health, technical, quote")
	f.Bool("color", true, "colorize table output")
	f.Bool("pretty", false, "indent JSON output")
	f.StringToString("threshold", nil, "override a threshold, key=value (repeatable)")
	return cmd
}

func runScreen(a *app, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := a.cfg

	p, err := a.provider()
	if err != nil {
		return err
	}
	opts, err := cfg.ScreenerOptions()
	if err != nil {
		return err
	}
	r, err := render.New(cfg.Format)
	if err != nil {
		return err
	}
	listFilter, err := filter.Parse(cfg.Lists)
	if err != nil {
		return err
	}

	var src source.Source = source.StaticSource{}
	var spec any = args
	if len(args) == 0 && cfg.Universe != "" {
		src, spec = source.YAMLSource{}, cfg.Universe
	}

	var services columns.Services
	if cfg.Snapshot == "" {
		services.Quotes = quotes.NewCacheService(quotes.NewYFService(quotes.DefaultTimeout), time.Minute, cacheSize)
	}

	runner := &pipeline.Runner{
		Source:   src,
		Screener: screener.New(p, a.log),
		Renderer: r,
		Writer:   cmd.OutOrStdout(),
		Log:      a.log,
	}
	_, err = runner.Execute(ctx, spec, pipeline.ExecuteOptions{
		Columns:     cfg.Columns,
		Sets:        cfg.Sets,
		Filter:      listFilter,
		Screen:      opts,
		Color:       cfg.Color && cfg.Format == "table",
		PrettyJSON:  cfg.Pretty,
		MaxColWidth: maxColWidth(),
		Top:         cfg.Top,
		Services:    services,
	})
	if errors.Is(err, pipeline.ErrAllFailed) {
		a.log.Error().Msg("No ticker could be evaluated; check connectivity or the snapshot")
	}
	return err
}

// maxColWidth gives wide text columns a fifth of the terminal.
func maxColWidth() int {
	w := terminalWidth(os.Stdout)
	if w <= 0 {
		return render.DefaultMaxColWidth
	}
	return max(12, w/5)
}
