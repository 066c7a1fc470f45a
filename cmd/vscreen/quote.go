package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/komsit37/vscreen/pkg/vscreen/quotes"
)

func newQuoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <tickers...>",
		Short: "Print live price quotes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := quotes.NewYFService(quotes.DefaultTimeout)

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleColoredDark)
			tw.Style().Options.DrawBorder = false
			tw.Style().Options.SeparateColumns = false
			tw.AppendHeader(table.Row{"SYM", "NAME", "PRICE", "CHG%"})
			tw.SetColumnConfigs([]table.ColumnConfig{
				{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignRight},
				{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignRight},
			})

			for _, sym := range args {
				sym = strings.ToUpper(strings.TrimSpace(sym))
				q, err := svc.Get(cmd.Context(), sym)
				if err != nil {
					a.log.Warn().Err(err).Str("ticker", sym).Msg("Quote failed")
				}
				price, chg := q.Price, q.ChgFmt
				switch {
				case q.ChgRaw > 0:
					price, chg = text.FgGreen.Sprint(price), text.FgGreen.Sprint(chg)
				case q.ChgRaw < 0:
					price, chg = text.FgRed.Sprint(price), text.FgRed.Sprint(chg)
				}
				tw.AppendRow(table.Row{sym, q.Name, price, chg})
			}
			tw.Render()
			return nil
		},
	}
}
