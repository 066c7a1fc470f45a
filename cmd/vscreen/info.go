package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/komsit37/vscreen/pkg/vscreen/rules"
	"github.com/komsit37/vscreen/pkg/vscreen/thresholds"
)

func infoTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	return tw
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func newThresholdsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Print the default and effective thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eff, err := a.cfg.ThresholdSet()
			if err != nil {
				return err
			}
			tw := infoTable(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"KEY", "DEFAULT", "EFFECTIVE", "MEANING"})
			tw.SetColumnConfigs([]table.ColumnConfig{
				{Number: 2, Align: text.AlignRight},
				{Number: 3, Align: text.AlignRight},
			})
			for _, k := range thresholds.Names() {
				def, _ := thresholds.Default(k)
				cur := eff.Must(k)
				curStr := num(cur)
				if cur != def {
					curStr = text.Bold.Sprint(curStr)
				}
				tw.AppendRow(table.Row{k, num(def), curStr, thresholds.Describe(k)})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringToString("threshold", nil, "override a threshold, key=value (repeatable)")
	return cmd
}

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the six rule-sets and their conditions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eff, err := a.cfg.ThresholdSet()
			if err != nil {
				return err
			}
			tw := infoTable(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"#", "RULE-SET", "ALL OF"})
			for i, r := range rules.All {
				conds := r.Conditions()
				parts := make([]string, 0, len(conds))
				for _, c := range conds {
					s := c.String()
					if c.Threshold != "" {
						s += " (" + num(eff.Must(c.Threshold)) + ")"
					}
					parts = append(parts, s)
				}
				tw.AppendRow(table.Row{i + 1, r.String(), strings.Join(parts, "\n")})
			}
			tw.Style().Options.SeparateRows = true
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringToString("threshold", nil, "override a threshold, key=value (repeatable)")
	return cmd
}
