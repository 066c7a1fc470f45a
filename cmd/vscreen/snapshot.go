package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/vscreen/pkg/vscreen/filter"
	"github.com/komsit37/vscreen/pkg/vscreen/provider"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/source"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <file> [tickers...]",
		Short: "Record fundamentals and price history to a YAML or JSON file",
		Long: `snapshot fetches every ticker from Yahoo Finance and writes what it got to
<file> (.json for JSON, anything else YAML). Replay it later with --snapshot to
screen offline or reproducibly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), a, args[0], args[1:])
		},
	}
	cmd.Flags().StringP("universe", "u", "", "universe YAML file or directory (default: built-in large caps)")
	cmd.Flags().StringP("lists", "l", "", "universe list filter")
	return cmd
}

func runSnapshot(ctx context.Context, a *app, path string, args []string) error {
	var src source.Source = source.StaticSource{}
	var spec any = args
	if len(args) == 0 && a.cfg.Universe != "" {
		src, spec = source.YAMLSource{}, a.cfg.Universe
	}
	lists, err := src.Load(ctx, spec)
	if err != nil {
		return err
	}
	listFilter, err := filter.Parse(a.cfg.Lists)
	if err != nil {
		return err
	}
	tickers := source.Tickers(filter.Apply(listFilter, lists))

	snap := provider.NewSnapshot(time.Now().UTC())
	opts, err := a.cfg.ScreenerOptions()
	if err != nil {
		return err
	}
	// Fetch everything: no floor, no criteria.
	opts.MinMarketCap, opts.MinCriteria = 0, 0
	res := screener.New(provider.NewRecorder(a.yahoo(), snap), a.log).Run(ctx, tickers, opts)
	if res.AllFailed() {
		return fmt.Errorf("snapshot: all %d tickers failed to fetch", res.Stats.Failed)
	}
	if err := snap.Save(path); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	a.log.Info().Str("path", path).Int("tickers", len(snap.Tickers)).Int("failed", res.Stats.Failed).Msg("Snapshot saved")
	return nil
}
