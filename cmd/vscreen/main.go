package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/komsit37/vscreen/pkg/vscreen/config"
	"github.com/komsit37/vscreen/pkg/vscreen/logging"
	"github.com/komsit37/vscreen/pkg/vscreen/provider"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/trace"
)

var version = "dev"

const cacheSize = 1024

// app carries what every command needs once flags and config are resolved.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	log     zerolog.Logger
	flush   func(context.Context) error
}

// flagKeys maps flag names to config keys where they differ from the
// dash-to-underscore default.
var flagKeys = map[string]string{
	"threshold": "thresholds",
	"column":    "columns",
	"set":       "sets",
}

func configKey(flag string) string {
	if k, ok := flagKeys[flag]; ok {
		return k
	}
	return strings.ReplaceAll(flag, "-", "_")
}

// bind hooks every config-backed flag of the executing command into viper.
func (a *app) bind(cmd *cobra.Command) error {
	for _, name := range []string{
		"log-level", "log-format", "trace", "snapshot", "rate-limit", "cache-ttl",
		"ticker-timeout", "concurrency", "lookback-days",
		"universe", "lists", "min-criteria", "min-market-cap", "top", "format",
		"column", "set", "color", "pretty", "threshold",
	} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(configKey(name), f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.bind(cmd); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log, err = logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.log.Debug().Strs("config", cfg.Describe()).Msg("Configuration loaded")
	if cfg.Trace {
		if a.flush, err = trace.Init(os.Stderr, version); err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if a.flush != nil {
		return a.flush(context.WithoutCancel(cmd.Context()))
	}
	return nil
}

// provider returns the snapshot when one is configured, otherwise cached
// Yahoo Finance.
func (a *app) provider() (provider.Provider, error) {
	if a.cfg.Snapshot != "" {
		snap, err := provider.LoadSnapshot(a.cfg.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		a.log.Info().Str("path", a.cfg.Snapshot).Time("taken_at", snap.TakenAt).Int("tickers", len(snap.Tickers)).Msg("Using snapshot")
		return snap, nil
	}
	return provider.NewCached(a.yahoo(), a.cfg.CacheTTL, cacheSize), nil
}

func (a *app) yahoo() *provider.Yahoo {
	return provider.NewYahoo(provider.WithRateLimit(a.cfg.RateLimit), provider.WithLogger(a.log))
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "vscreen [tickers...]",
		Short: "Screen stocks for undervaluation across six rule-sets",
		Long: `vscreen fetches fundamentals and a year of daily prices for each ticker,
scores it against six value rule-sets and lists those meeting at least
--min-criteria of them, ranked by criteria met then market cap.

Settings come from flags, VSCREEN_* environment variables, .env and an optional
vscreen.yaml config file.`,
		Version:            version,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./vscreen.yaml or ~/.config/vscreen/vscreen.yaml)")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.Bool("trace", false, "export OpenTelemetry spans to stderr")
	pf.String("snapshot", "", "read market data from a snapshot file instead of Yahoo Finance")
	pf.Float64("rate-limit", provider.DefaultRateLimit, "Yahoo Finance requests per second (0 = unlimited)")
	pf.Duration("cache-ttl", config.DefaultCacheTTL, "cache fetched data for this long (0 disables)")
	pf.Duration("ticker-timeout", screener.DefaultTickerTimeout, "per ticker fetch timeout (0 disables)")
	pf.Int("concurrency", screener.DefaultConcurrency, "tickers fetched in parallel")
	pf.Int("lookback-days", provider.DefaultLookbackDays, "days of price history")

	screen := newScreenCmd(a)
	root.Flags().AddFlagSet(screen.Flags())
	root.Args = screen.Args
	root.RunE = screen.RunE

	root.AddCommand(screen, newQuoteCmd(a), newSnapshotCmd(a), newThresholdsCmd(a), newRulesCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
