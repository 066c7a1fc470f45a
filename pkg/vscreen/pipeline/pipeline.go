// Package pipeline wires a universe source, the screener and a renderer into
// one run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/komsit37/vscreen/pkg/vscreen/columns"
	"github.com/komsit37/vscreen/pkg/vscreen/filter"
	"github.com/komsit37/vscreen/pkg/vscreen/render"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/source"
)

// ErrAllFailed is returned, after rendering, when no ticker could be
// evaluated because every fetch failed.
var ErrAllFailed = errors.New("every ticker failed to fetch")

// ErrNoTickers means the universe (after filtering) was empty.
var ErrNoTickers = errors.New("no tickers to screen")

type Runner struct {
	Source   source.Source
	Screener *screener.Screener
	Renderer render.Renderer
	Writer   io.Writer
	Log      zerolog.Logger
}

type ExecuteOptions struct {
	Columns     []string // explicit column keys
	Sets        []string // column sets, used when Columns is empty
	Filter      filter.Filter
	Screen      screener.Options
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	Top         int
	Services    columns.Services
}

// Execute loads the universe named by spec, screens it and renders the
// result. The result is returned even when rendering fails.
func (r *Runner) Execute(ctx context.Context, spec any, opts ExecuteOptions) (screener.Result, error) {
	lists, err := r.Source.Load(ctx, spec)
	if err != nil {
		return screener.Result{}, fmt.Errorf("load universe: %w", err)
	}
	lists = filter.Apply(opts.Filter, lists)
	tickers := source.Tickers(lists)
	if len(tickers) == 0 {
		return screener.Result{}, ErrNoTickers
	}
	r.Log.Info().Int("lists", len(lists)).Int("tickers", len(tickers)).Msg("Universe loaded")

	explicit := opts.Columns
	if len(explicit) == 0 && len(opts.Sets) > 0 {
		if explicit, err = columns.ExpandSets(opts.Sets); err != nil {
			return screener.Result{}, err
		}
	}
	var fromFile []string
	if len(lists) > 0 {
		fromFile = lists[0].Columns
	}
	cols, err := columns.Compute(explicit, fromFile)
	if err != nil {
		return screener.Result{}, err
	}

	res := r.Screener.Run(ctx, tickers, opts.Screen)

	err = r.Renderer.Render(ctx, r.Writer, res, render.RenderOptions{
		Columns:     cols,
		Color:       opts.Color,
		PrettyJSON:  opts.PrettyJSON,
		MaxColWidth: opts.MaxColWidth,
		Top:         opts.Top,
		Services:    opts.Services,
	})
	if err != nil {
		return res, fmt.Errorf("render: %w", err)
	}
	if res.AllFailed() {
		return res, ErrAllFailed
	}
	return res, nil
}
