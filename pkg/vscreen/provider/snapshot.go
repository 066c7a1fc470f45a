package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

// Entry is the frozen market data of one ticker.
type Entry struct {
	Fundamentals types.RawFundamentals `json:"fundamentals" yaml:"fundamentals"`
	History      types.PriceSeries     `json:"history" yaml:"history"`
}

// Snapshot is a Provider over frozen inputs, loaded from or written to a
// YAML or JSON file. Reruns over the same snapshot are reproducible.
type Snapshot struct {
	TakenAt time.Time        `json:"taken_at" yaml:"taken_at"`
	Tickers map[string]Entry `json:"tickers" yaml:"tickers"`

	mu sync.RWMutex
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot(takenAt time.Time) *Snapshot {
	return &Snapshot{TakenAt: takenAt, Tickers: map[string]Entry{}}
}

// LoadSnapshot reads a snapshot file; the format follows the extension
// (.json, otherwise YAML).
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{}
	if isJSON(path) {
		err = json.Unmarshal(data, snap)
	} else {
		err = yaml.Unmarshal(data, snap)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if snap.Tickers == nil {
		snap.Tickers = map[string]Entry{}
	}
	return snap, nil
}

// Save writes the snapshot to path, creating parent directories.
func (s *Snapshot) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Write(f, isJSON(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes the snapshot as JSON or YAML.
func (s *Snapshot) Write(w io.Writer, asJSON bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// Put stores market data for a ticker.
func (s *Snapshot) Put(ticker string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Tickers == nil {
		s.Tickers = map[string]Entry{}
	}
	s.Tickers[ticker] = e
}

func (s *Snapshot) get(ticker string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.Tickers[ticker]
	return e, ok
}

func (s *Snapshot) FetchFundamentals(_ context.Context, ticker string) (types.RawFundamentals, error) {
	e, ok := s.get(ticker)
	if !ok {
		return types.RawFundamentals{}, ErrNotFound
	}
	return e.Fundamentals, nil
}

// FetchPriceHistory returns the bars within lookbackDays of the latest bar.
func (s *Snapshot) FetchPriceHistory(_ context.Context, ticker string, lookbackDays int) (types.PriceSeries, error) {
	e, ok := s.get(ticker)
	if !ok {
		return nil, ErrNotFound
	}
	if len(e.History) == 0 || lookbackDays <= 0 {
		return append(types.PriceSeries(nil), e.History...), nil
	}
	cutoff := e.History[len(e.History)-1].Date.AddDate(0, 0, -lookbackDays)
	out := make(types.PriceSeries, 0, len(e.History))
	for _, b := range e.History {
		if b.Date.Before(cutoff) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Recorder passes fetches through to a Provider and keeps what it saw in a
// Snapshot.
type Recorder struct {
	next Provider
	snap *Snapshot

	mu      sync.Mutex
	pending map[string]Entry
}

// NewRecorder records into snap.
func NewRecorder(next Provider, snap *Snapshot) *Recorder {
	return &Recorder{next: next, snap: snap, pending: map[string]Entry{}}
}

func (r *Recorder) FetchFundamentals(ctx context.Context, ticker string) (types.RawFundamentals, error) {
	f, err := r.next.FetchFundamentals(ctx, ticker)
	if err != nil {
		return f, err
	}
	r.update(ticker, func(e *Entry) { e.Fundamentals = f })
	return f, nil
}

func (r *Recorder) FetchPriceHistory(ctx context.Context, ticker string, lookbackDays int) (types.PriceSeries, error) {
	s, err := r.next.FetchPriceHistory(ctx, ticker, lookbackDays)
	if err != nil {
		return s, err
	}
	r.update(ticker, func(e *Entry) { e.History = s })
	return s, nil
}

func (r *Recorder) update(ticker string, fn func(*Entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pending[ticker]
	fn(&e)
	r.pending[ticker] = e
	r.snap.Put(ticker, e)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
