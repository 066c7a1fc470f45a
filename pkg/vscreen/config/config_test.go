package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/thresholds"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, screener.DefaultMinMarketCap, cfg.MinMarketCap)
	assert.Equal(t, 3, cfg.MinCriteria)
	assert.Equal(t, "table", cfg.Format)
	assert.Equal(t, 30*time.Second, cfg.TickerTimeout)
	assert.Empty(t, cfg.Thresholds)

	opts, err := cfg.ScreenerOptions()
	require.NoError(t, err)
	assert.Equal(t, thresholds.Defaults(), opts.Thresholds)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vscreen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
min_criteria: 2
format: json
ticker_timeout: 5s
columns: [ticker, pe]
thresholds:
  max_pe: 12
  min_roe: 20
`), 0o644))
	t.Setenv("VSCREEN_TOP", "3")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MinCriteria)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 5*time.Second, cfg.TickerTimeout)
	assert.Equal(t, []string{"ticker", "pe"}, cfg.Columns)
	assert.Equal(t, 3, cfg.Top)
	assert.Equal(t, map[string]float64{"max_pe": 12, "min_roe": 20}, cfg.Thresholds)

	ts, err := cfg.ThresholdSet()
	require.NoError(t, err)
	assert.Equal(t, 12.0, ts.Must(thresholds.MaxPE))
	assert.Equal(t, 2.0, ts.Must(thresholds.MaxPB))
}

func TestLoad_ThresholdsFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VSCREEN_THRESHOLDS", "max_pe=11, max_pb=1.5")
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"max_pe": 11, "max_pb": 1.5}, cfg.Thresholds)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
		want string
	}{
		{"criteria too low", map[string]any{"min_criteria": 0}, "min_criteria must be at least 1"},
		{"criteria too high", map[string]any{"min_criteria": 7}, "min_criteria must be at most 6"},
		{"negative cap", map[string]any{"min_market_cap": -1}, "min_market_cap must be at least 0"},
		{"format", map[string]any{"format": "xml"}, "format must be one of"},
		{"threshold key", map[string]any{"thresholds": map[string]any{"max_nope": 1}}, "unknown threshold: max_nope"},
		{"threshold value", map[string]any{"thresholds": "max_pe=abc"}, "threshold max_pe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := Load(v, "")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_UnknownThresholdIsTyped(t *testing.T) {
	cfg := Config{MinCriteria: 3, Concurrency: 1, LookbackDays: 365, Format: "table", LogLevel: "info", LogFormat: "json",
		Thresholds: map[string]float64{"nope": 1}}
	var uke *thresholds.UnknownKeyError
	assert.True(t, errors.As(cfg.Validate(), &uke))
}
