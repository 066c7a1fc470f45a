// Package config loads and validates run settings from flags, environment,
// an optional config file and .env.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/komsit37/vscreen/pkg/vscreen/provider"
	"github.com/komsit37/vscreen/pkg/vscreen/report"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/thresholds"
)

// DefaultCacheTTL is how long fetched market data is reused.
const DefaultCacheTTL = 15 * time.Minute

// EnvPrefix prefixes every environment variable, e.g. VSCREEN_MIN_CRITERIA.
const EnvPrefix = "VSCREEN"

// Config is the effective configuration of one invocation.
type Config struct {
	MinMarketCap  float64       `mapstructure:"min_market_cap" validate:"gte=0"`
	MinCriteria   int           `mapstructure:"min_criteria" validate:"min=1,max=6"`
	Top           int           `mapstructure:"top" validate:"gte=0"`
	Concurrency   int           `mapstructure:"concurrency" validate:"gte=1"`
	TickerTimeout time.Duration `mapstructure:"ticker_timeout" validate:"gte=0"`
	LookbackDays  int           `mapstructure:"lookback_days" validate:"gte=1"`
	RateLimit     float64       `mapstructure:"rate_limit" validate:"gte=0"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`

	Format    string   `mapstructure:"format" validate:"oneof=table json csv syms report html pdf"`
	Columns   []string `mapstructure:"columns"`
	Sets      []string `mapstructure:"sets"`
	Lists     string   `mapstructure:"lists"`
	Color     bool     `mapstructure:"color"`
	Pretty    bool     `mapstructure:"pretty"`
	Universe  string   `mapstructure:"universe"`
	Snapshot  string   `mapstructure:"snapshot"`
	LogLevel  string   `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string   `mapstructure:"log_format" validate:"oneof=console json"`
	Trace     bool     `mapstructure:"trace"`

	// Thresholds holds overrides only; unset keys keep their defaults.
	Thresholds map[string]float64 `mapstructure:"-"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("min_market_cap", screener.DefaultMinMarketCap)
	v.SetDefault("min_criteria", screener.DefaultMinCriteria)
	v.SetDefault("top", report.DefaultTop)
	v.SetDefault("concurrency", screener.DefaultConcurrency)
	v.SetDefault("ticker_timeout", screener.DefaultTickerTimeout)
	v.SetDefault("lookback_days", provider.DefaultLookbackDays)
	v.SetDefault("rate_limit", provider.DefaultRateLimit)
	v.SetDefault("cache_ttl", DefaultCacheTTL)
	v.SetDefault("format", "table")
	v.SetDefault("color", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Load reads .env, the config file and the environment into a validated
// Config. file may be empty, in which case vscreen.yaml is looked up in the
// working directory and $HOME/.config/vscreen; a missing file is fine.
func Load(v *viper.Viper, file string) (Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("vscreen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "vscreen"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	var err error
	if cfg.Thresholds, err = parseThresholds(v.Get("thresholds")); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = func() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
	return val
}()

// Validate checks ranges and enumerations and that threshold overrides name
// known thresholds.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	_, err := thresholds.Defaults().With(c.Thresholds)
	return err
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", fe.Field(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// ThresholdSet applies the overrides to the defaults.
func (c Config) ThresholdSet() (thresholds.Thresholds, error) {
	return thresholds.Defaults().With(c.Thresholds)
}

// ScreenerOptions maps the config onto screener options.
func (c Config) ScreenerOptions() (screener.Options, error) {
	t, err := c.ThresholdSet()
	if err != nil {
		return screener.Options{}, err
	}
	return screener.Options{
		MinMarketCap:  c.MinMarketCap,
		MinCriteria:   c.MinCriteria,
		Thresholds:    t,
		Concurrency:   c.Concurrency,
		TickerTimeout: c.TickerTimeout,
		LookbackDays:  c.LookbackDays,
	}, nil
}

// parseThresholds accepts a map (config file, flags) or a "k=v,k=v" string
// (environment).
func parseThresholds(raw any) (map[string]float64, error) {
	text := map[string]string{}
	switch r := raw.(type) {
	case nil:
	case map[string]float64:
		return r, nil
	case map[string]string:
		text = r
	case map[string]any:
		for k, v := range r {
			text[k] = fmt.Sprint(v)
		}
	case string:
		for _, pair := range strings.Split(r, ",") {
			if strings.TrimSpace(pair) == "" {
				continue
			}
			k, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("threshold %q: want key=value", pair)
			}
			text[strings.TrimSpace(k)] = val
		}
	default:
		return nil, fmt.Errorf("thresholds: unsupported value %T", raw)
	}
	return thresholds.ParseOverrides(text)
}

// Describe lists key=value lines of the effective configuration, for debug
// logging.
func (c Config) Describe() []string {
	keys := make([]string, 0, len(c.Thresholds))
	for k := range c.Thresholds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := []string{
		"min_market_cap=" + strconv.FormatFloat(c.MinMarketCap, 'f', -1, 64),
		"min_criteria=" + strconv.Itoa(c.MinCriteria),
		"format=" + c.Format,
	}
	for _, k := range keys {
		out = append(out, k+"="+strconv.FormatFloat(c.Thresholds[k], 'f', -1, 64))
	}
	return out
}
