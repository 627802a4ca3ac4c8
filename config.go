package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/dnldd/chartdesk/shared"
	"github.com/joho/godotenv"
)

const (
	// defaultMode is the mode the chart starts in when none is configured.
	defaultMode = "custom"
	// defaultTimeframe is the live timeframe when none is configured.
	defaultTimeframe = "1m"
)

// Config is the configuration struct for the service.
type Config struct {
	// Asset is the initially tracked live asset.
	Asset string
	// Timeframe is the initially tracked live timeframe.
	Timeframe string
	// Mode is the initially active chart mode, custom or live.
	Mode string
	// HistoricDataFilepath is the filepath to the historic data backing the live chart.
	HistoricDataFilepath string
	// UploadFilepath is the filepath to a candle file uploaded to the custom chart.
	UploadFilepath string
	// StreamFilepath is the filepath to newline delimited kline messages replayed
	// against the live chart.
	StreamFilepath string
	// BackfillLimit is the number of candles requested per backfill.
	BackfillLimit int
	// ReportInterval is the interval in seconds between chart state reports.
	ReportInterval int

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Asset == "" {
		errs = errors.Join(errs, fmt.Errorf("asset cannot be an empty string"))
	}
	if _, err := shared.ParseTimeframe(cfg.Timeframe); err != nil {
		errs = errors.Join(errs, err)
	}
	if _, err := shared.ParseMode(cfg.Mode); err != nil {
		errs = errors.Join(errs, err)
	}
	if cfg.HistoricDataFilepath == "" {
		errs = errors.Join(errs, fmt.Errorf("historic data filepath cannot be an empty string"))
	}
	if cfg.BackfillLimit < 0 {
		errs = errors.Join(errs, fmt.Errorf("backfill limit cannot be negative"))
	}
	if cfg.ReportInterval < 0 {
		errs = errors.Join(errs, fmt.Errorf("report interval cannot be negative"))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"asset", &cfg.Asset, "the tracked live asset"},
		{"timeframe", &cfg.Timeframe, "the tracked live timeframe"},
		{"mode", &cfg.Mode, "the initial chart mode, custom or live"},
		{"historicdatafilepath", &cfg.HistoricDataFilepath, "the historic data filepath"},
		{"uploadfilepath", &cfg.UploadFilepath, "the custom candle upload filepath"},
		{"streamfilepath", &cfg.StreamFilepath, "the kline stream replay filepath"},
		{"backfilllimit", &cfg.BackfillLimit, "the number of candles requested per backfill"},
		{"reportinterval", &cfg.ReportInterval, "the chart state report interval in seconds"},
	}

	// Register command line arguments using loaded environment variables as defaults.
	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	if cfg.Mode == "" {
		cfg.Mode = defaultMode
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = defaultTimeframe
	}

	return cfg.Validate()
}
