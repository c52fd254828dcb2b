// Package config loads the screening configuration from YAML and environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	PricerStatic    = "static"
	PricerMetalsAPI = "metals_api"

	EnvCovalentAPIKey = "COVALENT_API_KEY"
	EnvMetalsAPIKey   = "METALS_API_KEY"

	// DefaultPath is where the setup wizard writes its output.
	DefaultPath = "config.gen.yaml"
)

var validBases = map[string]bool{"instantaneous": true, "hawl_monthly": true, "hawl_simple": true}

type Config struct {
	ChainID      int64
	NativeSymbol string

	CovalentURL     string
	CovalentAPIKey  string
	CovalentTimeout time.Duration
	MaxRetries      int

	Pricer             string
	MetalsAPIURL       string
	MetalsAPIKey       string
	GoldPricePerGram   decimal.Decimal
	SilverPricePerGram decimal.Decimal
	GoldNisabGrams     decimal.Decimal
	SilverNisabGrams   decimal.Decimal
	DefaultNisab       decimal.Decimal

	DustThreshold      decimal.Decimal
	LiquidityThreshold decimal.Decimal
	Basis              string

	PaymentToken         string
	PaymentTokenDecimals int32
	Beneficiary          string

	ListenAddr  string
	TLSDomains  []string
	TLSCacheDir string
}

// ConfigTmp is the on-disk shape. Numbers are kept as strings so that
// decimals survive YAML without float rounding.
type ConfigTmp struct {
	ChainID      string `yaml:"chain_id,omitempty"`
	NativeSymbol string `yaml:"native_symbol,omitempty"`

	CovalentURL     string        `yaml:"covalent_url,omitempty"`
	CovalentTimeout time.Duration `yaml:"covalent_timeout,omitempty"`
	MaxRetriesStr   string        `yaml:"max_retries,omitempty"`

	Pricer                string `yaml:"pricer,omitempty"`
	MetalsAPIURL          string `yaml:"metals_api_url,omitempty"`
	GoldPricePerGramStr   string `yaml:"gold_price_per_gram,omitempty"`
	SilverPricePerGramStr string `yaml:"silver_price_per_gram,omitempty"`
	GoldNisabGramsStr     string `yaml:"gold_nisab_grams,omitempty"`
	SilverNisabGramsStr   string `yaml:"silver_nisab_grams,omitempty"`
	DefaultNisabStr       string `yaml:"default_nisab,omitempty"`

	DustThresholdStr      string `yaml:"dust_threshold,omitempty"`
	LiquidityThresholdStr string `yaml:"liquidity_threshold,omitempty"`
	Basis                 string `yaml:"basis,omitempty"`

	PaymentToken            string `yaml:"payment_token,omitempty"`
	PaymentTokenDecimalsStr string `yaml:"payment_token_decimals,omitempty"`
	Beneficiary             string `yaml:"beneficiary,omitempty"`

	ListenAddr  string   `yaml:"listen_addr,omitempty"`
	TLSDomains  []string `yaml:"tls_domains,omitempty"`
	TLSCacheDir string   `yaml:"tls_cache_dir,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ChainID:              8453,
		NativeSymbol:         "ETH",
		CovalentURL:          "https://api.covalenthq.com",
		CovalentTimeout:      30 * time.Second,
		Pricer:               PricerStatic,
		MetalsAPIURL:         "https://metals-api.com/api",
		GoldPricePerGram:     decimal.NewFromInt(75),
		SilverPricePerGram:   decimal.RequireFromString("0.95"),
		GoldNisabGrams:       decimal.NewFromInt(85),
		SilverNisabGrams:     decimal.NewFromInt(595),
		DefaultNisab:         decimal.NewFromInt(500),
		DustThreshold:        decimal.RequireFromString("0.5"),
		LiquidityThreshold:   decimal.NewFromInt(10),
		Basis:                "instantaneous",
		PaymentToken:         "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		PaymentTokenDecimals: 6,
		ListenAddr:           ":8080",
		TLSCacheDir:          "cert-cache",
	}
}

// Get loads path (defaults only when empty) and fills API keys from the environment.
func Get(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}

		var tmp ConfigTmp
		if err := yaml.Unmarshal(f, &tmp); err != nil {
			return Config{}, errors.Wrap(err, "parse yaml config")
		}
		if err := tmp.apply(&cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.CovalentAPIKey = os.Getenv(EnvCovalentAPIKey)
	cfg.MetalsAPIKey = os.Getenv(EnvMetalsAPIKey)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Pricer != PricerStatic && c.Pricer != PricerMetalsAPI {
		return fmt.Errorf("incorrect 'pricer' param in yaml config: %q (must be %s or %s)", c.Pricer, PricerStatic, PricerMetalsAPI)
	}
	if !validBases[c.Basis] {
		return fmt.Errorf("incorrect 'basis' param in yaml config: %q", c.Basis)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("incorrect 'max_retries' param in yaml config: must not be negative")
	}
	if c.DustThreshold.IsNegative() || c.LiquidityThreshold.IsNegative() {
		return fmt.Errorf("thresholds in yaml config must not be negative")
	}
	return nil
}

// apply overrides cfg with every field set in the file.
func (c ConfigTmp) apply(cfg *Config) error {
	if c.ChainID != "" {
		id, err := strconv.ParseInt(c.ChainID, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("incorrect 'chain_id' param in yaml config (must be a positive integer): %q", c.ChainID)
		}
		cfg.ChainID = id
	}
	if c.NativeSymbol != "" {
		cfg.NativeSymbol = strings.ToUpper(c.NativeSymbol)
	}
	if c.CovalentURL != "" {
		cfg.CovalentURL = strings.TrimRight(c.CovalentURL, "/")
	}
	if c.CovalentTimeout > 0 {
		cfg.CovalentTimeout = c.CovalentTimeout
	}
	if c.MaxRetriesStr != "" {
		n, err := strconv.Atoi(c.MaxRetriesStr)
		if err != nil {
			return fmt.Errorf("incorrect 'max_retries' param in yaml config (must be an integer), error: %w", err)
		}
		cfg.MaxRetries = n
	}
	if c.Pricer != "" {
		cfg.Pricer = c.Pricer
	}
	if c.MetalsAPIURL != "" {
		cfg.MetalsAPIURL = strings.TrimRight(c.MetalsAPIURL, "/")
	}

	decimals := []struct {
		key       string
		raw       string
		dst       *decimal.Decimal
		allowZero bool
	}{
		{"gold_price_per_gram", c.GoldPricePerGramStr, &cfg.GoldPricePerGram, false},
		{"silver_price_per_gram", c.SilverPricePerGramStr, &cfg.SilverPricePerGram, false},
		{"gold_nisab_grams", c.GoldNisabGramsStr, &cfg.GoldNisabGrams, false},
		{"silver_nisab_grams", c.SilverNisabGramsStr, &cfg.SilverNisabGrams, false},
		{"default_nisab", c.DefaultNisabStr, &cfg.DefaultNisab, false},
		{"dust_threshold", c.DustThresholdStr, &cfg.DustThreshold, true},
		{"liquidity_threshold", c.LiquidityThresholdStr, &cfg.LiquidityThreshold, true},
	}
	for _, d := range decimals {
		if d.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(d.raw)
		if err != nil {
			return fmt.Errorf("incorrect '%s' param in yaml config (must be a decimal), error: %w", d.key, err)
		}
		// zero keeps the default, except for thresholds where it disables the filter
		if !v.IsZero() || d.allowZero {
			*d.dst = v
		}
	}

	if c.Basis != "" {
		cfg.Basis = c.Basis
	}
	if c.PaymentToken != "" {
		cfg.PaymentToken = c.PaymentToken
	}
	if c.PaymentTokenDecimalsStr != "" {
		n, err := strconv.ParseInt(c.PaymentTokenDecimalsStr, 10, 32)
		if err != nil || n <= 0 {
			return fmt.Errorf("incorrect 'payment_token_decimals' param in yaml config (must be a positive integer): %q", c.PaymentTokenDecimalsStr)
		}
		cfg.PaymentTokenDecimals = int32(n)
	}
	if c.Beneficiary != "" {
		cfg.Beneficiary = c.Beneficiary
	}
	if c.ListenAddr != "" {
		cfg.ListenAddr = c.ListenAddr
	}
	if len(c.TLSDomains) > 0 {
		cfg.TLSDomains = c.TLSDomains
	}
	if c.TLSCacheDir != "" {
		cfg.TLSCacheDir = c.TLSCacheDir
	}

	return nil
}

// Save writes tmp to path as YAML.
func Save(path string, tmp ConfigTmp) error {
	data, err := yaml.Marshal(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to generate yaml")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}
	return nil
}
