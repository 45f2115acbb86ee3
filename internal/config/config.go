// Package config defines the engine configuration. Config is loaded from a
// YAML file with fields overridable via MATCH_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/trpleo/matching-engine/internal/policy"
	"github.com/trpleo/matching-engine/pkg/num"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure. Decimal fields are strings so they survive the trip through
// YAML without float rounding; Validate parses them.
type Config struct {
	Instrument string       `mapstructure:"instrument"`
	TickSize   string       `mapstructure:"tick_size"`
	LotSize    string       `mapstructure:"lot_size"`
	Policy     PolicyConfig `mapstructure:"policy"`

	tickSize num.Dec
	lotSize  num.Dec
}

// PolicyConfig selects and parameterizes one of the five allocation
// policies. Name is one of price_time, pro_rata, pro_rata_tob_fifo,
// lmm_priority, threshold_pro_rata.
type PolicyConfig struct {
	Name            string   `mapstructure:"name"`
	MinimumQuantity string   `mapstructure:"minimum_quantity"`
	Threshold       string   `mapstructure:"threshold"`
	LmmPct          float64  `mapstructure:"lmm_pct"`
	LmmAccounts     []string `mapstructure:"lmm_accounts"`
	TopOfBookFifo   bool     `mapstructure:"top_of_book_fifo"`

	minimum   num.Dec
	threshold num.Dec
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate parses the decimal fields and enforces the configuration rules
// the engine relies on: non-empty instrument, positive tick and lot sizes
// when set, lmm_pct within [0,1], non-negative minimum quantity, positive
// threshold when the policy is threshold_pro_rata.
func (c *Config) Validate() error {
	if c.Instrument == "" {
		return fmt.Errorf("instrument must not be empty")
	}

	var err error
	if c.tickSize, err = parseOptional(c.TickSize); err != nil {
		return fmt.Errorf("tick_size: %w", err)
	}
	if c.TickSize != "" && !c.tickSize.IsPositive() {
		return fmt.Errorf("tick_size must be positive")
	}
	if c.lotSize, err = parseOptional(c.LotSize); err != nil {
		return fmt.Errorf("lot_size: %w", err)
	}
	if c.LotSize != "" && !c.lotSize.IsPositive() {
		return fmt.Errorf("lot_size must be positive")
	}

	p := &c.Policy
	if p.minimum, err = parseOptional(p.MinimumQuantity); err != nil {
		return fmt.Errorf("policy.minimum_quantity: %w", err)
	}
	if p.minimum.IsNegative() {
		return fmt.Errorf("policy.minimum_quantity must not be negative")
	}
	if p.threshold, err = parseOptional(p.Threshold); err != nil {
		return fmt.Errorf("policy.threshold: %w", err)
	}
	if p.LmmPct < 0 || p.LmmPct > 1 {
		return fmt.Errorf("policy.lmm_pct must be within [0,1]")
	}

	switch p.Name {
	case "", "price_time", "pro_rata", "pro_rata_tob_fifo", "lmm_priority":
	case "threshold_pro_rata":
		if !p.threshold.IsPositive() {
			return fmt.Errorf("policy.threshold must be positive")
		}
	default:
		return fmt.Errorf("unknown policy %q", p.Name)
	}
	return nil
}

func (c *Config) TickSizeDec() num.Dec { return c.tickSize }
func (c *Config) LotSizeDec() num.Dec  { return c.lotSize }

// BuildPolicy constructs the configured allocation policy. Validate must
// have succeeded first.
func (c *Config) BuildPolicy() (policy.Policy, error) {
	p := c.Policy
	lot := c.lotSize
	switch p.Name {
	case "", "price_time":
		return policy.NewPriceTime(), nil
	case "pro_rata":
		return policy.NewProRata(p.minimum, p.TopOfBookFifo, lot), nil
	case "pro_rata_tob_fifo":
		return policy.NewProRataTopOfBook(p.minimum, lot), nil
	case "lmm_priority":
		pct, err := num.FromString(fmt.Sprintf("%v", p.LmmPct))
		if err != nil {
			return nil, fmt.Errorf("policy.lmm_pct: %w", err)
		}
		return policy.NewLMMPriority(p.LmmAccounts, pct, p.minimum, lot), nil
	case "threshold_pro_rata":
		return policy.NewThresholdProRata(p.threshold, p.minimum, lot), nil
	}
	return nil, fmt.Errorf("unknown policy %q", p.Name)
}

// parseOptional parses a decimal string, treating the empty string as zero.
func parseOptional(s string) (num.Dec, error) {
	if s == "" {
		return 0, nil
	}
	return num.FromString(s)
}
