package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ScoringConfig holds the classification weights and thresholds. These are
// policy, not structure: every value can be overridden from the config file
// or environment.
type ScoringConfig struct {
	VendorMatch      int     `mapstructure:"vendor_match"`
	KeywordMatch     int     `mapstructure:"keyword_match"`
	DescriptionMatch int     `mapstructure:"description_match"`
	AmountProximity  int     `mapstructure:"amount_proximity"`
	Threshold        int     `mapstructure:"threshold"`
	Max              int     `mapstructure:"max"`
	FallbackScore    int     `mapstructure:"fallback_score"`
	AmountTolerance  float64 `mapstructure:"amount_tolerance"`
}

// MatchingConfig controls transfer and allocation pair matching.
type MatchingConfig struct {
	// WindowDays is the forward date window allowed for bank processing lag.
	WindowDays int `mapstructure:"window_days"`
	// AmountToleranceCents is the permitted amount difference, in cents.
	AmountToleranceCents int `mapstructure:"amount_tolerance_cents"`
}

// ComplianceConfig holds the fixed dollar thresholds of the rule set. Both
// thresholds are inclusive: a transaction at exactly the threshold amount
// triggers the rule.
type ComplianceConfig struct {
	ReserveBoardActionThreshold float64  `mapstructure:"reserve_board_action_threshold"`
	LargeTransactionThreshold   float64  `mapstructure:"large_transaction_threshold"`
	ApprovedPurposeKeywords     []string `mapstructure:"approved_purpose_keywords"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Config is the root configuration for the reconciliation engine.
type Config struct {
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Compliance ComplianceConfig `mapstructure:"compliance"`
	Log        LogConfig        `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scoring.vendor_match", 100)
	v.SetDefault("scoring.keyword_match", 50)
	v.SetDefault("scoring.description_match", 25)
	v.SetDefault("scoring.amount_proximity", 10)
	v.SetDefault("scoring.threshold", 25)
	v.SetDefault("scoring.max", 150)
	v.SetDefault("scoring.fallback_score", 75)
	v.SetDefault("scoring.amount_tolerance", 0.20)

	v.SetDefault("matching.window_days", 7)
	v.SetDefault("matching.amount_tolerance_cents", 1)

	v.SetDefault("compliance.reserve_board_action_threshold", 5000)
	v.SetDefault("compliance.large_transaction_threshold", 10000)
	v.SetDefault("compliance.approved_purpose_keywords", []string{
		"roof", "paving", "assessment project", "approved", "resolution",
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshal of pure defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration from the given file path (YAML), falling back to
// defaults for anything unset. Environment variables with the HOALEDGER_
// prefix override file values (e.g. HOALEDGER_SCORING_THRESHOLD=30).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("hoaledger")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config.Load: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshal: %w", err)
	}
	return &cfg, nil
}
