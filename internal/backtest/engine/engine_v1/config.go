package engine

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/bitbroker/internal/indicator"
	"github.com/rxtech-lab/bitbroker/internal/ledger/commission_fee"
	"github.com/rxtech-lab/bitbroker/internal/strategy"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/internal/version"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultWarmupSkip is the number of candles dropped between the warm-up window and the first traded candle.
const DefaultWarmupSkip = 1

type BacktestEngineV1Config struct {
	Strategy        types.StrategyKind         `yaml:"strategy" json:"strategy" validate:"required" jsonschema:"title=Strategy,description=Strategy variant that produces the buy and sell desires,required"`
	Period          int                        `yaml:"period" json:"period" validate:"gt=0" jsonschema:"title=Period,description=Hull period. Crossover variants also use twice this period,minimum=1"`
	Fee             float64                    `yaml:"fee" json:"fee" validate:"gte=0,lt=1" jsonschema:"title=Fee,description=Fraction of every conversion kept by the broker,minimum=0,exclusiveMaximum=1"`
	Broker          commission_fee.Broker      `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=Commission model applied to every conversion"`
	NoLoss          bool                       `yaml:"no_loss" json:"no_loss" jsonschema:"title=No Loss,description=Refuse sells that realize less cash than the last all-cash balance"`
	InitialUSD      float64                    `yaml:"initial_usd" json:"initial_usd" validate:"gt=0" jsonschema:"title=Initial USD,description=Cash the run starts with,minimum=0"`
	Warmup          optional.Option[int]       `yaml:"warmup" json:"warmup" jsonschema:"title=Warmup,description=Candles used to seed the price history. Defaults to twice the period"`
	WarmupSkip      optional.Option[int]       `yaml:"warmup_skip" json:"warmup_skip" jsonschema:"title=Warmup Skip,description=Candles dropped after the warm-up window. Defaults to 1"`
	ScoreOffset     float64                    `yaml:"score_offset" json:"score_offset" validate:"gte=0,lte=0.5" jsonschema:"title=Score Offset,description=Neutral band around 0.5 for score classification,minimum=0,maximum=0.5"`
	MomentumSeeding strategy.Seeding           `yaml:"momentum_seeding" json:"momentum_seeding" jsonschema:"title=Momentum Seeding,description=How the momentum strategy maintains its Hull history"`
	MinPrice        float64                    `yaml:"min_price" json:"min_price" validate:"gte=0" jsonschema:"title=Minimum Price,description=Candles closing at or below this price are skipped. Zero disables the bound,minimum=0"`
	MaxPrice        float64                    `yaml:"max_price" json:"max_price" validate:"gte=0" jsonschema:"title=Maximum Price,description=Candles closing at or above this price are skipped. Zero disables the bound,minimum=0"`
	StartTime       optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime         optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	EngineVersion   string                     `yaml:"engine_version" json:"engine_version" jsonschema:"title=Engine Version,description=Engine version the configuration was written for"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Fields left out keep the values of EmptyConfig.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		Strategy        types.StrategyKind    `yaml:"strategy"`
		Period          int                   `yaml:"period"`
		Fee             float64               `yaml:"fee"`
		Broker          commission_fee.Broker `yaml:"broker"`
		NoLoss          bool                  `yaml:"no_loss"`
		InitialUSD      *float64              `yaml:"initial_usd"`
		Warmup          *int                  `yaml:"warmup"`
		WarmupSkip      *int                  `yaml:"warmup_skip"`
		ScoreOffset     float64               `yaml:"score_offset"`
		MomentumSeeding strategy.Seeding      `yaml:"momentum_seeding"`
		MinPrice        float64               `yaml:"min_price"`
		MaxPrice        float64               `yaml:"max_price"`
		StartTime       *time.Time            `yaml:"start_time"`
		EndTime         *time.Time            `yaml:"end_time"`
		EngineVersion   string                `yaml:"engine_version"`
	}

	var config Config
	if err := value.Decode(&config); err != nil {
		return err
	}

	*c = EmptyConfig()
	c.Strategy = config.Strategy
	c.Period = config.Period
	c.Fee = config.Fee
	c.NoLoss = config.NoLoss
	c.ScoreOffset = config.ScoreOffset
	c.MinPrice = config.MinPrice
	c.MaxPrice = config.MaxPrice
	c.EngineVersion = config.EngineVersion

	if config.Broker != "" {
		c.Broker = config.Broker
	}

	if config.MomentumSeeding != "" {
		c.MomentumSeeding = config.MomentumSeeding
	}

	if config.InitialUSD != nil {
		c.InitialUSD = *config.InitialUSD
	}

	if config.Warmup != nil {
		c.Warmup = optional.Some(*config.Warmup)
	}

	if config.WarmupSkip != nil {
		c.WarmupSkip = optional.Some(*config.WarmupSkip)
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate checks struct constraints, then the rules that depend on the strategy.
func (c *BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				switch fieldErr.Field() {
				case "Fee":
					return errors.Wrapf(errors.ErrCodeInvalidFee, err, "fee must be in [0, 1), got %v", c.Fee)
				case "Period":
					return errors.Wrapf(errors.ErrCodeInvalidPeriod, err, "period must be positive, got %d", c.Period)
				case "ScoreOffset":
					return errors.Wrapf(errors.ErrCodeInvalidOffset, err, "score offset must be in [0, 0.5], got %v", c.ScoreOffset)
				}
			}
		}

		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if !c.Strategy.IsValid() {
		return errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy: %s", c.Strategy)
	}

	if c.Strategy.UsesHull() && c.Period < indicator.MinHMAPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s needs a period of at least %d, got %d",
			c.Strategy, indicator.MinHMAPeriod, c.Period)
	}

	if _, err := commission_fee.GetCommissionFeeHandler(c.Broker, c.Fee); err != nil {
		return err
	}

	switch c.MomentumSeeding {
	case strategy.SeedingIncremental, strategy.SeedingRecompute:
	default:
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown momentum seeding: %s", c.MomentumSeeding)
	}

	if c.WarmupSize() < 0 || c.WarmupSkipSize() < 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "warmup and warmup_skip must not be negative")
	}

	if required := strategy.RequiredHistory(c.Strategy, c.Period) - 1; c.WarmupSize() < required {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s with period %d needs a warmup of at least %d, got %d",
			c.Strategy, c.Period, required, c.WarmupSize())
	}

	if c.MinPrice > 0 && c.MaxPrice > 0 && c.MinPrice >= c.MaxPrice {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "min_price %v must be below max_price %v", c.MinPrice, c.MaxPrice)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time is before start_time")
	}

	if c.EngineVersion != "" {
		if err := version.CheckVersionCompatibility(version.GetVersion(), c.EngineVersion); err != nil {
			return errors.Wrap(errors.ErrCodeVersionMismatch, "configuration targets another engine version", err)
		}
	}

	return nil
}

// WarmupSize returns the number of candles that seed the price history. The
// default is twice the period, widened so the first traded candle completes the
// history the strategy needs.
func (c *BacktestEngineV1Config) WarmupSize() int {
	if c.Warmup.IsSome() {
		return c.Warmup.Unwrap()
	}

	// variants that never read a Hull trade from the first candle
	if !c.Strategy.UsesHull() {
		return max(strategy.RequiredHistory(c.Strategy, c.Period)-1, 0)
	}

	return max(2*c.Period, strategy.RequiredHistory(c.Strategy, c.Period)-1)
}

// WarmupSkipSize returns the number of candles dropped after the warm-up window.
func (c *BacktestEngineV1Config) WarmupSkipSize() int {
	if c.WarmupSkip.IsSome() {
		return c.WarmupSkip.Unwrap()
	}

	return DefaultWarmupSkip
}

// StrategyParams returns the parameters handed to strategy.New.
func (c *BacktestEngineV1Config) StrategyParams() strategy.Params {
	return strategy.Params{
		Period:      c.Period,
		ScoreOffset: c.ScoreOffset,
		Seeding:     c.MomentumSeeding,
	}
}

// PriceRange returns the candle filter bounds.
func (c *BacktestEngineV1Config) PriceRange() datasource.PriceRange {
	return datasource.PriceRange{Min: c.MinPrice, Max: c.MaxPrice}
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch {
			case t.String() == "optional.Option[time.Time]":
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			case t.String() == "optional.Option[int]":
				return &jsonschema.Schema{
					Type: "integer",
				}
			case strings.Contains(t.String(), "commission_fee.Broker"):
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			case strings.Contains(t.String(), "types.StrategyKind"):
				return &jsonschema.Schema{
					Type: "string",
					Enum: types.AllStrategyKinds,
				}
			case strings.Contains(t.String(), "strategy.Seeding"):
				return &jsonschema.Schema{
					Type: "string",
					Enum: strategy.AllSeedings,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// ParseConfig decodes and validates a YAML configuration.
func ParseConfig(content string) (BacktestEngineV1Config, error) {
	config := EmptyConfig()
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return config, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse configuration", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (BacktestEngineV1Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return EmptyConfig(), errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read %s", path)
	}

	return ParseConfig(string(content))
}

// TestConfig returns a valid configuration for the given strategy, used by tests and the sweep.
func TestConfig(kind types.StrategyKind, period int, fee float64) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Strategy = kind
	config.Period = period
	config.Fee = fee

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Strategy:        "",
		Period:          0,
		Fee:             0,
		Broker:          commission_fee.BrokerPercentage,
		NoLoss:          false,
		InitialUSD:      types.DefaultInitialUSD,
		Warmup:          optional.None[int](),
		WarmupSkip:      optional.None[int](),
		ScoreOffset:     0,
		MomentumSeeding: strategy.SeedingIncremental,
		MinPrice:        0,
		MaxPrice:        0,
		StartTime:       optional.None[time.Time](),
		EndTime:         optional.None[time.Time](),
		EngineVersion:   "",
	}
}
