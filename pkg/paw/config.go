package paw

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"

	"github.com/gwillem/presenter/pkg/hal"
	"github.com/gwillem/presenter/pkg/logging"
	"github.com/gwillem/presenter/pkg/motor"
)

const DefaultConfigFile = "paw.json"

// Default pins on the BeagleBone header.
const (
	DefaultMotorPin1     = "P8_7"  // IN1, drives backward
	DefaultMotorPin2     = "P8_9"  // IN2, drives forward
	DefaultFrontLimitPin = "P8_12"
	DefaultRearLimitPin  = "P8_10"
)

// Config holds the pin assignment and breakers of one paw.
type Config struct {
	MotorPin1     string         `json:"motorPin1" yaml:"motorPin1"`
	MotorPin2     string         `json:"motorPin2" yaml:"motorPin2"`
	FrontLimitPin string         `json:"frontLimitPin" yaml:"frontLimitPin"`
	RearLimitPin  string         `json:"rearLimitPin" yaml:"rearLimitPin"`
	Breakers      []BreakerDef   `json:"breakers,omitempty" yaml:"breakers,omitempty"`
	Logging       logging.Config `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// BreakerDef describes a breaker to register at startup.
type BreakerDef struct {
	Type   string        `json:"type" yaml:"type"`
	Phase  string        `json:"phase" yaml:"phase"`
	Config BreakerConfig `json:"config,omitempty" yaml:"config,omitempty"`
}

// DefaultConfig returns the stock pin assignment with no breakers.
func DefaultConfig() *Config {
	return &Config{
		MotorPin1:     DefaultMotorPin1,
		MotorPin2:     DefaultMotorPin2,
		FrontLimitPin: DefaultFrontLimitPin,
		RearLimitPin:  DefaultRearLimitPin,
	}
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Files ending in
// .yaml or .yml are parsed as YAML, anything else as JSON. Keys missing from
// the file keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Validate checks the pin assignment and breaker descriptors. Every error
// wraps ErrConfiguration.
func (c *Config) Validate() error {
	pins := []struct {
		key, value string
	}{
		{"motorPin1", c.MotorPin1},
		{"motorPin2", c.MotorPin2},
		{"frontLimitPin", c.FrontLimitPin},
		{"rearLimitPin", c.RearLimitPin},
	}
	seen := make(map[string]string, len(pins))
	for _, p := range pins {
		if p.value == "" {
			return errors.Wrapf(ErrConfiguration, "%s is not set", p.key)
		}
		if other, ok := seen[p.value]; ok {
			return errors.Wrapf(ErrConfiguration, "%s and %s both use pin %s", other, p.key, p.value)
		}
		seen[p.value] = p.key
	}

	for i, def := range c.Breakers {
		if _, err := ParsePhase(def.Phase); err != nil {
			return errors.Wrapf(err, "breaker %d (%s)", i, def.Type)
		}
		if def.Config.TotalTimeMs < 0 {
			return errors.Wrapf(ErrConfiguration, "breaker %d (%s): negative totalTimeMs", i, def.Type)
		}
		if int64(def.Config.TotalTimeMs) > MaxTotalTimeMs {
			return errors.Wrapf(ErrConfiguration, "breaker %d (%s): totalTimeMs above %d", i, def.Type, MaxTotalTimeMs)
		}
	}
	return nil
}

// NewFromConfig claims the configured pins on board and builds a controller
// with every configured breaker registered. Pins claimed before a failure
// are released again. A nil logger discards output.
func NewFromConfig(board *hal.Board, cfg *Config, logger *slog.Logger) (ctrl *Controller, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	var claimed []string
	defer func() {
		if err != nil {
			board.Release(claimed...)
		}
	}()

	output := func(name string) (gpio.PinOut, error) {
		p, err := board.Output(name)
		if err == nil {
			claimed = append(claimed, name)
		}
		return p, err
	}
	input := func(name string) (gpio.PinIn, error) {
		p, err := board.Input(name, gpio.PullUp)
		if err == nil {
			claimed = append(claimed, name)
		}
		return p, err
	}

	in1, err := output(cfg.MotorPin1)
	if err != nil {
		return nil, errors.Wrap(err, "motor pin 1")
	}
	in2, err := output(cfg.MotorPin2)
	if err != nil {
		return nil, errors.Wrap(err, "motor pin 2")
	}
	front, err := input(cfg.FrontLimitPin)
	if err != nil {
		return nil, errors.Wrap(err, "front limit pin")
	}
	rear, err := input(cfg.RearLimitPin)
	if err != nil {
		return nil, errors.Wrap(err, "rear limit pin")
	}

	driver, err := motor.NewDriver(in1, in2)
	if err != nil {
		return nil, errors.Wrap(err, "motor driver")
	}

	ctrl = New(driver, motor.NewLimits(front, rear), WithLogger(logger))
	for _, def := range cfg.Breakers {
		if !KnownBreaker(def.Type) {
			logger.Warn("unknown breaker type, using null breaker", "type", def.Type)
		}
		logger.Info("registering breaker", "type", def.Type, "phase", def.Phase, "totalTimeMs", def.Config.TotalTimeMs)
		if err := ctrl.RegisterBreaker(Phase(def.Phase), NewBreaker(def.Type, def.Config)); err != nil {
			return nil, err
		}
	}
	return ctrl, nil
}
