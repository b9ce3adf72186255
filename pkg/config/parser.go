package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadConfig loads and parses the configuration file.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		if _, err := toml.Decode(string(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the reconfigurable values against their allowed ranges.
func (s Simulation) Validate() error {
	if s.VehicleCount < MinVehicleCount || s.VehicleCount > MaxVehicleCount {
		return fmt.Errorf("%w: vehicleCount must be between %d and %d, got %d",
			ErrInvalidConfig, MinVehicleCount, MaxVehicleCount, s.VehicleCount)
	}

	if s.StopDuration < MinStopDuration || s.StopDuration > MaxStopDuration {
		return fmt.Errorf("%w: stopDuration must be between %s and %s, got %s",
			ErrInvalidConfig, MinStopDuration, MaxStopDuration, s.StopDuration)
	}

	if s.TickRate < MinTickRate || s.TickRate > MaxTickRate {
		return fmt.Errorf("%w: tickRate must be between %d and %d, got %d",
			ErrInvalidConfig, MinTickRate, MaxTickRate, s.TickRate)
	}

	return nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if err := config.Simulation.Validate(); err != nil {
		return err
	}

	if config.SimulationDuration <= 0 {
		return fmt.Errorf("%w: simulationDuration must be greater than 0", ErrInvalidConfig)
	}

	if config.SampleEvery < 0 {
		return fmt.Errorf("%w: sampleEvery must not be negative", ErrInvalidConfig)
	}

	return nil
}
