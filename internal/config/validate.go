package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateNetwork(); err != nil {
		return err
	}
	if err := c.validateRules(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.MaxConcurrent < 1 {
		return errors.New("engine.max_concurrent must be at least 1")
	}
	if c.Engine.MaxRetries < 0 {
		return errors.New("engine.max_retries must not be negative")
	}
	if c.Engine.BaseRetryDelayMs < 0 {
		return errors.New("engine.base_retry_delay_ms must not be negative")
	}
	if c.Engine.RetryDelayMultiplier < 1 {
		return errors.New("engine.retry_delay_multiplier must be at least 1")
	}
	if c.Engine.MaxRetryDelayMs < c.Engine.BaseRetryDelayMs {
		return errors.New("engine.max_retry_delay_ms must not be below engine.base_retry_delay_ms")
	}
	if c.Engine.OutageThreshold < 1 {
		return errors.New("engine.outage_threshold must be at least 1")
	}
	return nil
}

func (c *Config) validateNetwork() error {
	if c.Network.ProbeURL == "" {
		return errors.New("network.probe_url must be set")
	}
	if c.Network.ProbeIntervalSeconds < 1 {
		return errors.New("network.probe_interval_seconds must be at least 1")
	}
	if c.Network.ProbeTimeoutSeconds < 1 {
		return errors.New("network.probe_timeout_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateRules() error {
	seen := make(map[string]struct{}, len(c.Rules))
	for i, rule := range c.Rules {
		category := strings.TrimSpace(rule.Category)
		if category == "" {
			return fmt.Errorf("rules[%d].category must be set", i)
		}
		if _, ok := seen[category]; ok {
			return fmt.Errorf("rules[%d].category %q appears more than once", i, category)
		}
		seen[category] = struct{}{}
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("rules[%d] (%s) must list at least one pattern", i, category)
		}
		for j, pattern := range rule.Patterns {
			if strings.TrimSpace(pattern) == "" {
				return fmt.Errorf("rules[%d].patterns[%d] must not be empty", i, j)
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
