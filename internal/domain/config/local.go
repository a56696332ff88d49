package config

import (
	"fmt"
	"strings"
	"time"
)

// LocalConfigFile holds per-checkout defaults, under the project's .xfactory directory
const LocalConfigFile = "config.local.json"

// LocalConfig represents the local xfactory configuration
type LocalConfig struct {
	Network string `json:"network,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

// ConfigKey represents a configuration key
type ConfigKey string

const (
	ConfigKeyNetwork ConfigKey = "network"
	ConfigKeyTimeout ConfigKey = "timeout"
)

// ValidConfigKeys returns all valid configuration keys
func ValidConfigKeys() []ConfigKey {
	return []ConfigKey{
		ConfigKeyNetwork,
		ConfigKeyTimeout,
	}
}

// NormalizeConfigKey maps a user supplied key, or its alias, to a ConfigKey
func NormalizeConfigKey(key string) (ConfigKey, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "net" {
		return ConfigKeyNetwork, nil
	}
	for _, valid := range ValidConfigKeys() {
		if string(valid) == key {
			return valid, nil
		}
	}

	names := make([]string, 0, len(ValidConfigKeys()))
	for _, k := range ValidConfigKeys() {
		if k == ConfigKeyNetwork {
			names = append(names, string(k)+" (net)")
		} else {
			names = append(names, string(k))
		}
	}
	return "", fmt.Errorf("unknown config key: %s\nAvailable keys: %s", key, strings.Join(names, ", "))
}

// Get returns the value stored for key
func (c *LocalConfig) Get(key ConfigKey) string {
	switch key {
	case ConfigKeyNetwork:
		return c.Network
	case ConfigKeyTimeout:
		return c.Timeout
	default:
		return ""
	}
}

// Set validates and stores value for key. An empty value clears it.
func (c *LocalConfig) Set(key ConfigKey, value string) error {
	switch key {
	case ConfigKeyNetwork:
		c.Network = value
	case ConfigKeyTimeout:
		if value != "" {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout %q: %w", value, err)
			}
		}
		c.Timeout = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
