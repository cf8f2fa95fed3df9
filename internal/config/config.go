package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/nidhogg/agentsim/internal/sim"
)

// Config is the top-level configuration structure.
type Config struct {
	Server ServerConfig `json:"server"`
	Sim    SimConfig    `json:"sim"`
	Bridge BridgeConfig `json:"bridge"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type SimConfig struct {
	MaxAgents         int     `json:"max_agents"`
	UpdateIntervalMs  int     `json:"update_interval_ms"`
	LearningRate      float64 `json:"learning_rate"`
	MemorySize        int     `json:"memory_size"`
	DecisionThreshold float64 `json:"decision_threshold"`
	ShortTermSize     int     `json:"short_term_size"`
	LongTermSize      int     `json:"long_term_size"`
	EpisodicSize      int     `json:"episodic_size"`
}

type BridgeConfig struct {
	Redis RedisBridgeConfig `json:"redis"`
}

type RedisBridgeConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Stream  string `json:"stream"`
}

// Options converts the sim section into scheduler options.
func (c SimConfig) Options() sim.Options {
	return sim.Options{
		MaxAgents:         c.MaxAgents,
		UpdateInterval:    time.Duration(c.UpdateIntervalMs) * time.Millisecond,
		LearningRate:      c.LearningRate,
		MemorySize:        c.MemorySize,
		DecisionThreshold: c.DecisionThreshold,
		ShortTermSize:     c.ShortTermSize,
		LongTermSize:      c.LongTermSize,
		EpisodicSize:      c.EpisodicSize,
	}
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
