package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domainconfig "questionnaire-builder/domain/config"
)

// LoadDomainConfig returns the environment's domain defaults, overlaid with
// the YAML file at path when path is not empty. Keys missing from the file
// keep their defaults.
func LoadDomainConfig(path, environment string) (*domainconfig.DomainConfig, error) {
	cfg := domainconfig.LoadDomainConfig(environment)
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse domain config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain config: %w", err)
	}
	return cfg, nil
}

// StaticDomainConfig serves a fixed domain configuration.
type StaticDomainConfig struct {
	cfg *domainconfig.DomainConfig
}

// NewStaticDomainConfig wraps cfg; nil means the defaults
func NewStaticDomainConfig(cfg *domainconfig.DomainConfig) *StaticDomainConfig {
	if cfg == nil {
		cfg = domainconfig.DefaultDomainConfig()
	}
	return &StaticDomainConfig{cfg: cfg}
}

// Current returns the configuration
func (s *StaticDomainConfig) Current() *domainconfig.DomainConfig {
	return s.cfg
}
