package app

import (
	"errors"

	"github.com/vk/featgridgo/internal/scheduler"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // hcl files
	ModulesPath  string // hcl manifests + handlers
	DatasetPath  string // json dataset

	Order      string   // "sample" or "feature"
	Features   []string // empty means every declared feature
	SkipErrors bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.Order != "" {
		if _, err := scheduler.ParseOrder(cfg.Order); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
