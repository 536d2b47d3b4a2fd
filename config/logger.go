package config

import "go.uber.org/zap"

// NewLogger builds the process logger. Production gets JSON output;
// anything else gets the human-readable development encoder.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
