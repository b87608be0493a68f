package logger

import (
	"go.uber.org/zap"
)

// New creates a zap logger tuned for the given environment: JSON output in
// production, console output elsewhere.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	return cfg.Build()
}

// NewNamed creates an environment-tuned logger named after the service.
func NewNamed(env, service string) (*zap.Logger, error) {
	log, err := New(env)
	if err != nil {
		return nil, err
	}
	return log.Named(service), nil
}
