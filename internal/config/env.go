// Package config loads binary configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Validator is implemented by configurations that check their own values.
type Validator interface {
	Validate() error
}

// Parse loads a T from environment variables without validating it, for
// callers that apply further overrides such as flags first.
func Parse[T any]() (T, error) {
	cfg, err := env.ParseAs[T]()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Load is Parse followed by Validate when T implements Validator.
func Load[T any]() (T, error) {
	cfg, err := Parse[T]()
	if err != nil {
		return cfg, err
	}
	if v, ok := any(cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			var zero T
			return zero, fmt.Errorf("invalid env: %w", err)
		}
	}
	return cfg, nil
}
