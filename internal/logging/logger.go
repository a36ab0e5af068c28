// Package logging builds the zap logger used across dbcrawl.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// New returns a logger for mode ("production" or "development") writing
// entries at level and above to stderr.
func New(mode, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		atomic, err := zap.ParseAtomicLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = atomic
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("dbcrawl"), nil
}
