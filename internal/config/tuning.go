package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// LoadFile overlays an optional YAML tuning file onto the environment
// configuration. Precedence: defaults, then environment, then the file for
// the keys it actually sets. An empty path falls back to MATCHDAY_CONFIG,
// and no file at all is not an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Load()

	if path == "" {
		path = os.Getenv("MATCHDAY_CONFIG")
	}
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read tuning file %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	return cfg, nil
}
