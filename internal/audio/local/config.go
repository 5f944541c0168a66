package local

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names for the local engine.
const (
	envAssetRoot        = "SOUNDBATCH_ASSET_ROOT"
	envMaxConcurrent    = "SOUNDBATCH_MAX_CONCURRENT_LOADS"
	envPreferredFormats = "SOUNDBATCH_PREFERRED_FORMATS"
)

// Config holds configuration for the local file engine.
type Config struct {
	// AssetRoot is the directory resolved sources are read from.
	AssetRoot string

	// MaxConcurrentLoads bounds how many files are decoded at once.
	MaxConcurrentLoads int

	// PreferredFormats orders the extensions tried when a source offers
	// alternate variants.
	PreferredFormats []string
}

// LoadConfig reads local engine configuration from environment variables,
// applying defaults for values not set.
func LoadConfig() Config {
	cfg := Config{
		AssetRoot:          DefaultAssetRoot,
		MaxConcurrentLoads: DefaultMaxConcurrentLoads,
		PreferredFormats:   append([]string(nil), DefaultPreferredFormats...),
	}

	if v := os.Getenv(envAssetRoot); v != "" {
		cfg.AssetRoot = v
	}
	if v := os.Getenv(envMaxConcurrent); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrentLoads = n
		}
	}
	if v := os.Getenv(envPreferredFormats); v != "" {
		var formats []string
		for _, f := range strings.Split(v, ",") {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				formats = append(formats, f)
			}
		}
		if len(formats) > 0 {
			cfg.PreferredFormats = formats
		}
	}

	return cfg
}
