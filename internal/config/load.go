package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var keys = []string{
	"preset",
	"host_prefixes",
	"strip_stacked_prefixes",
	"query_drop_patterns",
	"fragment_significant_patterns",
	"path_extension_pattern",
	"path_extension_length",
	"drop_params",
}

// Load reads normalizer settings from cfgFile, or from urlnorm.{yaml,toml,json}
// in the usual places when cfgFile is empty, and from URLNORM_* environment
// variables. A non-empty preset overrides the configured one. Keys that are
// not set anywhere take the preset's values.
func Load(cfgFile, preset string) (*Normalizer, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("urlnorm")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/urlnorm")
		v.AddConfigPath("/etc/urlnorm/")
	}

	v.SetEnvPrefix("URLNORM") // env vars like URLNORM_HOST_PREFIXES
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if preset != "" {
		v.Set("preset", preset)
	}
	base, err := presetOptions(v.GetString("preset"))
	if err != nil {
		return nil, err
	}
	v.SetDefault("host_prefixes", base.HostPrefixes)
	v.SetDefault("strip_stacked_prefixes", base.StripStackedPrefixes)
	v.SetDefault("query_drop_patterns", base.QueryDropPatterns)
	v.SetDefault("fragment_significant_patterns", base.FragmentPatterns)
	v.SetDefault("path_extension_pattern", base.PathExtensionPattern)
	v.SetDefault("path_extension_length", base.PathExtensionLength)

	var cfg Normalizer
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
