package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/easyrules/internal/engine"
	"github.com/solatis/easyrules/internal/recordio"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence. Engine policy
// keys have no default so that an unset key leaves the rule set in charge.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("engine.script_timeout", def.Engine.ScriptTimeout.String())
	v.SetDefault("io.input_format", "")
	v.SetDefault("io.output_format", "")
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	// Bind environment variables with EASYRULES_ prefix
	v.SetEnvPrefix("EASYRULES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNotRuleSet(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Engine: EngineConfig{
			ScriptTimeout: v.GetDuration("engine.script_timeout"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if v.IsSet("engine.match_mode") {
		mode, err := engine.ParseMatchMode(v.GetString("engine.match_mode"))
		if err != nil {
			return nil, fmt.Errorf("engine.match_mode: %w", err)
		}
		cfg.Engine.MatchMode = &mode
	}
	if v.IsSet("engine.keep_unmatched") {
		keep := v.GetBool("engine.keep_unmatched")
		cfg.Engine.KeepUnmatched = &keep
	}

	var err error
	if cfg.IO.InputFormat, err = optionalFormat(v, "io.input_format"); err != nil {
		return nil, err
	}
	if cfg.IO.OutputFormat, err = optionalFormat(v, "io.output_format"); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func optionalFormat(v *viper.Viper, key string) (recordio.Format, error) {
	s := v.GetString(key)
	if s == "" {
		return "", nil
	}
	f, err := recordio.ParseFormat(s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// validateNotRuleSet rejects a rule set file passed where a config file was
// expected.
func validateNotRuleSet(v *viper.Viper) error {
	if v.IsSet("rules") {
		return fmt.Errorf("rule definitions not allowed in config files (pass the rule set with --rules)")
	}
	return nil
}
