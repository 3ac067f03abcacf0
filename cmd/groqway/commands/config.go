package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/florianilch/groqway/internal/app"
)

// envPrefix scopes environment overrides, e.g. GROQWAY_DOWNSTREAM__MODEL.
const envPrefix = "GROQWAY_"

// flagSource is the subset of *cli.Command used to read explicitly set flags.
type flagSource interface {
	IsSet(name string) bool
	Value(name string) any
}

// flagKeys maps CLI flags to the config keys they override.
var flagKeys = map[string]string{
	"address":     "server.address",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"diagnostics": "diagnostics.enabled",
}

// loadConfig merges defaults, the optional TOML file, GROQWAY_* environment variables
// and explicitly set flags (later sources win), then validates the result.
func loadConfig(path string, flags flagSource, environ func() []string) (app.Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(app.Defaults(), "."), nil); err != nil {
		return app.Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return app.Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: envToKey,
		EnvironFunc:   environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return app.Config{}, fmt.Errorf("load environment: %w", err)
	}

	for flag, key := range flagKeys {
		if flags == nil || !flags.IsSet(flag) {
			continue
		}
		if err := k.Set(key, flags.Value(flag)); err != nil {
			return app.Config{}, fmt.Errorf("apply flag --%s: %w", flag, err)
		}
	}

	var cfg app.Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return app.Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}

	return cfg, nil
}

// envToKey maps GROQWAY_SECTION__FIELD to section.field.
// GROQWAY_CONFIG is consumed by the --config flag and skipped here.
func envToKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if key == "config" {
		return "", nil
	}
	return strings.ReplaceAll(key, "__", "."), value
}
