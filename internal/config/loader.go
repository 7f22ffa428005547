package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/benz9527/xrbmap/lib/infra"
)

const (
	configName      = ".xrbmap"
	configType      = "yaml"
	envPrefix       = "XRBMAP"
	envKeySeparator = "_"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, infra.WrapErrorStackWithMessage(err, "read config")
		}
	}

	var cfg Config
	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "validate config")
	}
	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.encoder", DefaultLogEncoder)

	viperCfg.SetDefault("load.keys", DefaultLoadKeys)
	viperCfg.SetDefault("load.erase_ratio", DefaultLoadEraseRatio)
	viperCfg.SetDefault("load.workers", DefaultLoadWorkers)
	viperCfg.SetDefault("load.rounds", DefaultLoadRounds)
	viperCfg.SetDefault("load.validate_every", DefaultLoadValidateEvery)
	viperCfg.SetDefault("load.seed", DefaultLoadSeed)

	viperCfg.SetDefault("metrics.exporter", DefaultMetricsExporter)
	viperCfg.SetDefault("metrics.interval", DefaultMetricsInterval)
	viperCfg.SetDefault("metrics.listen", DefaultMetricsListen)
}
