package commands

import (
	"github.com/benz9527/xrbmap/internal/config"
	"github.com/benz9527/xrbmap/xlog"
)

// GlobalOptions holds the persistent root flags.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

func (o *GlobalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
		if err = cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, opts ...xlog.XLoggerOption) (xlog.XLogger, error) {
	lvl, err := xlog.ParseLogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	enc, err := xlog.ParseLogEncoder(cfg.Encoder)
	if err != nil {
		return nil, err
	}
	opts = append([]xlog.XLoggerOption{
		xlog.WithXLoggerLevel(lvl),
		xlog.WithXLoggerEncoder(enc),
	}, opts...)
	return xlog.NewXLogger(opts...), nil
}
