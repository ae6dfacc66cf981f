package cli

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/ekglab/ekgstore/pkg/cache"
	"github.com/ekglab/ekgstore/pkg/config"
	"github.com/ekglab/ekgstore/pkg/inkscape"
	"github.com/ekglab/ekgstore/pkg/pipeline"
)

// newRunner builds a pipeline runner from the config file. The returned
// converter is the same instance held by the runner, exposed so commands can
// adjust its timeout.
func newRunner(cfgPath string, noCache bool, logger *log.Logger) (*pipeline.Runner, *inkscape.Converter, config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, config.Config{}, err
	}

	conv := inkscape.New(cfg.Converter.Binary, time.Duration(cfg.Converter.TimeoutSeconds)*time.Second)

	c, err := newCache(cfg.Cache, noCache)
	if err != nil {
		return nil, nil, config.Config{}, err
	}

	return pipeline.NewRunner(c, conv, logger), conv, cfg, nil
}

// newCache builds the configured cache backend.
func newCache(cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(cfg.RedisAddr), nil
	default:
		return cache.NewFileCache(cfg.Dir)
	}
}
