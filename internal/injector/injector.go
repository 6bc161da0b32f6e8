//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/exovista/exovista/internal/core/observability/log"
	"github.com/exovista/exovista/internal/core/residency"
	"github.com/exovista/exovista/internal/core/source"
	"github.com/exovista/exovista/internal/core/synthesis"
	"github.com/exovista/exovista/internal/core/visibility"
)

func provideEngine(cfg residency.Config, logger log.Log) *visibility.Engine {
	return visibility.NewEngine(cfg.MaxRenderDistance, logger)
}

func provideCollector(cfg residency.Config) *residency.Collector {
	return residency.NewCollector(cfg.StatsBufferSize)
}

func provideFetcher(cfg residency.Config, src source.Source, logger log.Log) *source.Fetcher {
	return source.NewFetcher(src, cfg.FetchWorkers, cfg.FetchQueueSize, cfg.FetchTimeout.Std(), logger)
}

// ProvideManager assembles a fully wired residency manager for a scene.
func ProvideManager(cfg residency.Config, src source.Source, logger *log.Logger) (*residency.Manager, error) {
	wire.Build(
		wire.Bind(new(log.Log), new(*log.Logger)),
		provideEngine,
		provideCollector,
		provideFetcher,
		synthesis.NewSynthesizer,
		residency.NewManager,
	)
	return nil, nil
}
