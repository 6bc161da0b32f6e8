package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exovista/exovista/internal/core/observability/log"
	"github.com/exovista/exovista/internal/core/residency"
	"github.com/exovista/exovista/internal/core/scene"
	"github.com/exovista/exovista/internal/core/source"
	"github.com/exovista/exovista/internal/core/spatial"
	"github.com/exovista/exovista/internal/core/synthesis"
	"github.com/exovista/exovista/internal/core/visibility"
	"github.com/exovista/exovista/internal/server"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML residency config, defaults apply when empty")
		statsAddr   = flag.String("addr", ":8790", "stats server listen address")
		sourceURL   = flag.String("source", "", "precomputed texture source base URL, synthesis-only when empty")
		catalogSize = flag.Int("entities", 2000, "generated catalog size")
		catalogSeed = flag.Int64("seed", 1, "catalog generation seed")
		frameRate   = flag.Int("fps", 60, "simulated render frame rate")
	)
	flag.Parse()

	logger := log.New(log.LevelInfo)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config load failed", log.Error(err))
		os.Exit(1)
	}

	engine := visibility.NewEngine(cfg.MaxRenderDistance, logger)
	synth := synthesis.NewSynthesizer(logger)
	collector := residency.NewCollector(cfg.StatsBufferSize)

	var fetcher *source.Fetcher
	if *sourceURL != "" {
		src := source.NewHTTPSource(*sourceURL, cfg.FetchTimeout.Std())
		fetcher = source.NewFetcher(src, cfg.FetchWorkers, cfg.FetchQueueSize, cfg.FetchTimeout.Std(), logger)
	}

	manager, err := residency.NewManager(cfg, engine, synth, fetcher, collector, logger)
	if err != nil {
		logger.Error("manager init failed", log.Error(err))
		os.Exit(1)
	}

	registry := scene.NewMemoryRegistry()
	seedCatalog(registry, *catalogSize, *catalogSeed)
	logger.Info("catalog generated",
		log.Int("entities", registry.Count()),
		log.Int64("seed", *catalogSeed))

	srv := server.New(*statsAddr, manager, collector, logger)
	srv.Start()

	ctx, cancel := context.WithCancel(context.Background())
	go runSimulation(ctx, manager, registry, cfg, *frameRate, logger)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	<-stopCh
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("stats server shutdown", log.Error(err))
	}
	if err := manager.Close(); err != nil {
		logger.Warn("manager shutdown", log.Error(err))
	}
	_ = collector.Close()
}

func loadConfig(path string) (residency.Config, error) {
	if path == "" {
		return residency.DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return residency.Config{}, err
	}
	defer f.Close()
	return residency.LoadYAML(f)
}

// seedCatalog fills the registry with a deterministic synthetic catalog
// spanning every planet class the synthesizer distinguishes.
func seedCatalog(registry *scene.MemoryRegistry, size int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < size; i++ {
		dist := 5 + rng.Float64()*150
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)

		radius := 0.3 + rng.Float64()*14
		registry.Add(scene.Entity{
			ID: scene.EntityID(fmt.Sprintf("exo-%05d", i)),
			Position: spatial.Vec3{
				X: dist * math.Sin(phi) * math.Cos(theta),
				Y: dist * math.Sin(phi) * math.Sin(theta),
				Z: dist * math.Cos(phi),
			},
			Mass:           0.1 + rng.Float64()*300,
			Radius:         radius,
			Temperature:    50 + rng.Float64()*2400,
			BoundingRadius: radius * 0.1,
		})
	}
}

// runSimulation drives the render cadence: the camera orbits the
// catalog origin and the residency cycle runs every CycleEveryFrames
// frames, the way a real render loop would invoke it.
func runSimulation(ctx context.Context, manager *residency.Manager, registry *scene.MemoryRegistry,
	cfg residency.Config, fps int, logger log.Log) {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	frame := 0
	angle := 0.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame++
			angle += 0.002
			if frame%cfg.CycleEveryFrames != 0 {
				continue
			}

			eye := spatial.Vec3{X: 60 * math.Cos(angle), Y: 10, Z: 60 * math.Sin(angle)}
			cam := scene.Camera{
				Position:   eye,
				View:       spatial.LookAt(eye, spatial.Vec3{}, spatial.Vec3{Y: 1}),
				Projection: spatial.Perspective(math.Pi/3, 16.0/9.0, 0.1, cfg.MaxRenderDistance*2),
			}

			snap := manager.RunCycle(cam, registry.Entities())
			if snap.Cycle%100 == 0 {
				logger.Info("residency cycle",
					log.Uint64("cycle", snap.Cycle),
					log.Int("visible", snap.VisibleCount),
					log.Int("high", snap.HighCount),
					log.Int("low", snap.LowCount))
			}
		}
	}
}
