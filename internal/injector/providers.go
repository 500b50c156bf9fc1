package injector

import (
	"github.com/google/wire"

	"github.com/chrisdevito/ViewNudger/internal/config"
	"github.com/chrisdevito/ViewNudger/internal/core/events/bus"
	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/host/memory"
	"github.com/chrisdevito/ViewNudger/internal/core/nudge"
	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
	"github.com/chrisdevito/ViewNudger/internal/server"
)

// App is everything a command needs, built once from the configuration.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Host   *memory.Host
	Events bus.EventBus
	Nudger *nudge.Nudger
	Server *server.Server
}

// ProviderSet builds an App from a *config.Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideHost,
	ProvideEventBus,
	ProvideNudger,
	ProvideServer,
	wire.Bind(new(log.Log), new(*log.Logger)),
	wire.Bind(new(host.Host), new(*memory.Host)),
	wire.Bind(new(host.Selection), new(*memory.Host)),
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	return log.New(cfg.Log)
}

func ProvideHost(cfg *config.Config, logger log.Log) (*memory.Host, error) {
	return memory.FromConfig(cfg.Scene, logger)
}

// ProvideEventBus returns a bus that logs every delivery at debug level.
func ProvideEventBus(logger log.Log) bus.EventBus {
	events := bus.New()
	events.AddObserver(bus.NewLogObserver(logger))
	return events
}

func ProvideNudger(h host.Host, events bus.EventBus, logger log.Log) *nudge.Nudger {
	return nudge.New(h, events, logger)
}

func ProvideServer(cfg *config.Config, nudger *nudge.Nudger, selection host.Selection, events bus.EventBus, logger log.Log) *server.Server {
	return server.New(cfg.Server, nudger, selection, events, logger)
}
