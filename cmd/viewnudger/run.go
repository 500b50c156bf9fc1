package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdevito/ViewNudger/internal/config"
	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/host/memory"
	"github.com/chrisdevito/ViewNudger/internal/core/nudge"
	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
	"github.com/chrisdevito/ViewNudger/internal/core/projection"
	"github.com/chrisdevito/ViewNudger/internal/injector"
	"github.com/chrisdevito/ViewNudger/internal/server"
	"github.com/chrisdevito/ViewNudger/pkg/concurrent"
	"github.com/chrisdevito/ViewNudger/sdk/go/client"
)

type nudgeOptions struct {
	amount     float64
	target     string
	moveObject bool
	rotateView bool
	view       string
	undo       bool
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	var cfg *config.Config
	if flags.configPath == "" {
		def := config.Default()
		cfg = &def
	} else {
		loaded, err := config.LoadFile(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flags.logLevel != "" {
		level, err := log.ParseLevel(flags.logLevel)
		if err != nil {
			return nil, err
		}
		cfg.Log.Level = level
	}
	return cfg, nil
}

func loadApp(flags *globalFlags) (*injector.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return injector.InitializeApp(cfg)
}

func runNudge(out io.Writer, flags *globalFlags, opts nudgeOptions, directions []string) error {
	app, err := loadApp(flags)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()

	target := opts.target
	if target == "" {
		selected := app.Host.CurrentSelection()
		if len(selected) == 0 {
			return fmt.Errorf("%w: nothing selected and no --target", nudge.ErrInvalidTarget)
		}
		target = selected[0]
	}

	for _, name := range directions {
		direction, err := nudge.ParseDirection(name)
		if err != nil {
			return err
		}
		req, err := nudge.NewRequest(target, direction, opts.amount, opts.moveObject, opts.rotateView)
		if err != nil {
			return err
		}
		if opts.view != "" {
			req = req.WithView(host.ViewportNamed(opts.view))
		}
		res, err := app.Nudger.Nudge(req)
		if err != nil {
			return err
		}
		printResult(out, direction, res)
	}

	if opts.undo {
		label, err := app.Nudger.Undo()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "undone: %s\n", label)
	}

	fmt.Fprintln(out)
	printEntities(out, app.Host.Entities())
	return nil
}

// screenRow is one line of the project report.
type screenRow struct {
	Name    string
	Kind    host.EntityKind
	Screen  projection.Point2D
	Visible bool
}

func runProject(ctx context.Context, out io.Writer, flags *globalFlags, view, aim string, workers int) error {
	app, err := loadApp(flags)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()

	ref := host.ActiveViewport()
	if view != "" {
		ref = host.ViewportNamed(view)
	}
	if aim != "" {
		if err := aimViewport(app.Host, ref, aim); err != nil {
			return err
		}
	}
	rows, err := projectEntities(ctx, app.Host, ref, workers, app.Logger)
	if err != nil {
		return err
	}
	printProjection(out, ref, rows)
	return nil
}

// aimViewport turns the camera of ref toward the named entity.
func aimViewport(h *memory.Host, ref host.ViewportRef, target string) error {
	viewport, err := ref.Resolve(h)
	if err != nil {
		return fmt.Errorf("%w: %w", nudge.ErrInvalidViewport, err)
	}
	camera, err := h.CameraOf(viewport)
	if err != nil {
		return err
	}
	position, err := h.WorldPosition(target)
	if err != nil {
		return fmt.Errorf("%w: %w", nudge.ErrInvalidTarget, err)
	}
	return h.LookAt(camera, position)
}

// projectEntities projects every entity except the viewing camera.
func projectEntities(ctx context.Context, h *memory.Host, ref host.ViewportRef, workers int, logger log.Log) ([]screenRow, error) {
	viewport, err := ref.Resolve(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nudge.ErrInvalidViewport, err)
	}
	camera, err := h.CameraOf(viewport)
	if err != nil {
		return nil, err
	}
	eye, err := h.EyePoint(camera)
	if err != nil {
		return nil, err
	}
	forward, err := h.ForwardDirection(camera)
	if err != nil {
		return nil, err
	}
	frame := projection.CameraFrame{Eye: eye, Forward: forward}
	state := projection.ViewState{
		View:       viewport.ViewMatrix(),
		Projection: viewport.ProjectionMatrix(),
		Width:      viewport.Width(),
		Height:     viewport.Height(),
	}

	var entities []memory.EntityInfo
	for _, e := range h.Entities() {
		if e.Name != camera {
			entities = append(entities, e)
		}
	}

	projector := projection.NewProjector(logger)
	return concurrent.Map(ctx, entities, workers, func(_ context.Context, e memory.EntityInfo) (screenRow, error) {
		screen, visible, err := projector.WorldToScreen(e.Position, frame, state)
		if err != nil {
			return screenRow{}, fmt.Errorf("project %q: %w", e.Name, err)
		}
		return screenRow{Name: e.Name, Kind: e.Kind, Screen: screen, Visible: visible}, nil
	})
}

func runServe(ctx context.Context, out io.Writer, flags *globalFlags, addr string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Server.Start(ctx); err != nil {
		return err
	}
	app.Logger.Info("Serving nudges", log.String("url", "ws://"+app.Server.Addr()+"/ws"))
	fmt.Fprintf(out, "listening on ws://%s/ws\n", app.Server.Addr())
	<-ctx.Done()

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := app.Server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return app.Server.Close()
}

func runRemote(ctx context.Context, out io.Writer, flags *globalFlags, url string, opts nudgeOptions, directions []string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, err := log.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Reject typos and bad amounts before touching the server.
	parsed := make([]nudge.Direction, 0, len(directions))
	for _, name := range directions {
		direction, err := nudge.ParseDirection(name)
		if err != nil {
			return err
		}
		if _, err := nudge.NewRequest(opts.target, direction, opts.amount, opts.moveObject, opts.rotateView); err != nil {
			return err
		}
		parsed = append(parsed, direction)
	}

	clientCfg := client.DefaultClientConfig()
	clientCfg.URL = url
	c := client.NewClient(clientCfg, logger)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	for _, direction := range parsed {
		res, err := c.Nudge(ctx, server.Command{
			Direction:  direction.String(),
			Amount:     opts.amount,
			MoveObject: opts.moveObject,
			RotateView: opts.rotateView,
			Target:     opts.target,
			View:       opts.view,
		})
		if err != nil {
			return err
		}
		printResult(out, direction, res)
	}

	if opts.undo {
		label, err := c.Undo(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "undone: %s\n", label)
	}
	return nil
}
