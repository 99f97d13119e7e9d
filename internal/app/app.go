package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/five82/winloop/internal/config"
	"github.com/five82/winloop/internal/loop"
	"github.com/five82/winloop/internal/platform"
)

// Options configure the winloop application.
type Options struct {
	ConfigPath string
	// Backend overrides the configured backend when non-nil.
	Backend platform.Backend
}

// Run loads the config, brings up the event loop and its window, and blocks
// until the loop terminates.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	log := logger.With(slog.String("component", "app"))

	backends := []platform.Backend{opts.Backend}
	if opts.Backend == nil {
		if backends, err = candidates(cfg); err != nil {
			return err
		}
	}

	ctrl, err := start(ctx, backends, cfg, logger)
	if err != nil {
		return err
	}

	if _, err := ctrl.CreateWindow(cfg.Window); err != nil {
		_ = ctrl.Close()
		return err
	}

	if cfg.Heartbeat > 0 {
		StartHeartbeat(ctx, ctrl.Proxy(), cfg.Heartbeat)
	}

	h := &handler{log: log}
	term, err := ctrl.Run(ctx, h.handle)
	if err != nil {
		return err
	}
	log.LogAttrs(ctx, slog.LevelInfo, "exit",
		slog.String("reason", term.Reason.String()),
		slog.Int("dispatched", term.Dispatched),
		slog.Int("redraws", h.redraws),
		slog.Int("heartbeats", h.heartbeats),
	)
	return nil
}

// start initializes the first backend whose platform is available. When every
// backend fails, the first failure is returned.
func start(ctx context.Context, backends []platform.Backend, cfg config.Config, logger *slog.Logger) (*loop.Controller, error) {
	var errFirst error
	for _, b := range backends {
		ctrl, err := loop.New(loop.Options{
			Backend:      b,
			ControlFlow:  cfg.ControlFlow,
			PollInterval: cfg.PollInterval,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		err = ctrl.Initialize(ctx)
		if err == nil {
			return ctrl, nil
		}
		var initErr *platform.PlatformInitError
		if !errors.As(err, &initErr) {
			return nil, err
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "backend unavailable",
			slog.String("backend", b.Name()),
			slog.Any("error", err),
		)
		if errFirst == nil {
			errFirst = err
		}
	}
	if errFirst == nil {
		errFirst = &platform.PlatformInitError{Backend: cfg.Backend, Err: platform.ErrNoDisplay}
	}
	return nil, errFirst
}

// handler is the loop's minimal event handler: it tallies what it sees and
// never asks to exit. Closing the window is handled by the controller.
type handler struct {
	log        *slog.Logger
	redraws    int
	heartbeats int
}

func (h *handler) handle(ev platform.Event) platform.Directive {
	switch e := ev.(type) {
	case platform.RedrawRequested:
		h.redraws++
	case platform.UserEvent:
		if hb, ok := e.Payload.(Heartbeat); ok {
			h.heartbeats++
			h.log.LogAttrs(context.Background(), slog.LevelDebug, "heartbeat",
				slog.Int("seq", hb.Seq),
				slog.Time("at", hb.At),
			)
		}
	case platform.Resized:
		h.log.LogAttrs(context.Background(), slog.LevelInfo, "window resized",
			slog.Int("width", e.Width),
			slog.Int("height", e.Height),
		)
	}
	return platform.Continue
}
