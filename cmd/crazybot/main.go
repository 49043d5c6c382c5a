// Package main drives a crazybot vehicle from a keyboard or an orientation sensor.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/crazybot-rc/crazybot/components/backend"
	"github.com/crazybot-rc/crazybot/components/input"
	"github.com/crazybot-rc/crazybot/components/input/evdev"
	"github.com/crazybot-rc/crazybot/components/input/terminal"
	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/driver"
	"github.com/crazybot-rc/crazybot/logging"
)

const (
	flagConfig  = "config"
	flagDebug   = "debug"
	flagBackend = "backend"
	flagVehicle = "vehicle"

	shutdownTimeout = 5 * time.Second
)

func main() {
	app := &cli.App{
		Name:  "crazybot",
		Usage: "drive a crazybot vehicle over its serial link",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagBackend,
				Usage: "override the backend kind (orientation, keyboard or null)",
			},
			&cli.StringFlag{
				Name:  flagVehicle,
				Usage: "override the vehicle serial device `PATH`",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logging.Global().Error(err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, c)
	if err != nil {
		return err
	}
	logger, closeLog, err := cfg.Log.NewLogger("crazybot", c.Bool(flagDebug))
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(closeLog)
	logging.ReplaceGlobal(logger)

	keys, err := openKeys(cfg, logger.Sublogger("keys"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	b, err := backend.New(cfg, backend.Dependencies{
		Keys: keys,
		OnKeysDone: func(err error) {
			if err != nil && !errors.Is(err, terminal.ErrQuit) {
				logger.Warnw("key source ended", "error", err)
			}
			cancel()
		},
	}, logger)
	if err != nil {
		if keys != nil {
			err = multierr.Combine(err, keys.Close())
		}
		return err
	}

	settings := driver.NewSettings(cfg.Drive)
	d := driver.New(b, settings, cfg.Drive, nil, logger.Sublogger("driver"))
	if err := d.Start(ctx); err != nil {
		return multierr.Combine(err, b.Stop(context.Background()))
	}

	if cfg.ConfigFilePath != "" {
		watcher, err := config.NewWatcher(ctx, cfg.ConfigFilePath, func(newCfg *config.Config) {
			settings.Apply(newCfg.Drive)
			logger.Infow("drive settings updated",
				"power_scale", settings.PowerScale(),
				"turn_scale", settings.TurnScale(),
				"reverse", settings.Reverse())
		}, logger.Sublogger("config"))
		if err != nil {
			logger.Warnw("config changes will not be picked up", "error", err)
		} else {
			defer goutils.UncheckedErrorFunc(watcher.Close)
		}
	}

	for goutils.SelectContextOrWait(ctx, time.Second) {
		logger.Debugw("status", "snapshot", d.Snapshot().String())
	}

	logger.Info("shutting down")
	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	return d.Close(closeCtx)
}

func loadConfig(ctx context.Context, c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String(flagConfig); path != "" {
		var err error
		cfg, err = config.Read(ctx, path, logging.Global())
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if !c.IsSet(flagBackend) && !c.IsSet(flagVehicle) {
		return cfg, nil
	}
	if c.IsSet(flagBackend) {
		cfg.Backend.Kind = c.String(flagBackend)
	}
	if c.IsSet(flagVehicle) {
		cfg.Vehicle.Path = c.String(flagVehicle)
	}
	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openKeys opens the configured key source. Only the keyboard backend reads keys.
func openKeys(cfg *config.Config, logger logging.Logger) (input.Source, error) {
	if cfg.Backend.Kind != config.BackendKeyboard {
		return nil, nil
	}
	switch cfg.Backend.Keyboard.Source {
	case config.KeySourceTerminal:
		keys, err := terminal.Open(logger)
		if err != nil {
			return nil, err
		}
		return keys, nil
	case config.KeySourceEvdev:
		keys, err := evdev.Open(cfg.Backend.Keyboard.Device, logger)
		if err != nil {
			return nil, err
		}
		return keys, nil
	default:
		return nil, nil
	}
}
