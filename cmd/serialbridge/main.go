// Package main relays newline delimited frames from one TCP client at a time to a serial device.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"github.com/crazybot-rc/crazybot/bridge"
	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/logging"
)

const (
	flagConfig  = "config"
	flagDebug   = "debug"
	flagAddress = "address"
	flagDevice  = "device"
)

func main() {
	app := &cli.App{
		Name:  "serialbridge",
		Usage: "relay lines from a TCP client to a serial device",
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
				Name:  flagAddress,
				Usage: "listen on `HOST:PORT` instead of the configured address",
			},
			&cli.StringFlag{
				Name:  flagDevice,
				Usage: "serial device `PATH` to relay to",
			},
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		logging.Global().Error(err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, c)
	if err != nil {
		return err
	}
	logger, closeLog, err := cfg.Log.NewLogger("serialbridge", c.Bool(flagDebug))
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(closeLog)
	logging.ReplaceGlobal(logger)

	server := bridge.NewServer(cfg.Bridge, bridge.SerialDevice(cfg.Bridge.Device), nil, logger)
	return server.ListenAndServe(ctx)
}

func loadConfig(ctx context.Context, c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(ctx, path, logging.Global()); err != nil {
			return nil, err
		}
	}
	if c.IsSet(flagAddress) {
		cfg.Bridge.Address = c.String(flagAddress)
	}
	if c.IsSet(flagDevice) {
		cfg.Bridge.Device.Path = c.String(flagDevice)
	}
	if err := cfg.Bridge.ValidateServe("bridge"); err != nil {
		return nil, err
	}
	return cfg, nil
}
