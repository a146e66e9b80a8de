package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/rangefinder"
	"github.com/mklimuk/rangefinder/adapter"
	"github.com/mklimuk/rangefinder/cmd/rangefinder/console"
	"github.com/mklimuk/rangefinder/i2c"
	"github.com/mklimuk/rangefinder/laser"
)

var transportFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Value:   "mcp2221",
		Usage:   "bus adapter: mcp2221, generic or nanopi",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Value:   "/dev/i2c-1",
		Usage:   "i2c character device (generic adapter)",
	},
	&cli.IntFlag{
		Name:  "bus",
		Value: 0,
		Usage: "i2c bus number (nanopi adapter)",
	},
	&cli.IntFlag{
		Name:  "speed",
		Usage: "bus clock in kHz (generic adapter)",
	},
	&cli.StringFlag{
		Name:  "addr",
		Value: "0xE0",
		Usage: "8-bit protocol address of the sensor",
	},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
}

func protocolAddress(c *cli.Context) (byte, error) {
	addr, err := strconv.ParseUint(c.String("addr"), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid protocol address %q: %w", c.String("addr"), err)
	}
	return byte(addr), nil
}

func openTransport(c *cli.Context) (rangefinder.I2CBus, func(), error) {
	switch c.String("adapter") {
	case "mcp2221":
		return adapter.NewMCP2221(), func() {}, nil
	case "generic":
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		if khz := c.Int("speed"); khz > 0 {
			if err := bus.SetSpeed(physic.Frequency(khz) * physic.KiloHertz); err != nil {
				_ = bus.Close()
				return nil, nil, fmt.Errorf("could not set bus speed: %w", err)
			}
		}
		return bus, func() {
			if err := bus.Close(); err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
		}, nil
	case "nanopi":
		bus := adapter.NewNanoPi(c.Int("bus"))
		if err := bus.Init(); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return bus, func() {
			if err := bus.Close(); err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
}

// newBoundSensor binds a driver without insisting on a successful init probe,
// for commands that only need electrical presence.
func newBoundSensor(ctx context.Context, trans rangefinder.I2CBus, addr byte) *laser.R01CW {
	sensor := laser.NewR01CW(laser.WithProtocolAddress(addr))
	if err := sensor.Init(ctx, trans); err != nil {
		slog.Debug("init probe failed", "error", err)
	}
	return sensor
}

func hexByte(b byte) string {
	return fmt.Sprintf("%#02x", b)
}

// openSensor builds the transport selected on the command line and binds a
// driver instance to it. The returned cleanup releases the transport.
func openSensor(ctx context.Context, c *cli.Context) (*laser.R01CW, func(), error) {
	addr, err := protocolAddress(c)
	if err != nil {
		return nil, nil, err
	}
	trans, cleanup, err := openTransport(c)
	if err != nil {
		return nil, nil, err
	}
	sensor := laser.NewR01CW(laser.WithProtocolAddress(addr))
	if err := sensor.Init(ctx, trans); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("sensor initialization error: %w", err)
	}
	return sensor, cleanup, nil
}
