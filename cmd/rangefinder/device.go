package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/rangefinder/cmd/rangefinder/console"
)

var versionCmd = cli.Command{
	Name:  "version",
	Usage: "read the sensor firmware version",
	Flags: transportFlags,
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, cleanup, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()
		version, err := sensor.ReadVersion(ctx)
		if err != nil {
			return console.Exit(1, "error reading version: %s", console.Red(err))
		}
		console.Printf("firmware version: %s (%d.%d)\n", console.White(fmt.Sprintf("%#04x", version)), version>>8, version&0xFF)
		return nil
	},
}

var probeCmd = cli.Command{
	Name:  "probe",
	Usage: "check whether the sensor acknowledges its bus address",
	Flags: transportFlags,
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		addr, err := protocolAddress(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		trans, cleanup, err := openTransport(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()
		// the presence check is useful even when the version probe fails,
		// so bind the driver without insisting on a successful Init
		sensor := newBoundSensor(ctx, trans, addr)
		if !sensor.IsConnected(ctx) {
			return console.Exit(2, "%s no device at %s", console.PictoStop, console.White(hexByte(addr)))
		}
		console.Printf("%s device present at %s (bus address %s)\n",
			console.PictoCheck, console.White(hexByte(addr)), console.White(hexByte(addr>>1)))
		return nil
	},
}

var restartCmd = cli.Command{
	Name:  "restart",
	Usage: "write the restart key sequence to the sensor",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "skip the confirmation prompt",
		},
	}, transportFlags...),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, cleanup, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("restart the sensor?")
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			if answer != console.Yes {
				console.Print("aborted")
				return nil
			}
		}
		if err := sensor.Restart(ctx); err != nil {
			return console.Exit(1, "error restarting sensor: %s", console.Red(err))
		}
		console.Printf("%s restart command sent\n", console.PictoRestart)
		return nil
	},
}
