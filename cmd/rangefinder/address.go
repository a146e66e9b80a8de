package main

import (
	"context"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/rangefinder/cmd/rangefinder/console"
	"github.com/mklimuk/rangefinder/laser"
)

var addressCmd = cli.Command{
	Name:    "address",
	Aliases: []string{"addr"},
	Usage:   "inspect or reconfigure the sensor bus address",
	Subcommands: []*cli.Command{
		&addressLsCmd,
		&addressSetCmd,
	},
}

var addressLsCmd = cli.Command{
	Name:  "ls",
	Usage: "list the assignable 8-bit protocol addresses",
	Action: func(c *cli.Context) error {
		for _, address := range laser.ProtocolAddresses() {
			console.Printf("%s (bus address %s)\n", console.White(hexByte(address)), hexByte(address>>1))
		}
		return nil
	},
}

var addressSetCmd = cli.Command{
	Name:      "set",
	Usage:     "assign a new 8-bit protocol address to the sensor",
	ArgsUsage: "<address>",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "skip the confirmation prompt",
		},
	}, transportFlags...),
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return console.Exit(1, "usage: rangefinder address set <address>")
		}
		target, err := strconv.ParseUint(c.Args().First(), 0, 8)
		if err != nil {
			return console.Exit(1, "invalid address %s: %s", c.Args().First(), console.Red(err))
		}
		if !laser.ValidProtocolAddress(byte(target)) {
			console.Errorf("address %s is not assignable; run %s for the legal set",
				console.White(hexByte(byte(target))), console.Bold("rangefinder address ls"))
			return console.Exit(1, "address rejected")
		}
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, cleanup, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("reassign sensor address to " + hexByte(byte(target)) + "?")
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			if answer != console.Yes {
				console.Print("aborted")
				return nil
			}
		}
		if err := sensor.SetAddress(ctx, byte(target)); err != nil {
			return console.Exit(1, "error setting address: %s", console.Red(err))
		}
		console.Printf("%s sensor now answers at %s (bus address %s)\n",
			console.PictoPin, console.White(hexByte(sensor.ProtocolAddress())), console.White(hexByte(sensor.Address())))
		return nil
	},
}
