package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/rangefinder/cmd/rangefinder/console"
	"github.com/mklimuk/rangefinder/laser"
)

var distanceCmd = cli.Command{
	Name:    "distance",
	Aliases: []string{"dist"},
	Usage:   "trigger a single ranging cycle and print the distance in millimeters",
	Flags: append([]cli.Flag{
		&cli.IntFlag{
			Name:    "offset",
			Aliases: []string{"o"},
			Usage:   "software calibration offset in millimeters, added to the raw reading",
		},
	}, transportFlags...),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, cleanup, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()
		sensor.SetDistanceOffset(int16(c.Int("offset")))
		distance, err := sensor.GetDistance(ctx)
		if err != nil {
			if errors.Is(err, laser.ErrOutOfRange) {
				return console.Exit(2, "%s target out of range", console.PictoStop)
			}
			return console.Exit(1, "error getting distance read: %s", console.Red(err))
		}
		console.Printf("%s %s mm\n", console.PictoRuler, console.White(distance))
		return nil
	},
}
