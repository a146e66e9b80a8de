package adapter

import (
	"context"
	"fmt"

	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/rangefinder"
)

var _ rangefinder.I2CBus = &NanoPi{}

// NanoPi exposes the NanoPi board's native I2C controller through the gobot
// adaptor. Connections are opened per device address and cached by the
// adaptor.
type NanoPi struct {
	adaptor *nanopi.Adaptor
	bus     int
}

func NewNanoPi(bus int) *NanoPi {
	return &NanoPi{
		adaptor: nanopi.NewNeoAdaptor(),
		bus:     bus,
	}
}

func (b *NanoPi) Init() error {
	err := b.adaptor.I2cBusAdaptor.Connect()
	if err != nil {
		return fmt.Errorf("adaptor connect error: %w", err)
	}
	return nil
}

func (b *NanoPi) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.adaptor.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return fmt.Errorf("could not get i2c connection to %x: %w", address, err)
	}
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to %x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *NanoPi) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.adaptor.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return fmt.Errorf("could not get i2c connection to %x: %w", address, err)
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *NanoPi) Release(ctx context.Context) error {
	return nil
}

func (b *NanoPi) Close() error {
	return b.adaptor.I2cBusAdaptor.Finalize()
}
