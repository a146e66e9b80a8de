package laser

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/rangefinder"
)

// R01CWFactoryAddress is the sensor's factory 8-bit protocol address.
// On the wire the transport uses its 7-bit form (0x70).
const R01CWFactoryAddress byte = 0xE0

// Register map (per DYP-R01CW datasheet)
//
//	0x00: 2-byte firmware version, big-endian
//	0x02: 2-byte raw distance in mm, big-endian, 0xFFFF marks an invalid reading
//	0x05: new 8-bit slave address write target
//	0x10: command write target
const (
	regVersion      byte = 0x00
	regDistance     byte = 0x02
	regSlaveAddress byte = 0x05
	regCommand      byte = 0x10
)

const (
	cmdMeasure byte = 0xB0

	// restart key sequence, written consecutively to the command register
	cmdRestartKey1 byte = 0x5A
	cmdRestartKey2 byte = 0xA5
)

// invalid/out-of-range measurement marker returned by the sensor
const invalidDistance uint16 = 0xFFFF

// Reserved even addresses inside the otherwise contiguous range.
const (
	reservedRangeStart byte = 0xF0
	reservedRangeEnd   byte = 0xF6
)

var ErrNotInitialized = errors.New("r01cw: sensor not initialized")
var ErrNoResponse = errors.New("r01cw: no response from sensor")
var ErrOutOfRange = errors.New("r01cw: measurement invalid or out of range")
var ErrInvalidAddress = errors.New("r01cw: protocol address not allowed")

type R01CWOpts struct {
	// ProtocolAddress is the 8-bit address the sensor exposes in its own
	// addressing scheme; the transport address is its 7-bit form.
	ProtocolAddress byte
	// RangingDelay is the wait between the measure command and the data
	// register read. The sensor needs ~50ms to complete a ranging cycle.
	RangingDelay time.Duration
}

type R01CWOpt func(*R01CWOpts)

func WithProtocolAddress(address byte) R01CWOpt {
	return func(o *R01CWOpts) {
		o.ProtocolAddress = address
	}
}

func WithRangingDelay(delay time.Duration) R01CWOpt {
	return func(o *R01CWOpts) {
		o.RangingDelay = delay
	}
}

// R01CW represents a DYP-R01CW (DFRobot SEN0590) laser ranging sensor.
// The driver borrows the bus transport through Init and never owns it.
//
// Typical usage:
//
//	s := laser.NewR01CW()
//	if err := s.Init(ctx, bus); err != nil { ... }
//	mm, err := s.GetDistance(ctx)
//
// The driver keeps no reading cache and performs no locking; confine one
// instance to a single goroutine or serialize access externally.
type R01CW struct {
	transport rangefinder.I2CBus
	addr      byte // 7-bit bus address
	offset    int16
	delay     time.Duration
	buf       []byte
}

func NewR01CW(opts ...R01CWOpt) *R01CW {
	config := R01CWOpts{
		ProtocolAddress: R01CWFactoryAddress,
		RangingDelay:    50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &R01CW{
		addr:  config.ProtocolAddress >> 1,
		delay: config.RangingDelay,
		buf:   make([]byte, 2),
	}
}

// Init binds the bus transport and probes the sensor by reading its version
// register. A zero version means the device did not answer; the transport
// stays bound so the caller may retry without reconstructing the driver.
// Bus startup (host init, adapter connect) belongs to the transport itself.
func (s *R01CW) Init(ctx context.Context, trans rangefinder.I2CBus) error {
	s.transport = trans
	version, err := s.ReadVersion(ctx)
	if err != nil {
		return fmt.Errorf("r01cw: init probe failed: %w", err)
	}
	if version == 0 {
		return ErrNoResponse
	}
	return nil
}

// GetDistance triggers a single ranging cycle and returns the distance in
// millimeters with the software offset applied. Every call issues a fresh
// measurement; there is no retry on failure.
func (s *R01CW) GetDistance(ctx context.Context) (int16, error) {
	if s.transport == nil {
		return 0, ErrNotInitialized
	}
	err := s.transport.WriteToAddr(ctx, s.addr, []byte{regCommand, cmdMeasure})
	if err != nil {
		return 0, fmt.Errorf("r01cw: measure command failed: %w", err)
	}
	// The ranging cycle is a hard protocol wait; the sensor offers no ready
	// flag to poll.
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	err = s.transport.WriteToAddr(ctx, s.addr, []byte{regDistance})
	if err != nil {
		return 0, fmt.Errorf("r01cw: could not set register pointer: %w", err)
	}
	err = s.transport.ReadFromAddr(ctx, s.addr, s.buf)
	if err != nil {
		return 0, fmt.Errorf("r01cw: could not read distance: %w", err)
	}
	raw := binary.BigEndian.Uint16(s.buf)
	if raw == invalidDistance {
		return 0, ErrOutOfRange
	}
	return int16(raw) + s.offset, nil
}

// ReadVersion reads the 2-byte firmware version. The sensor reports zero only
// when it did not respond, so callers treat zero as a failed read.
func (s *R01CW) ReadVersion(ctx context.Context) (uint16, error) {
	if s.transport == nil {
		return 0, ErrNotInitialized
	}
	err := s.transport.WriteToAddr(ctx, s.addr, []byte{regVersion})
	if err != nil {
		return 0, fmt.Errorf("r01cw: could not set register pointer: %w", err)
	}
	err = s.transport.ReadFromAddr(ctx, s.addr, s.buf)
	if err != nil {
		return 0, fmt.Errorf("r01cw: could not read version: %w", err)
	}
	return binary.BigEndian.Uint16(s.buf), nil
}

// IsConnected checks electrical presence only: an empty transaction to the
// sensor's address, true iff the device acked. It does not validate protocol
// correctness.
func (s *R01CW) IsConnected(ctx context.Context) bool {
	if s.transport == nil {
		return false
	}
	return s.transport.WriteToAddr(ctx, s.addr, []byte{}) == nil
}

// SetAddress reconfigures the sensor's 8-bit protocol address at runtime.
// The candidate is validated against the device's addressing rules before any
// bus I/O; on success the driver retargets itself so the same instance keeps
// addressing the reconfigured device. The sensor retains the new address in
// hardware across power cycles.
func (s *R01CW) SetAddress(ctx context.Context, address byte) error {
	if !ValidProtocolAddress(address) {
		return fmt.Errorf("%w: %#02x", ErrInvalidAddress, address)
	}
	if s.transport == nil {
		return ErrNotInitialized
	}
	err := s.transport.WriteToAddr(ctx, s.addr, []byte{regSlaveAddress, address})
	if err != nil {
		return fmt.Errorf("r01cw: could not write new address: %w", err)
	}
	s.addr = address >> 1
	return nil
}

// Restart writes the restart key sequence to the command register. It does
// not verify that the sensor actually rebooted.
func (s *R01CW) Restart(ctx context.Context) error {
	if s.transport == nil {
		return ErrNotInitialized
	}
	err := s.transport.WriteToAddr(ctx, s.addr, []byte{regCommand, cmdRestartKey1, cmdRestartKey2})
	if err != nil {
		return fmt.Errorf("r01cw: restart command failed: %w", err)
	}
	return nil
}

// SetDistanceOffset sets the software calibration added to every raw reading.
// Purely in-memory, no hardware side effect.
func (s *R01CW) SetDistanceOffset(offset int16) {
	s.offset = offset
}

func (s *R01CW) GetDistanceOffset() int16 {
	return s.offset
}

// Address returns the 7-bit bus address currently targeted by the driver.
func (s *R01CW) Address() byte {
	return s.addr
}

// ProtocolAddress returns the sensor's 8-bit protocol address.
func (s *R01CW) ProtocolAddress() byte {
	return s.addr << 1
}

// ValidProtocolAddress reports whether an 8-bit protocol address may be
// assigned to the sensor: even values in [0xD0, 0xFE] excluding the reserved
// [0xF0, 0xF6] sub-range. Exactly 20 addresses qualify.
func ValidProtocolAddress(address byte) bool {
	if address < 0xD0 || address > 0xFE {
		return false
	}
	if address&0x01 != 0 {
		return false
	}
	if address >= reservedRangeStart && address <= reservedRangeEnd {
		return false
	}
	return true
}

// ProtocolAddresses returns the assignable 8-bit protocol addresses in
// ascending order.
func ProtocolAddresses() []byte {
	addresses := make([]byte, 0, 20)
	for a := 0xD0; a <= 0xFE; a += 2 {
		if ValidProtocolAddress(byte(a)) {
			addresses = append(addresses, byte(a))
		}
	}
	return addresses
}
