package laser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockI2CBus is a mock implementation of rangefinder.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if args.Get(0) != nil {
		if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
			copy(buffer, data)
		}
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

const testAddr = byte(0x70) // factory 0xE0 >> 1

// expectVersionProbe sets up the version read issued by Init.
func expectVersionProbe(bus *MockI2CBus, version []byte) {
	bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regVersion}).
		Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, testAddr, mock.Anything).
		Return(version, nil).Once()
}

func initSensor(t *testing.T, bus *MockI2CBus, opts ...R01CWOpt) *R01CW {
	t.Helper()
	sensor := NewR01CW(append([]R01CWOpt{WithRangingDelay(time.Millisecond)}, opts...)...)
	expectVersionProbe(bus, []byte{0x01, 0x02})
	err := sensor.Init(context.Background(), bus)
	assert.NoError(t, err)
	return sensor
}

func TestR01CW_Init(t *testing.T) {
	t.Run("factory address probe", func(t *testing.T) {
		bus := new(MockI2CBus)
		sensor := NewR01CW()
		assert.Equal(t, testAddr, sensor.Address())

		expectVersionProbe(bus, []byte{0x01, 0x02})
		err := sensor.Init(context.Background(), bus)
		assert.NoError(t, err)

		expectVersionProbe(bus, []byte{0x01, 0x02})
		version, err := sensor.ReadVersion(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x0102), version)
		bus.AssertExpectations(t)
	})
	t.Run("zero version means no response", func(t *testing.T) {
		bus := new(MockI2CBus)
		sensor := NewR01CW()
		expectVersionProbe(bus, []byte{0x00, 0x00})
		err := sensor.Init(context.Background(), bus)
		assert.ErrorIs(t, err, ErrNoResponse)
		bus.AssertExpectations(t)
	})
	t.Run("probe transport error", func(t *testing.T) {
		bus := new(MockI2CBus)
		sensor := NewR01CW()
		bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regVersion}).
			Return(errors.New("i2c write failed")).Once()
		err := sensor.Init(context.Background(), bus)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "init probe failed")
		bus.AssertExpectations(t)
	})
	t.Run("custom protocol address", func(t *testing.T) {
		sensor := NewR01CW(WithProtocolAddress(0xD2))
		assert.Equal(t, byte(0x69), sensor.Address())
		assert.Equal(t, byte(0xD2), sensor.ProtocolAddress())
	})
}

func TestR01CW_GetDistance(t *testing.T) {
	tests := []struct {
		name     string
		offset   int16
		data     []byte
		expected int16
	}{
		{"no offset", 0, []byte{0x00, 0x64}, 100},
		{"positive offset", 10, []byte{0x00, 0x64}, 110},
		{"negative offset", -200, []byte{0x00, 0x64}, -100},
		{"max raw below marker", 0, []byte{0xFF, 0xFE}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := new(MockI2CBus)
			sensor := initSensor(t, bus)
			sensor.SetDistanceOffset(tt.offset)

			bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regCommand, cmdMeasure}).
				Return(nil).Once()
			bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regDistance}).
				Return(nil).Once()
			bus.On("ReadFromAddr", mock.Anything, testAddr, mock.Anything).
				Return(tt.data, nil).Once()

			distance, err := sensor.GetDistance(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, distance)
			bus.AssertExpectations(t)
		})
	}
}

func TestR01CW_GetDistance_Errors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*MockI2CBus)
		expected  error
	}{
		{
			name: "invalid reading marker",
			setupMock: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regCommand, cmdMeasure}).
					Return(nil).Once()
				bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regDistance}).
					Return(nil).Once()
				bus.On("ReadFromAddr", mock.Anything, testAddr, mock.Anything).
					Return([]byte{0xFF, 0xFF}, nil).Once()
			},
			expected: ErrOutOfRange,
		},
		{
			name: "measure command write error",
			setupMock: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regCommand, cmdMeasure}).
					Return(errors.New("i2c write failed")).Once()
			},
		},
		{
			name: "register pointer write error",
			setupMock: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regCommand, cmdMeasure}).
					Return(nil).Once()
				bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regDistance}).
					Return(errors.New("i2c write failed")).Once()
			},
		},
		{
			name: "data read error",
			setupMock: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regCommand, cmdMeasure}).
					Return(nil).Once()
				bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regDistance}).
					Return(nil).Once()
				bus.On("ReadFromAddr", mock.Anything, testAddr, mock.Anything).
					Return(nil, errors.New("i2c read failed")).Once()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := new(MockI2CBus)
			sensor := initSensor(t, bus)
			tt.setupMock(bus)

			_, err := sensor.GetDistance(context.Background())
			assert.Error(t, err)
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
			}
			bus.AssertExpectations(t)
		})
	}
}

func TestR01CW_GetDistance_ContextCancelled(t *testing.T) {
	bus := new(MockI2CBus)
	sensor := initSensor(t, bus, WithRangingDelay(time.Second))

	bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regCommand, cmdMeasure}).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sensor.GetDistance(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	bus.AssertExpectations(t)
}

func TestR01CW_SetAddress(t *testing.T) {
	for _, address := range ProtocolAddresses() {
		bus := new(MockI2CBus)
		sensor := initSensor(t, bus)

		bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regSlaveAddress, address}).
			Return(nil).Once()

		err := sensor.SetAddress(context.Background(), address)
		assert.NoError(t, err)
		assert.Equal(t, address>>1, sensor.Address())
		assert.Equal(t, address, sensor.ProtocolAddress())
		bus.AssertExpectations(t)
	}
}

func TestR01CW_SetAddress_Rejected(t *testing.T) {
	invalid := []byte{0x00, 0x50, 0xCE, 0xCF, 0xD1, 0xE1, 0xF0, 0xF2, 0xF4, 0xF6, 0xF1, 0xFD, 0xFF}
	for _, address := range invalid {
		bus := new(MockI2CBus)
		sensor := initSensor(t, bus)
		calls := len(bus.Calls)

		err := sensor.SetAddress(context.Background(), address)
		assert.ErrorIs(t, err, ErrInvalidAddress)
		assert.Equal(t, testAddr, sensor.Address(), "address must stay unchanged")
		assert.Len(t, bus.Calls, calls, "no bus I/O on rejected address")
	}
}

func TestR01CW_SetAddress_BusError(t *testing.T) {
	bus := new(MockI2CBus)
	sensor := initSensor(t, bus)

	bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regSlaveAddress, byte(0xD0)}).
		Return(errors.New("i2c write failed")).Once()

	err := sensor.SetAddress(context.Background(), 0xD0)
	assert.Error(t, err)
	assert.Equal(t, testAddr, sensor.Address(), "address must stay unchanged on bus error")
	bus.AssertExpectations(t)
}

func TestR01CW_ValidProtocolAddress(t *testing.T) {
	assert.Len(t, ProtocolAddresses(), 20)
	assert.True(t, ValidProtocolAddress(0xD0))
	assert.True(t, ValidProtocolAddress(0xE0))
	assert.True(t, ValidProtocolAddress(0xEE))
	assert.True(t, ValidProtocolAddress(0xF8))
	assert.True(t, ValidProtocolAddress(0xFE))
	assert.False(t, ValidProtocolAddress(0xD1), "odd values are reserved")
	assert.False(t, ValidProtocolAddress(0xCE), "below range")
	assert.False(t, ValidProtocolAddress(0xF2), "reserved sub-range")
	assert.False(t, ValidProtocolAddress(0xFF), "above range and odd")
}

func TestR01CW_IsConnected(t *testing.T) {
	t.Run("ack", func(t *testing.T) {
		bus := new(MockI2CBus)
		sensor := initSensor(t, bus)
		bus.On("WriteToAddr", mock.Anything, testAddr, []byte{}).
			Return(nil).Once()
		assert.True(t, sensor.IsConnected(context.Background()))
		bus.AssertExpectations(t)
	})
	t.Run("nack", func(t *testing.T) {
		bus := new(MockI2CBus)
		sensor := initSensor(t, bus)
		bus.On("WriteToAddr", mock.Anything, testAddr, []byte{}).
			Return(errors.New("address not acknowledged")).Once()
		assert.False(t, sensor.IsConnected(context.Background()))
		bus.AssertExpectations(t)
	})
}

func TestR01CW_Restart(t *testing.T) {
	t.Run("writes key sequence", func(t *testing.T) {
		bus := new(MockI2CBus)
		sensor := initSensor(t, bus)
		bus.On("WriteToAddr", mock.Anything, testAddr, []byte{regCommand, cmdRestartKey1, cmdRestartKey2}).
			Return(nil).Once()
		assert.NoError(t, sensor.Restart(context.Background()))
		bus.AssertExpectations(t)
	})
	t.Run("bus error", func(t *testing.T) {
		bus := new(MockI2CBus)
		sensor := initSensor(t, bus)
		bus.On("WriteToAddr", mock.Anything, testAddr, mock.Anything).
			Return(errors.New("i2c write failed")).Once()
		assert.Error(t, sensor.Restart(context.Background()))
		bus.AssertExpectations(t)
	})
}

func TestR01CW_DistanceOffset(t *testing.T) {
	sensor := NewR01CW()
	assert.Equal(t, int16(0), sensor.GetDistanceOffset())
	for _, offset := range []int16{10, -5, 32767, -32768, 0} {
		sensor.SetDistanceOffset(offset)
		assert.Equal(t, offset, sensor.GetDistanceOffset())
	}
}

func TestR01CW_Uninitialized(t *testing.T) {
	sensor := NewR01CW()
	ctx := context.Background()

	_, err := sensor.GetDistance(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = sensor.ReadVersion(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.False(t, sensor.IsConnected(ctx))
	assert.ErrorIs(t, sensor.Restart(ctx), ErrNotInitialized)
	assert.ErrorIs(t, sensor.SetAddress(ctx, 0xD0), ErrNotInitialized)
	// validation still runs before the bound-state check
	assert.ErrorIs(t, sensor.SetAddress(ctx, 0xF2), ErrInvalidAddress)

	// pure accessors keep working without a transport
	sensor.SetDistanceOffset(42)
	assert.Equal(t, int16(42), sensor.GetDistanceOffset())
}
