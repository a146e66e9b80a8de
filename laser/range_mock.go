package laser

import (
	"context"
)

// RangeBehaviorFunc defines the function signature for range sensor behavior.
// It returns the distance in millimeters or an error.
type RangeBehaviorFunc func(ctx context.Context) (int16, error)

// MockRangeSensor is a mock implementation of a ranging sensor that uses a
// behavior function to produce results without requiring any hardware.
// This can be used to mock any distance sensor like the R01CW.
type MockRangeSensor struct {
	behavior RangeBehaviorFunc
}

// NewMockRangeSensor creates a new mock range sensor with the given behavior
// function. The behavior function is called whenever GetDistance is invoked.
//
// Example usage:
//
//	// Static value
//	sensor := NewMockRangeSensor(func(ctx context.Context) (int16, error) {
//		return 1500, nil
//	})
//
//	// Dynamic behavior
//	distance := int16(100)
//	sensor := NewMockRangeSensor(func(ctx context.Context) (int16, error) {
//		distance += 10
//		return distance, nil
//	})
//
//	// Error simulation
//	sensor := NewMockRangeSensor(func(ctx context.Context) (int16, error) {
//		return 0, laser.ErrOutOfRange
//	})
func NewMockRangeSensor(behavior RangeBehaviorFunc) *MockRangeSensor {
	return &MockRangeSensor{
		behavior: behavior,
	}
}

// GetDistance returns the distance by calling the behavior function.
func (m *MockRangeSensor) GetDistance(ctx context.Context) (int16, error) {
	return m.behavior(ctx)
}

// NewMockR01CW creates a new mock R01CW sensor (alias for NewMockRangeSensor).
func NewMockR01CW(behavior RangeBehaviorFunc) *MockRangeSensor {
	return NewMockRangeSensor(behavior)
}
