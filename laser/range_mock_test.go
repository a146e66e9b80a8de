package laser

import (
	"context"
	"errors"
	"testing"
)

func TestMockRangeSensor_StaticValue(t *testing.T) {
	sensor := NewMockRangeSensor(func(ctx context.Context) (int16, error) {
		return 1500, nil
	})

	ctx := context.Background()
	distance, err := sensor.GetDistance(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if distance != 1500 {
		t.Errorf("expected 1500 mm, got %d", distance)
	}
}

func TestMockRangeSensor_DynamicBehavior(t *testing.T) {
	callCount := int16(0)

	sensor := NewMockRangeSensor(func(ctx context.Context) (int16, error) {
		callCount++
		return callCount * 100, nil
	})

	ctx := context.Background()

	d1, err := sensor.GetDistance(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d1 != 100 {
		t.Errorf("first call: expected 100 mm, got %d", d1)
	}

	d2, err := sensor.GetDistance(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d2 != 200 {
		t.Errorf("second call: expected 200 mm, got %d", d2)
	}
}

func TestMockRangeSensor_ErrorHandling(t *testing.T) {
	sensor := NewMockRangeSensor(func(ctx context.Context) (int16, error) {
		return 0, ErrOutOfRange
	})

	ctx := context.Background()
	_, err := sensor.GetDistance(ctx)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestMockRangeSensor_ContextUsage(t *testing.T) {
	var receivedCtx context.Context

	sensor := NewMockRangeSensor(func(ctx context.Context) (int16, error) {
		receivedCtx = ctx
		return 300, nil
	})

	type contextKey string
	key := contextKey("test")
	ctx := context.WithValue(context.Background(), key, "test-value")

	_, err := sensor.GetDistance(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedCtx.Value(key) != "test-value" {
		t.Error("context was not passed through correctly")
	}
}
