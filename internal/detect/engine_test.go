package detect

import (
	"testing"
	"time"

	"github.com/relabs-tech/spoofwatch/internal/method"
)

func TestEngineDropsSentencesForUnknownDevices(t *testing.T) {
	var alerts []Alert
	e := NewEngine([]string{"known"}, nil, 0.5, func(a Alert) { alerts = append(alerts, a) }, nil)
	e.Handle("unknown", time.Now(), "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	if len(alerts) != 0 {
		t.Errorf("expected no alerts for an unregistered device")
	}
}

func TestEngineFirstSightingEstablishesBaselineOnly(t *testing.T) {
	var alerts []Alert
	speedLimit := &method.PhysicalSpeedLimit{MaxSpeed: 1}
	e := NewEngine([]string{"d1"}, []method.Method{speedLimit}, 0.5, func(a Alert) { alerts = append(alerts, a) }, nil)

	// A single RMC sentence with a very high speed still must not alert
	// on the first sighting: there is no "previous state" to compare
	// against yet.
	e.Handle("d1", time.Now(), "$GPRMC,123519,A,4807.038,N,01131.000,E,999.9,084.4,230394,003.1,W*6E")
	if len(alerts) != 0 {
		t.Fatalf("expected no alert on the first sighting, got %d", len(alerts))
	}
}

func TestEngineAlertsOnSecondSightingOverThreshold(t *testing.T) {
	var alerts []Alert
	speedLimit := &method.PhysicalSpeedLimit{MaxSpeed: 1}
	e := NewEngine([]string{"d1"}, []method.Method{speedLimit}, 0.5, func(a Alert) { alerts = append(alerts, a) }, nil)

	e.Handle("d1", time.Now(), "$GPRMC,123519,A,4807.038,N,01131.000,E,999.9,084.4,230394,003.1,W*6E")
	e.Handle("d1", time.Now(), "$GPRMC,123520,A,4807.038,N,01131.000,E,999.8,084.4,230394,003.1,W*65")

	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(alerts))
	}
	if alerts[0].SpoofingIndicator != 1 {
		t.Errorf("expected spoofing indicator 1, got %v", alerts[0].SpoofingIndicator)
	}
}

func TestEngineSkipsGatingWhenStateUnchanged(t *testing.T) {
	callCount := 0
	speedLimit := &countingMethod{PhysicalSpeedLimit: method.PhysicalSpeedLimit{MaxSpeed: 1000}, calls: &callCount}
	e := NewEngine([]string{"d1"}, []method.Method{speedLimit}, 0.5, nil, nil)

	sentence := "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.Handle("d1", at, sentence)
	e.Handle("d1", at, sentence) // identical payload and handle time: no variable field changed

	if callCount != 0 {
		t.Errorf("SpoofingIndicator should not be called while the variable fields stay unchanged, got %d calls", callCount)
	}
}

func TestEngineKeepsOlderHistorySnapshotsIntact(t *testing.T) {
	e := NewEngine([]string{"d1"}, nil, 0.5, nil, nil)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)
	e.Handle("d1", t0, "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	e.Handle("d1", t1, "$GPRMC,123520,A,4807.038,N,01131.000,E,999.8,084.4,230394,003.1,W*65")

	history := e.StateHistory("d1")
	if history.Len() != 2 {
		t.Fatalf("expected 2 snapshots, got %d", history.Len())
	}
	older := history.State(1)
	if !older.UpdateTime.Equal(t0) {
		t.Errorf("older snapshot's update time changed to %v, want %v", older.UpdateTime, t0)
	}
	if *older.Speed != 22.4 {
		t.Errorf("older snapshot's speed changed to %v, want 22.4", *older.Speed)
	}
}

// countingMethod wraps PhysicalSpeedLimit to count SpoofingIndicator
// invocations without needing a hand-rolled Method from scratch.
type countingMethod struct {
	method.PhysicalSpeedLimit
	calls *int
}

func (c *countingMethod) SpoofingIndicator(ctx method.Context) float64 {
	*c.calls++
	return c.PhysicalSpeedLimit.SpoofingIndicator(ctx)
}
