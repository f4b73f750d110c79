package method

import (
	"testing"
	"time"

	"github.com/relabs-tech/spoofwatch/internal/navstate"
)

func driftContext(deviceID string, updateTime time.Time, drift time.Duration) Context {
	gpsTime := updateTime.Add(drift)
	return Context{
		DeviceID: deviceID,
		Latest: &navstate.NavState{
			UpdateTime: navTime(updateTime),
			GPSTime:    navTime(gpsTime),
		},
	}
}

func TestTimeDriftNeedsMinimumSamples(t *testing.T) {
	m := &TimeDrift{MaxClockDriftDeviation: 0.5}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < minPastMeasurements-1; i++ {
		// A wild drift on a nearly empty history must not flag.
		got := m.SpoofingIndicator(driftContext("d", base.Add(time.Duration(i)*time.Second), -10*time.Second))
		if got != 0 {
			t.Fatalf("call %d: expected 0 before enough samples accumulate, got %v", i, got)
		}
	}
}

func TestTimeDriftFlagsClockStep(t *testing.T) {
	m := &TimeDrift{MaxClockDriftDeviation: 0.5}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// A stable clock: drift stays at zero for well past the minimum
	// sample count.
	var got float64
	for i := 0; i < minPastMeasurements+5; i++ {
		got = m.SpoofingIndicator(driftContext("d", base.Add(time.Duration(i)*time.Second), 0))
		if got != 0 {
			t.Fatalf("call %d: stable clock flagged with %v", i, got)
		}
	}

	// The spoofer steps GPS time a second into the past; the fitted
	// trend predicts ~0, so expected-actual = 1 > 0.5.
	got = m.SpoofingIndicator(driftContext("d", base.Add(time.Minute), -time.Second))
	if got != 1 {
		t.Errorf("expected a backwards clock step to flag, got %v", got)
	}
}

func TestTimeDriftIgnoresOutlierInsideWindow(t *testing.T) {
	m := &TimeDrift{MaxClockDriftDeviation: 0.3}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// A stable clock with one wild sample in the middle of the window: a
	// plain least-squares fit over the whole window would lift the
	// predicted drift at the newest reading well past the deviation
	// limit, but the robust fit must reject the outlier and keep
	// tracking the flat trend.
	for i := 0; i <= 25; i++ {
		drift := time.Duration(0)
		if i == 12 {
			drift = 10 * time.Second
		}
		got := m.SpoofingIndicator(driftContext("d", base.Add(time.Duration(i)*time.Second), drift))
		if got != 0 {
			t.Fatalf("call %d: a single outlier inside the window flagged with %v", i, got)
		}
	}
}

func TestTimeDriftTracksDevicesIndependently(t *testing.T) {
	m := &TimeDrift{MaxClockDriftDeviation: 0.5}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < minPastMeasurements+5; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		m.SpoofingIndicator(driftContext("a", at, 0))
	}
	// Device b has no history yet; its first wild reading cannot flag.
	if got := m.SpoofingIndicator(driftContext("b", base, -time.Second)); got != 0 {
		t.Errorf("expected device b's fresh history to stay silent, got %v", got)
	}
}
