package gps

import (
	"testing"
	"time"

	"github.com/relabs-tech/spoofwatch/internal/navstate"
)

func TestFromNavStateFlattensFieldsAndSatellites(t *testing.T) {
	lat, lon := 50.8276, 7.3800
	prn := 7
	cn0 := 44.0
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	state := &navstate.NavState{
		UpdateTime: &at,
		Latitude:   &lat,
		Longitude:  &lon,
		Satellites: []*navstate.SatelliteState{
			{PRN: &prn, CN0: &cn0, IsVisible: true},
			nil,
		},
	}

	snap := FromNavState("10.0.0.1", state)
	if snap.DeviceID != "10.0.0.1" {
		t.Errorf("device id = %q", snap.DeviceID)
	}
	if snap.Latitude == nil || *snap.Latitude != lat {
		t.Errorf("latitude = %v, want %v", snap.Latitude, lat)
	}
	if len(snap.Satellites) != 1 {
		t.Fatalf("expected the nil satellite entry to be dropped, got %d entries", len(snap.Satellites))
	}
	if !snap.Satellites[0].IsVisible || *snap.Satellites[0].CN0 != cn0 {
		t.Errorf("unexpected satellite view: %+v", snap.Satellites[0])
	}
}

func TestFromNavStateToleratesNilState(t *testing.T) {
	snap := FromNavState("d", nil)
	if snap.DeviceID != "d" || snap.Latitude != nil {
		t.Errorf("unexpected snapshot for nil state: %+v", snap)
	}
}
