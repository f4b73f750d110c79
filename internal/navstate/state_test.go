package navstate

import "testing"

func floatp(v float64) *float64 { return &v }
func intp(v int) *int           { return &v }

func TestIsSufficientlyDefined(t *testing.T) {
	tests := []struct {
		name   string
		state  *NavState
		fields []Field
		want   bool
	}{
		{"nil state", nil, []Field{FieldLatitude}, false},
		{"no fields required", &NavState{}, nil, true},
		{"missing field", &NavState{Latitude: floatp(1)}, []Field{FieldLatitude, FieldLongitude}, false},
		{"all present", &NavState{Latitude: floatp(1), Longitude: floatp(2)}, []Field{FieldLatitude, FieldLongitude}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSufficientlyDefined(tt.state, tt.fields); got != tt.want {
				t.Errorf("IsSufficientlyDefined() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDifferent(t *testing.T) {
	a := &NavState{Course: floatp(10)}
	b := &NavState{Course: floatp(10)}
	c := &NavState{Course: floatp(20)}

	if IsDifferent(a, b, []Field{FieldCourse}) {
		t.Errorf("expected equal course states to not be different")
	}
	if !IsDifferent(a, c, []Field{FieldCourse}) {
		t.Errorf("expected differing course states to be different")
	}
	if !IsDifferent(a, b, nil) {
		t.Errorf("empty variable field list must always report different")
	}
}

func TestStateHistoryAddTrimsWindow(t *testing.T) {
	h := NewStateHistory(0)
	base := mustTime(t, "2024-01-01T00:00:00Z")

	h.Add(&NavState{UpdateTime: timeAt(base, 0)})
	h.Add(&NavState{UpdateTime: timeAt(base, 3)})
	h.Add(&NavState{UpdateTime: timeAt(base, 6)}) // 6s newer than the first; window is 5s

	if h.Len() != 2 {
		t.Fatalf("expected window to drop the oldest snapshot, got %d entries", h.Len())
	}
	if h.State(0).UpdateTime.Sub(base).Seconds() != 6 {
		t.Errorf("State(0) should be the newest snapshot")
	}
}

func TestStateHistoryLookups(t *testing.T) {
	h := NewStateHistory(0)
	base := mustTime(t, "2024-01-01T00:00:00Z")
	h.Add(&NavState{UpdateTime: timeAt(base, 0)})
	h.Add(&NavState{UpdateTime: timeAt(base, 1)})
	h.Add(&NavState{UpdateTime: timeAt(base, 2)})

	if got := h.State(5); got != nil {
		t.Errorf("State(5) out of range should be nil, got %v", got)
	}

	before := h.StateBefore(*timeAt(base, 1))
	if before == nil || before.UpdateTime.Sub(base).Seconds() != 1 {
		t.Errorf("StateBefore(1s) should return the 1s snapshot")
	}

	after := h.StateAfter(*timeAt(base, 1))
	if after == nil || after.UpdateTime.Sub(base).Seconds() != 1 {
		t.Errorf("StateAfter(1s) should return the 1s snapshot")
	}
}

func TestNavStateCloneIsIndependent(t *testing.T) {
	s := &NavState{Latitude: floatp(1)}
	c := s.Clone()
	*c.Latitude = 99
	if *s.Latitude != 1 {
		t.Errorf("mutating the clone must not affect the original")
	}
}

func TestUpsertSatellite(t *testing.T) {
	s := &NavState{}
	sat := s.UpsertSatellite(12)
	sat.IsVisible = true
	again := s.UpsertSatellite(12)
	if again != sat {
		t.Errorf("UpsertSatellite should return the existing entry for a known PRN")
	}
	if len(s.Satellites) != 1 {
		t.Errorf("expected exactly one satellite entry, got %d", len(s.Satellites))
	}
}
