// Package navstate holds the reconstructed receiver state that the NMEA
// parser folds sentences into, and the bounded-time window of snapshots
// the detection engine keeps per device.
package navstate

import "time"

// SatelliteField names one optional field of SatelliteState. Detection
// methods declare which fields they require as a list of these, the same
// way the original Python implementation names attributes by string.
type SatelliteField string

const (
	SatFieldPRN       SatelliteField = "prn"
	SatFieldElevation SatelliteField = "elevation"
	SatFieldAzimuth   SatelliteField = "azimuth"
	SatFieldCN0       SatelliteField = "cn0"
	SatFieldIsVisible SatelliteField = "is_visible"
	SatFieldIsActive  SatelliteField = "is_active"
)

// SatelliteState is one satellite entry known to a device. At most one
// entry exists per PRN within a NavState.
type SatelliteState struct {
	PRN       *int
	Elevation *float64
	Azimuth   *float64
	CN0       *float64
	IsVisible bool
	IsActive  bool
}

// Defined reports whether the named field currently holds a value.
func (s *SatelliteState) Defined(f SatelliteField) bool {
	if s == nil {
		return false
	}
	switch f {
	case SatFieldPRN:
		return s.PRN != nil
	case SatFieldElevation:
		return s.Elevation != nil
	case SatFieldAzimuth:
		return s.Azimuth != nil
	case SatFieldCN0:
		return s.CN0 != nil
	case SatFieldIsVisible:
		return true // bool fields are always "defined"; gating relies on the value itself
	case SatFieldIsActive:
		return true
	default:
		return false
	}
}

func (s *SatelliteState) clone() *SatelliteState {
	if s == nil {
		return nil
	}
	c := *s
	if s.PRN != nil {
		v := *s.PRN
		c.PRN = &v
	}
	if s.Elevation != nil {
		v := *s.Elevation
		c.Elevation = &v
	}
	if s.Azimuth != nil {
		v := *s.Azimuth
		c.Azimuth = &v
	}
	if s.CN0 != nil {
		v := *s.CN0
		c.CN0 = &v
	}
	return &c
}

// IsSatelliteSufficientlyDefined reports whether s is non-nil and every
// named field holds a value.
func IsSatelliteSufficientlyDefined(s *SatelliteState, fields []SatelliteField) bool {
	if s == nil {
		return false
	}
	for _, f := range fields {
		if !s.Defined(f) {
			return false
		}
	}
	return true
}

// Field names one optional field of NavState.
type Field string

const (
	FieldUpdateTime          Field = "update_time"
	FieldLastSentence        Field = "last_sentence"
	FieldGPSTime             Field = "gps_time"
	FieldLatitude            Field = "latitude"
	FieldLongitude           Field = "longitude"
	FieldHeightAboveSeaLevel Field = "height_above_sea_level"
	FieldSpeed               Field = "speed"
	FieldCourse              Field = "course"
	FieldMagneticDeclination Field = "magnetic_declination"
	FieldGeoidalSeparation   Field = "geoidal_separation"
	FieldPositionalDOP       Field = "positional_dilution_of_precision"
	FieldHorizontalDOP       Field = "horizontal_dilution_of_precision"
	FieldVerticalDOP         Field = "vertical_dilution_of_precision"
	FieldGPSQuality          Field = "gps_quality"
	FieldSatellites          Field = "satellites"
)

// NavState is the reconstructed receiver state after folding in the last
// N compatible NMEA sentences. Every navigation field is optional until a
// sentence populates it.
type NavState struct {
	UpdateTime          *time.Time
	LastSentence        *string
	GPSTime             *time.Time
	Latitude            *float64
	Longitude           *float64
	HeightAboveSeaLevel *float64
	Speed               *float64
	Course              *float64
	MagneticDeclination *float64
	GeoidalSeparation   *float64
	PositionalDOP       *float64
	HorizontalDOP       *float64
	VerticalDOP         *float64
	GPSQuality          *int
	Satellites          []*SatelliteState
}

// Defined reports whether the named field currently holds a value.
func (s *NavState) Defined(f Field) bool {
	if s == nil {
		return false
	}
	switch f {
	case FieldUpdateTime:
		return s.UpdateTime != nil
	case FieldLastSentence:
		return s.LastSentence != nil
	case FieldGPSTime:
		return s.GPSTime != nil
	case FieldLatitude:
		return s.Latitude != nil
	case FieldLongitude:
		return s.Longitude != nil
	case FieldHeightAboveSeaLevel:
		return s.HeightAboveSeaLevel != nil
	case FieldSpeed:
		return s.Speed != nil
	case FieldCourse:
		return s.Course != nil
	case FieldMagneticDeclination:
		return s.MagneticDeclination != nil
	case FieldGeoidalSeparation:
		return s.GeoidalSeparation != nil
	case FieldPositionalDOP:
		return s.PositionalDOP != nil
	case FieldHorizontalDOP:
		return s.HorizontalDOP != nil
	case FieldVerticalDOP:
		return s.VerticalDOP != nil
	case FieldGPSQuality:
		return s.GPSQuality != nil
	case FieldSatellites:
		return s.Satellites != nil
	default:
		return false
	}
}

// equalValue reports whether field f holds the same value on s and other.
// Used by IsDifferent; two undefined fields compare equal.
func (s *NavState) equalValue(f Field, other *NavState) bool {
	switch f {
	case FieldUpdateTime:
		return timeEqual(s.UpdateTime, other.UpdateTime)
	case FieldLastSentence:
		return strPtrEqual(s.LastSentence, other.LastSentence)
	case FieldGPSTime:
		return timeEqual(s.GPSTime, other.GPSTime)
	case FieldLatitude:
		return floatPtrEqual(s.Latitude, other.Latitude)
	case FieldLongitude:
		return floatPtrEqual(s.Longitude, other.Longitude)
	case FieldHeightAboveSeaLevel:
		return floatPtrEqual(s.HeightAboveSeaLevel, other.HeightAboveSeaLevel)
	case FieldSpeed:
		return floatPtrEqual(s.Speed, other.Speed)
	case FieldCourse:
		return floatPtrEqual(s.Course, other.Course)
	case FieldMagneticDeclination:
		return floatPtrEqual(s.MagneticDeclination, other.MagneticDeclination)
	case FieldGeoidalSeparation:
		return floatPtrEqual(s.GeoidalSeparation, other.GeoidalSeparation)
	case FieldPositionalDOP:
		return floatPtrEqual(s.PositionalDOP, other.PositionalDOP)
	case FieldHorizontalDOP:
		return floatPtrEqual(s.HorizontalDOP, other.HorizontalDOP)
	case FieldVerticalDOP:
		return floatPtrEqual(s.VerticalDOP, other.VerticalDOP)
	case FieldGPSQuality:
		return intPtrEqual(s.GPSQuality, other.GPSQuality)
	case FieldSatellites:
		return satellitesEqual(s.Satellites, other.Satellites)
	default:
		return true
	}
}

// Clone takes an independent deep copy of s, so callers may keep mutating
// their live state after handing a snapshot to a StateHistory.
func (s *NavState) Clone() *NavState {
	if s == nil {
		return nil
	}
	c := &NavState{
		GPSQuality: intPtrCopy(s.GPSQuality),
	}
	c.UpdateTime = timePtrCopy(s.UpdateTime)
	c.LastSentence = strPtrCopy(s.LastSentence)
	c.GPSTime = timePtrCopy(s.GPSTime)
	c.Latitude = floatPtrCopy(s.Latitude)
	c.Longitude = floatPtrCopy(s.Longitude)
	c.HeightAboveSeaLevel = floatPtrCopy(s.HeightAboveSeaLevel)
	c.Speed = floatPtrCopy(s.Speed)
	c.Course = floatPtrCopy(s.Course)
	c.MagneticDeclination = floatPtrCopy(s.MagneticDeclination)
	c.GeoidalSeparation = floatPtrCopy(s.GeoidalSeparation)
	c.PositionalDOP = floatPtrCopy(s.PositionalDOP)
	c.HorizontalDOP = floatPtrCopy(s.HorizontalDOP)
	c.VerticalDOP = floatPtrCopy(s.VerticalDOP)
	if s.Satellites != nil {
		c.Satellites = make([]*SatelliteState, len(s.Satellites))
		for i, sat := range s.Satellites {
			c.Satellites[i] = sat.clone()
		}
	}
	return c
}

// SatelliteByPRN returns the satellite entry with the given PRN, or nil.
func (s *NavState) SatelliteByPRN(prn int) *SatelliteState {
	for _, sat := range s.Satellites {
		if sat.PRN != nil && *sat.PRN == prn {
			return sat
		}
	}
	return nil
}

// UpsertSatellite returns the existing entry for prn, or appends and
// returns a new one.
func (s *NavState) UpsertSatellite(prn int) *SatelliteState {
	if existing := s.SatelliteByPRN(prn); existing != nil {
		return existing
	}
	sat := &SatelliteState{PRN: &prn}
	s.Satellites = append(s.Satellites, sat)
	return sat
}

// IsSufficientlyDefined reports whether state is non-nil and every named
// field holds a value.
func IsSufficientlyDefined(state *NavState, fields []Field) bool {
	if state == nil {
		return false
	}
	for _, f := range fields {
		if !state.Defined(f) {
			return false
		}
	}
	return true
}

// IsDifferent reports whether latest differs from reference on any of
// variableFields. An empty field list always reports true (matching the
// original's "len(variable_state_fields) == 0" default).
func IsDifferent(latest, reference *NavState, variableFields []Field) bool {
	if len(variableFields) == 0 {
		return true
	}
	for _, f := range variableFields {
		if !latest.equalValue(f, reference) {
			return true
		}
	}
	return false
}

func satellitesEqual(a, b []*SatelliteState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !satelliteEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func satelliteEqual(a, b *SatelliteState) bool {
	if a == nil || b == nil {
		return a == b
	}
	return intPtrEqual(a.PRN, b.PRN) &&
		floatPtrEqual(a.Elevation, b.Elevation) &&
		floatPtrEqual(a.Azimuth, b.Azimuth) &&
		floatPtrEqual(a.CN0, b.CN0) &&
		a.IsVisible == b.IsVisible &&
		a.IsActive == b.IsActive
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrCopy(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func intPtrCopy(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func strPtrCopy(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func timePtrCopy(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
