// Package nmea folds NMEA 0183 sentences into navstate.NavState values.
// Unlike a general-purpose NMEA library, the parser here never returns a
// strongly typed sentence: every handler mutates the NavState fields the
// spoofing detector cares about and leaves the rest untouched, so a
// device's state accumulates across sentence types the way the receiver
// itself accumulates a fix.
package nmea

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/spoofwatch/internal/navstate"
)

// Sentinel errors for the parser's error taxonomy. Callers are expected
// to treat all three as "this sentence produced no state update" rather
// than fatal conditions.
var (
	// ErrInvalidSentence means the input is not well-formed NMEA: it is
	// missing the leading '$', the checksum delimiter, or the checksum
	// itself does not match.
	ErrInvalidSentence = errors.New("nmea: invalid sentence")
	// ErrUnsupportedSentence means the sentence is well-formed but no
	// handler exists for its talker/packet-type combination.
	ErrUnsupportedSentence = errors.New("nmea: unsupported sentence type")
	// ErrInactiveFix means the sentence reports an inactive/invalid fix
	// (RMC or GLL status field other than 'A') and carries no usable
	// navigation data.
	ErrInactiveFix = errors.New("nmea: fix is not active")
)

// Parse folds sentence into state, returning the updated state. state may
// be nil, in which case a fresh NavState is used as the starting point.
// On error the returned state is nil; state.UpdateTime and
// state.LastSentence are set before a handler can fail, matching the
// original parser's ordering, so a caller that ignores the error still
// sees a consistent timestamp on the next call.
func Parse(state *navstate.NavState, updateTime time.Time, sentence string) (*navstate.NavState, error) {
	body, checksum, err := splitSentence(sentence)
	if err != nil {
		return nil, err
	}
	if !checksumValid(body, checksum) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSentence, sentence)
	}

	fields := strings.Split(body, ",")
	descriptor := fields[0]
	fields = fields[1:]
	if len(descriptor) < 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSentence, sentence)
	}
	talker := strings.ToLower(descriptor[:2])
	packet := strings.ToLower(descriptor[2:])

	if state == nil {
		state = &navstate.NavState{}
	}
	state.LastSentence = &sentence
	state.UpdateTime = &updateTime

	handler, ok := handlers[talker+packet]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSentence, descriptor)
	}
	return handler(state, fields)
}

// splitSentence validates the '$...*HH' envelope and returns the body
// (between '$' and '*', exclusive) and the two-digit hex checksum.
func splitSentence(sentence string) (body string, checksum string, err error) {
	trimmed := strings.TrimRight(sentence, "\r\n")
	if len(trimmed) < 4 || trimmed[0] != '$' {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSentence, sentence)
	}
	star := strings.LastIndexByte(trimmed, '*')
	if star < 0 || star != len(trimmed)-3 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSentence, sentence)
	}
	return trimmed[1:star], trimmed[star+1:], nil
}

func checksumValid(body, checksumHex string) bool {
	want, err := strconv.ParseUint(checksumHex, 16, 8)
	if err != nil {
		return false
	}
	var got byte
	for i := 0; i < len(body); i++ {
		got ^= body[i]
	}
	return got == byte(want)
}

type handlerFunc func(state *navstate.NavState, fields []string) (*navstate.NavState, error)

var handlers = map[string]handlerFunc{
	"gprmc": parseRMC,
	"gpgga": parseGGA,
	"gpgll": parseGLL,
	"gpvtg": parseVTG,
	"gpgsa": parseGSA,
	"gpgsv": parseGSV,
}

func parseRMC(state *navstate.NavState, f []string) (*navstate.NavState, error) {
	if len(f) < 11 {
		return nil, fmt.Errorf("%w: rmc has %d fields", ErrInvalidSentence, len(f))
	}
	if f[1] != "A" {
		return nil, ErrInactiveFix
	}
	lat, lon := parseLatLon(f[2], f[3], f[4], f[5])
	speed := parseFloat(f[6])
	course := parseFloat(f[7])
	gpsTime := parseTime(f[0], f[8])
	declination := parseMagneticDeclination(f[9], f[10])

	state.Latitude = lat
	state.Longitude = lon
	state.Speed = speed
	state.Course = course
	state.GPSTime = gpsTime
	state.MagneticDeclination = declination
	return state, nil
}

func parseGGA(state *navstate.NavState, f []string) (*navstate.NavState, error) {
	if len(f) < 11 {
		return nil, fmt.Errorf("%w: gga has %d fields", ErrInvalidSentence, len(f))
	}
	lat, lon := parseLatLon(f[1], f[2], f[3], f[4])
	quality := parseInt(f[5])
	hdop := parseFloat(f[7])
	height := parseFloat(f[8])
	geoidal := parseFloat(f[10])

	state.Latitude = lat
	state.Longitude = lon
	state.GPSQuality = quality
	state.HorizontalDOP = hdop
	state.HeightAboveSeaLevel = height
	state.GeoidalSeparation = geoidal
	return state, nil
}

func parseGLL(state *navstate.NavState, f []string) (*navstate.NavState, error) {
	if len(f) < 6 {
		return nil, fmt.Errorf("%w: gll has %d fields", ErrInvalidSentence, len(f))
	}
	if f[5] != "A" {
		return nil, ErrInactiveFix
	}
	lat, lon := parseLatLon(f[0], f[1], f[2], f[3])
	state.Latitude = lat
	state.Longitude = lon
	return state, nil
}

func parseVTG(state *navstate.NavState, f []string) (*navstate.NavState, error) {
	if len(f) < 5 {
		return nil, fmt.Errorf("%w: vtg has %d fields", ErrInvalidSentence, len(f))
	}
	state.Course = parseFloat(f[0])
	state.Speed = parseFloat(f[4])
	return state, nil
}

func parseGSA(state *navstate.NavState, f []string) (*navstate.NavState, error) {
	if len(f) < 17 {
		return nil, fmt.Errorf("%w: gsa has %d fields", ErrInvalidSentence, len(f))
	}
	for _, sat := range state.Satellites {
		sat.IsActive = false
	}
	for i := 0; i < 12; i++ {
		prn := parseInt(f[2+i])
		if prn == nil {
			continue
		}
		sat := state.UpsertSatellite(*prn)
		sat.IsActive = true
	}
	state.PositionalDOP = parseFloat(f[14])
	state.HorizontalDOP = parseFloat(f[15])
	state.VerticalDOP = parseFloat(f[16])
	return state, nil
}

func parseGSV(state *navstate.NavState, f []string) (*navstate.NavState, error) {
	if len(f) < 3 {
		return nil, fmt.Errorf("%w: gsv has %d fields", ErrInvalidSentence, len(f))
	}
	messageNumber := parseInt(f[1])
	satelliteCount := parseInt(f[2])
	if messageNumber == nil || satelliteCount == nil {
		return nil, fmt.Errorf("%w: gsv missing message/satellite count", ErrInvalidSentence)
	}
	if *messageNumber == 1 {
		for _, sat := range state.Satellites {
			sat.IsVisible = false
		}
	}

	satellitesInMessage := 4
	if *messageNumber*4 > *satelliteCount {
		satellitesInMessage = *satelliteCount % 4
	}
	for i := 0; i < satellitesInMessage; i++ {
		base := 3 + i*4
		if base+3 >= len(f) {
			break
		}
		prn := parseInt(f[base])
		if prn == nil {
			continue
		}
		elevation := parseFloatFromInt(f[base+1])
		azimuth := parseFloatFromInt(f[base+2])
		cn0 := parseFloatFromInt(f[base+3])

		sat := state.UpsertSatellite(*prn)
		sat.Elevation = elevation
		sat.Azimuth = azimuth
		sat.CN0 = cn0
		sat.IsVisible = true
	}
	return state, nil
}

func parseLatLon(latValue, latDir, lonValue, lonDir string) (*float64, *float64) {
	if latValue == "" || latDir == "" || lonValue == "" || lonDir == "" {
		return nil, nil
	}
	if len(latValue) < 2 || len(lonValue) < 3 {
		return nil, nil
	}
	latDeg, err1 := strconv.Atoi(latValue[:2])
	latMin, err2 := strconv.ParseFloat(latValue[2:], 64)
	lonDeg, err3 := strconv.Atoi(lonValue[:3])
	lonMin, err4 := strconv.ParseFloat(lonValue[3:], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, nil
	}

	latSign := 1.0
	if latDir != "N" {
		latSign = -1
	}
	lonSign := 1.0
	if lonDir != "E" {
		lonSign = -1
	}
	lat := latSign * (float64(latDeg) + latMin/60)
	lon := lonSign * (float64(lonDeg) + lonMin/60)
	return &lat, &lon
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseFloatFromInt parses fields that the sentence encodes as integers
// (elevation, azimuth, C/N0 in GSV) but that the detection methods treat
// as floats.
func parseFloatFromInt(s string) *float64 {
	return parseFloat(s)
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseTime(timeField, dateField string) *time.Time {
	if timeField == "" || dateField == "" {
		return nil
	}
	t, err := time.Parse("020106150405.999", dateField+timeField)
	if err != nil {
		return nil
	}
	return &t
}

func parseMagneticDeclination(value, dir string) *float64 {
	if value == "" || dir == "" {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	if dir != "E" {
		v = -v
	}
	return &v
}
