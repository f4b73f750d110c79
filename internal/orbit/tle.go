// Package orbit propagates GPS satellite two-line elements to a
// topocentric elevation/azimuth for a given observer and time. It
// implements a simplified (unperturbed) Keplerian propagator rather than
// a full SGP4 model: good enough to sanity-check a receiver's claimed
// satellite geometry against where the constellation should actually be,
// not to fly a mission with.
package orbit

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// TLE holds the orbital elements extracted from a two-line element set
// for one satellite, identified by its PRN (not its NORAD catalog
// number, matching how the detection methods name satellites).
type TLE struct {
	PRN int

	Epoch               time.Time
	InclinationRad      float64
	RAANRad             float64
	Eccentricity        float64
	ArgPerigeeRad       float64
	MeanAnomalyRad      float64
	MeanMotionRadPerSec float64
}

// ParseTLE parses a standard two-line element set for the satellite
// identified by prn.
func ParseTLE(prn int, line1, line2 string) (*TLE, error) {
	if len(line1) < 69 || len(line2) < 69 {
		return nil, fmt.Errorf("orbit: tle lines too short for prn %d", prn)
	}

	epochYear, err := strconv.Atoi(strings.TrimSpace(line1[18:20]))
	if err != nil {
		return nil, fmt.Errorf("orbit: parsing epoch year: %w", err)
	}
	epochDay, err := strconv.ParseFloat(strings.TrimSpace(line1[20:32]), 64)
	if err != nil {
		return nil, fmt.Errorf("orbit: parsing epoch day: %w", err)
	}
	year := 1900 + epochYear
	if epochYear < 57 {
		year += 100
	}
	epoch := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).
		Add(time.Duration((epochDay - 1) * 24 * float64(time.Hour)))

	inclinationDeg, err := strconv.ParseFloat(strings.TrimSpace(line2[8:16]), 64)
	if err != nil {
		return nil, fmt.Errorf("orbit: parsing inclination: %w", err)
	}
	raanDeg, err := strconv.ParseFloat(strings.TrimSpace(line2[17:25]), 64)
	if err != nil {
		return nil, fmt.Errorf("orbit: parsing raan: %w", err)
	}
	eccentricity, err := strconv.ParseFloat("0."+strings.TrimSpace(line2[26:33]), 64)
	if err != nil {
		return nil, fmt.Errorf("orbit: parsing eccentricity: %w", err)
	}
	argPerigeeDeg, err := strconv.ParseFloat(strings.TrimSpace(line2[34:42]), 64)
	if err != nil {
		return nil, fmt.Errorf("orbit: parsing argument of perigee: %w", err)
	}
	meanAnomalyDeg, err := strconv.ParseFloat(strings.TrimSpace(line2[43:51]), 64)
	if err != nil {
		return nil, fmt.Errorf("orbit: parsing mean anomaly: %w", err)
	}
	meanMotionRevPerDay, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil {
		return nil, fmt.Errorf("orbit: parsing mean motion: %w", err)
	}

	return &TLE{
		PRN:                 prn,
		Epoch:               epoch,
		InclinationRad:      inclinationDeg * math.Pi / 180,
		RAANRad:             raanDeg * math.Pi / 180,
		Eccentricity:        eccentricity,
		ArgPerigeeRad:       argPerigeeDeg * math.Pi / 180,
		MeanAnomalyRad:      meanAnomalyDeg * math.Pi / 180,
		MeanMotionRadPerSec: meanMotionRevPerDay * 2 * math.Pi / 86400,
	}, nil
}

// LoadCatalog reads a catalog file of PRN/line1/line2 triplets, one
// satellite per three lines, and returns every TLE it contains.
func LoadCatalog(path string) ([]*TLE, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("orbit: opening %s: %w", path, err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog reads the same triplet format as LoadCatalog from r.
func ParseCatalog(r io.Reader) ([]*TLE, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("orbit: reading catalog: %w", err)
	}
	if len(lines)%3 != 0 {
		return nil, fmt.Errorf("orbit: catalog has %d lines, not a multiple of 3", len(lines))
	}

	var tles []*TLE
	for i := 0; i < len(lines); i += 3 {
		prn, err := strconv.Atoi(strings.TrimSpace(lines[i]))
		if err != nil {
			return nil, fmt.Errorf("orbit: parsing prn at line %d: %w", i+1, err)
		}
		tle, err := ParseTLE(prn, lines[i+1], lines[i+2])
		if err != nil {
			return nil, err
		}
		tles = append(tles, tle)
	}
	return tles, nil
}

// Catalog is a lookup of TLEs by PRN.
type Catalog struct {
	byPRN map[int]*TLE
}

// NewCatalog indexes tles by PRN.
func NewCatalog(tles []*TLE) *Catalog {
	c := &Catalog{byPRN: make(map[int]*TLE, len(tles))}
	for _, t := range tles {
		c.byPRN[t.PRN] = t
	}
	return c
}

// TLE returns the element set for prn, or nil if the catalog has none.
func (c *Catalog) TLE(prn int) *TLE {
	return c.byPRN[prn]
}
