package core

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// OrbitalSurveyor propagates the survey satellite's TLE with SGP4 and
// reports its ground subpoint, used to annotate orbital scan events.
type OrbitalSurveyor struct {
	Name string
	sat  satellite.Satellite
}

// NewOrbitalSurveyor constructs a surveyor from TLE lines.
func NewOrbitalSurveyor(name, line1, line2 string) *OrbitalSurveyor {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &OrbitalSurveyor{Name: name, sat: sat}
}

// Subpoint propagates the satellite to simTime and returns the geocentric
// latitude and longitude of the point beneath it, in degrees.
func (o *OrbitalSurveyor) Subpoint(simTime time.Time) (latDeg, lonDeg float64) {
	year, month, day := simTime.Date()
	hour, min, sec := simTime.Clock()

	posECI, _ := satellite.Propagate(o.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	return Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}.LatLonDeg()
}

// Annotate renders the position suffix appended to a scan log line, e.g.
// " (EZ-SURVEY-1 @ 12.3N 45.6E)".
func (o *OrbitalSurveyor) Annotate(simTime time.Time) string {
	lat, lon := o.Subpoint(simTime)
	latHemi, lonHemi := "N", "E"
	if lat < 0 {
		lat, latHemi = -lat, "S"
	}
	if lon < 0 {
		lon, lonHemi = -lon, "W"
	}
	return fmt.Sprintf(" (%s @ %.1f%s %.1f%s)", o.Name, lat, latHemi, lon, lonHemi)
}
