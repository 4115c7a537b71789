package model

// SurveySatellite identifies the orbital survey asset whose TLE is
// propagated each tick to annotate scan events with a ground subpoint.
// Empty TLE lines mean no propagation; scans then carry no position.
type SurveySatellite struct {
	Name     string `json:"name"`
	TLELine1 string `json:"tle_line1"`
	TLELine2 string `json:"tle_line2"`
}

// HasTLE reports whether both element set lines are present.
func (s SurveySatellite) HasTLE() bool {
	return s.TLELine1 != "" && s.TLELine2 != ""
}
