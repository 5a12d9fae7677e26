package domain

// StationType tags a washing bay. The universal type is a wildcard: it serves
// any service regardless of the service's required type.
type StationType string

const (
	StationTypeUniversal StationType = "universal"
	StationTypeHandWash  StationType = "hand_wash"
	StationTypeAutomatic StationType = "automatic"
	StationTypeDetailing StationType = "detailing"
)

type Station struct {
	ID         int64       `json:"id" gorm:"primaryKey"`
	InstanceID int64       `json:"instance_id" gorm:"index"`
	Name       string      `json:"name"`
	Type       StationType `json:"type"`
	Active     bool        `json:"active"`
	SortOrder  int         `json:"sort_order"`
}

// CanServe reports whether the station may host a service with the given
// required type. A nil requirement means the service runs on any station.
func (s Station) CanServe(required *StationType) bool {
	if !s.Active {
		return false
	}
	if required == nil {
		return true
	}
	return s.Type == *required || s.Type == StationTypeUniversal
}

// CompatibleStations filters stations by service compatibility, preserving
// the input order.
func CompatibleStations(stations []Station, required *StationType) []Station {
	out := make([]Station, 0, len(stations))
	for _, st := range stations {
		if st.CanServe(required) {
			out = append(out, st)
		}
	}
	return out
}
