package availability

// TimeSlot is a bookable start time with every station free for the full
// service duration at that time. The caller may pick a station; when it does
// not, the first one wins (stations arrive in sort order).
type TimeSlot struct {
	Time       string  `json:"time"` // 15:04
	StationIDs []int64 `json:"station_ids"`
}

type AvailableDay struct {
	Date  string     `json:"date"` // 2006-01-02
	Slots []TimeSlot `json:"slots"`
}
