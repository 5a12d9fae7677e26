package availability

import (
	"time"

	"carwash/internal/domain"
)

const defaultGridStep = 15

// GridInput is everything Generate needs. It is a pure function over this
// value: no I/O, no clock reads, fully deterministic for fixed inputs.
type GridInput struct {
	Settings        domain.BookingSettings
	DurationMinutes int
	RequiredType    *domain.StationType
	Stations        []domain.Station
	Blocks          []domain.StationBlock
	Now             time.Time

	// ExcludeReservationID drops that reservation's own block from the
	// conflict check when recomputing slots for a reschedule.
	ExcludeReservationID int64
}

type interval struct {
	start, end int
}

// Generate walks the booking horizon and emits, per open day, every grid-step
// start time at which at least one compatible station is free for the full
// duration. Days without a single slot are omitted.
func Generate(in GridInput) ([]AvailableDay, error) {
	if in.DurationMinutes <= 0 {
		return nil, ErrValidation
	}
	step := in.Settings.GridStepMinutes
	if step <= 0 {
		step = defaultGridStep
	}

	compatible := domain.CompatibleStations(in.Stations, in.RequiredType)
	if len(compatible) == 0 {
		return nil, nil
	}

	blocksByDate, err := indexBlocks(in.Blocks, in.ExcludeReservationID)
	if err != nil {
		return nil, err
	}

	var days []AvailableDay
	for offset := 0; offset < in.Settings.HorizonDays; offset++ {
		day := in.Now.AddDate(0, 0, offset)
		openMin, closeMin, open, err := in.Settings.OpenClose(day.Weekday())
		if err != nil {
			return nil, err
		}
		if !open {
			continue
		}

		earliest := openMin
		if offset == 0 {
			// Same-day bookings respect the lead time, rounded up to
			// the next grid step.
			nowMin := in.Now.Hour()*60 + in.Now.Minute()
			fromNow := ceilToStep(nowMin+in.Settings.LeadTimeMinutes, step)
			if fromNow > earliest {
				earliest = fromNow
			}
		}

		date := day.Format(domain.DateLayout)
		stationBlocks := blocksByDate[date]

		var slots []TimeSlot
		for start := earliest; start+in.DurationMinutes <= closeMin; start += step {
			end := start + in.DurationMinutes

			var free []int64
			for _, st := range compatible {
				if !overlapsAny(stationBlocks[st.ID], start, end) {
					free = append(free, st.ID)
				}
			}
			if len(free) > 0 {
				slots = append(slots, TimeSlot{Time: domain.FormatClock(start), StationIDs: free})
			}
		}

		if len(slots) > 0 {
			days = append(days, AvailableDay{Date: date, Slots: slots})
		}
	}
	return days, nil
}

func indexBlocks(blocks []domain.StationBlock, exclude int64) (map[string]map[int64][]interval, error) {
	out := make(map[string]map[int64][]interval)
	for _, b := range blocks {
		if exclude != 0 && b.ReservationID != nil && *b.ReservationID == exclude {
			continue
		}
		start, err := domain.ParseClock(b.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := domain.ParseClock(b.EndTime)
		if err != nil {
			return nil, err
		}
		byStation := out[b.Date]
		if byStation == nil {
			byStation = make(map[int64][]interval)
			out[b.Date] = byStation
		}
		byStation[b.StationID] = append(byStation[b.StationID], interval{start: start, end: end})
	}
	return out, nil
}

// overlapsAny uses the half-open test: a block conflicts with [start, end)
// iff blockStart < end && blockEnd > start. Back-to-back slots never clash.
func overlapsAny(ivs []interval, start, end int) bool {
	for _, iv := range ivs {
		if iv.start < end && iv.end > start {
			return true
		}
	}
	return false
}

func ceilToStep(minute, step int) int {
	return (minute + step - 1) / step * step
}
