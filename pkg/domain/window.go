package domain

import (
	"fmt"

	"github.com/limaJavier/termtable/pkg/model"
	"github.com/samber/lo"
)

// Window is the weekly operating window sessions may be placed in
type Window struct {
	Days        []int
	Start       model.Clock
	End         model.Clock
	Granularity int // Minutes between two consecutive start times
}

func DefaultWindow() Window {
	return Window{
		Days:        []int{0, 1, 2, 3, 4},
		Start:       8 * 60,
		End:         18 * 60,
		Granularity: 60,
	}
}

func (window Window) Validate() error {
	if len(window.Days) == 0 {
		return fmt.Errorf("operating window must contain at least one day")
	} else if duplicates := lo.FindDuplicates(window.Days); len(duplicates) > 0 {
		return fmt.Errorf("operating window repeats days %v", duplicates)
	} else if lo.SomeBy(window.Days, func(day int) bool { _, ok := model.Days[day]; return !ok }) {
		return fmt.Errorf("operating window days must be between 0 (Monday) and 6 (Sunday): %v", window.Days)
	} else if window.End <= window.Start {
		return fmt.Errorf("operating window end %v must be after start %v", window.End, window.Start)
	} else if window.Granularity <= 0 {
		return fmt.Errorf("granularity must be positive: %v", window.Granularity)
	} else if int(window.End-window.Start)%window.Granularity != 0 {
		return fmt.Errorf("operating window length must be a multiple of the granularity (%v minutes)", window.Granularity)
	}
	return nil
}

// CellsPerDay is the number of granularity cells in a single day
func (window Window) CellsPerDay() int {
	return int(window.End-window.Start) / window.Granularity
}

// TotalSlots is the number of granularity cells in the whole week
func (window Window) TotalSlots() int {
	return len(window.Days) * window.CellsPerDay()
}

// Starts lists the start times at which a session of the given duration fits in a day
func (window Window) Starts(duration int) []model.Clock {
	starts := make([]model.Clock, 0, window.CellsPerDay())
	for start := window.Start; start+model.Clock(duration) <= window.End; start += model.Clock(window.Granularity) {
		starts = append(starts, start)
	}
	return starts
}

// Cells returns the cells (day position, cell index) covered by a slot, ignoring any part outside the window
func (window Window) Cells(slot model.Slot) [][2]int {
	dayIndex := lo.IndexOf(window.Days, slot.Day)
	if dayIndex < 0 {
		return nil
	}
	cells := make([][2]int, 0)
	for cell := range window.CellsPerDay() {
		cellStart := window.Start + model.Clock(cell*window.Granularity)
		cellEnd := cellStart + model.Clock(window.Granularity)
		if slot.Start < cellEnd && cellStart < slot.End {
			cells = append(cells, [2]int{dayIndex, cell})
		}
	}
	return cells
}
