package domain

import (
	"slices"

	"github.com/limaJavier/termtable/pkg/model"
)

// Compatibility lists the room types a course type may be taught in.
// Course types missing from the table are not restricted.
type Compatibility map[model.CourseType][]string

func DefaultCompatibility() Compatibility {
	return Compatibility{
		model.Lecture:  {"amphitheater", "classroom"},
		model.Tutorial: {"classroom", "computer"},
		model.Lab:      {"laboratory", "computer", "workshop"},
	}
}

func (compatibility Compatibility) Allows(courseType model.CourseType, roomType string) bool {
	roomTypes, ok := compatibility[courseType]
	return !ok || slices.Contains(roomTypes, roomType)
}
