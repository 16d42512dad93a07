package constraint

import "fmt"

// Kind is the closed set of rules the engine knows how to evaluate
type Kind int

const (
	MinGap Kind = iota
	SameDay
	DaySpread
	FixedRoom
	TeacherAvailability
	RequiredEquipment
	MaxConsecutive
	TeacherWeeklyLoad
	TeacherDailyLoad
	TimePreference
	NoOverlap
)

var kindNames = []string{
	MinGap:              "min_gap",
	SameDay:             "same_day",
	DaySpread:           "day_spread",
	FixedRoom:           "fixed_room",
	TeacherAvailability: "teacher_availability",
	RequiredEquipment:   "required_equipment",
	MaxConsecutive:      "max_consecutive",
	TeacherWeeklyLoad:   "teacher_weekly_load",
	TeacherDailyLoad:    "teacher_daily_load",
	TimePreference:      "time_preference",
	NoOverlap:           "no_overlap",
}

func (kind Kind) String() string {
	if kind < 0 || int(kind) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(kind))
	}
	return kindNames[kind]
}

// ParseKind maps a rule name to its kind. Unknown names are an error, never a silent no-op.
func ParseKind(name string) (Kind, error) {
	for kind, kindName := range kindNames {
		if kindName == name {
			return Kind(kind), nil
		}
	}
	return 0, fmt.Errorf("unknown rule %q", name)
}

// Static rules only look at one placement at a time
func (kind Kind) Static() bool {
	switch kind {
	case FixedRoom, TeacherAvailability, RequiredEquipment, TimePreference:
		return true
	default:
		return false
	}
}

// Pairwise rules are decided by looking at two placements at a time
func (kind Kind) Pairwise() bool {
	switch kind {
	case MinGap, SameDay, NoOverlap:
		return true
	default:
		return false
	}
}
