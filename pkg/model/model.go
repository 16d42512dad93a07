package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a minute of the day, 0 being midnight
type Clock int

func (clock Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(clock)/60, int(clock)%60)
}

func (clock Clock) MarshalText() ([]byte, error) {
	return []byte(clock.String()), nil
}

func (clock *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*clock = parsed
	return nil
}

// ParseClock reads an "HH:MM" string
func ParseClock(value string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q: expected HH:MM", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("invalid clock %q: bad hours", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("invalid clock %q: bad minutes", value)
	}
	return Clock(hours*60 + minutes), nil
}

var Days = map[int]string{
	0: "Monday",
	1: "Tuesday",
	2: "Wednesday",
	3: "Thursday",
	4: "Friday",
	5: "Saturday",
	6: "Sunday",
}

// ParseDay accepts a day index ("0".."6"), a full english name or its three letter abbreviation
func ParseDay(value string) (int, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if index, err := strconv.Atoi(value); err == nil {
		if _, ok := Days[index]; ok {
			return index, nil
		}
		return 0, fmt.Errorf("invalid day %q", value)
	}
	for index, name := range Days {
		name = strings.ToLower(name)
		if value == name || value == name[:3] {
			return index, nil
		}
	}
	return 0, fmt.Errorf("invalid day %q", value)
}

type CourseType string

const (
	Lecture  CourseType = "lecture"
	Tutorial CourseType = "tutorial"
	Lab      CourseType = "lab"
)

type TimePreference string

const (
	Morning     TimePreference = "morning"
	Afternoon   TimePreference = "afternoon"
	Indifferent TimePreference = "indifferent"
)

type Course struct {
	Id                     string
	ClassId                string
	SubjectId              string
	TeacherId              string
	WeeklyVolumeMinutes    int
	StandardSessionMinutes int
	CourseType             CourseType
	MaxHeadcount           int
}

// Sessions returns how many weekly meetings the course expands into
func (course Course) Sessions() int {
	if course.StandardSessionMinutes <= 0 {
		return 0
	}
	return (course.WeeklyVolumeMinutes + course.StandardSessionMinutes - 1) / course.StandardSessionMinutes
}

type AvailabilityInterval struct {
	Day       int
	Start     Clock
	End       Clock
	Available bool
}

type Teacher struct {
	Id                     string
	Name                   string
	WeeklyContractMinutes  int
	MaxDailyMinutes        int
	MaxConsecutiveSessions int
	TimePreference         TimePreference
	Availability           []AvailabilityInterval
}

// AvailableFor reports whether the teacher can teach on day between start and end.
// Without availability records a teacher is always available. Available intervals only
// restrict the teacher when at least one of them is present.
func (teacher Teacher) AvailableFor(day int, start, end Clock) bool {
	contained, restricted := false, false
	for _, interval := range teacher.Availability {
		if interval.Available {
			restricted = true
			if interval.Day == day && interval.Start <= start && end <= interval.End {
				contained = true
			}
			continue
		}
		if interval.Day == day && start < interval.End && interval.Start < end {
			return false
		}
	}
	return contained || !restricted
}

type Room struct {
	Id        string
	Capacity  int
	RoomType  string
	Building  string
	Equipment []string
}

type Severity string

const (
	Hard Severity = "HARD"
	Soft Severity = "SOFT"
)

type Category string

const (
	Temporal    Category = "temporal"
	Resource    Category = "resource"
	Pedagogical Category = "pedagogical"
	Regulatory  Category = "regulatory"
)

type Constraint struct {
	Id            string
	Name          string
	Severity      Severity
	Category      Category
	Weight        float64
	SeverityLevel int
	Parameters    map[string]any
	Active        bool
}

type Session struct {
	Id              string
	CourseId        string
	TeacherId       string
	ClassId         string
	DurationMinutes int
	CourseType      CourseType
	SequenceIndex   int
}

type Slot struct {
	Day   int   `json:"day"`
	Start Clock `json:"startTime"`
	End   Clock `json:"endTime"`
}

// Overlaps reports whether both slots share the same day and intersect in time
func (slot Slot) Overlaps(other Slot) bool {
	return slot.Day == other.Day && slot.Start < other.End && other.Start < slot.End
}

func (slot Slot) String() string {
	return fmt.Sprintf("%v %v-%v", Days[slot.Day], slot.Start, slot.End)
}

type Placement struct {
	Slot
	RoomId string `json:"roomId"`
}

type Assignment struct {
	SessionId string `json:"sessionId"`
	Placement
}

type Solution []Assignment

type Input struct {
	Courses     []Course
	Teachers    []Teacher
	Rooms       []Room
	Constraints []Constraint
}
