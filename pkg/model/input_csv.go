package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
)

// Files read by InputFromCsv. Availability and constraints are optional.
const (
	CoursesFile      = "courses.csv"
	TeachersFile     = "teachers.csv"
	AvailabilityFile = "availability.csv"
	RoomsFile        = "rooms.csv"
	ConstraintsFile  = "constraints.csv"
)

type csvCourse struct {
	Id                     string `csv:"id"`
	ClassId                string `csv:"class_id"`
	SubjectId              string `csv:"subject_id"`
	TeacherId              string `csv:"teacher_id"`
	WeeklyVolumeMinutes    int    `csv:"weekly_volume_minutes"`
	StandardSessionMinutes int    `csv:"standard_session_minutes"`
	CourseType             string `csv:"course_type"`
	MaxHeadcount           int    `csv:"max_headcount"`
}

type csvTeacher struct {
	Id                     string `csv:"id"`
	Name                   string `csv:"name"`
	WeeklyContractMinutes  int    `csv:"weekly_contract_minutes"`
	MaxDailyMinutes        int    `csv:"max_daily_minutes"`
	MaxConsecutiveSessions int    `csv:"max_consecutive_sessions"`
	TimePreference         string `csv:"time_preference"`
}

type csvAvailability struct {
	TeacherId string `csv:"teacher_id"`
	Day       string `csv:"day"`
	Start     string `csv:"start"`
	End       string `csv:"end"`
	Available bool   `csv:"available"`
}

type csvRoom struct {
	Id        string `csv:"id"`
	Capacity  int    `csv:"capacity"`
	RoomType  string `csv:"room_type"`
	Building  string `csv:"building"`
	Equipment string `csv:"equipment"` // Semicolon separated
}

type csvConstraint struct {
	Id            string  `csv:"id"`
	Name          string  `csv:"name"`
	Severity      string  `csv:"severity"`
	Category      string  `csv:"category"`
	Weight        float64 `csv:"weight"`
	SeverityLevel int     `csv:"severity_level"`
	Parameters    string  `csv:"parameters"` // key=value pairs separated by semicolons, list values separated by "|"
	Active        string  `csv:"active"`
}

// InputFromCsv reads a directory holding one csv file per record kind
func InputFromCsv(directory string) (Input, error) {
	var rawInput RawInput

	courses := []*csvCourse{}
	if err := unmarshalCsv(filepath.Join(directory, CoursesFile), &courses, false); err != nil {
		return Input{}, err
	}
	rawInput.Courses = lo.Map(courses, func(course *csvCourse, _ int) RawCourse { return RawCourse(*course) })

	teachers := []*csvTeacher{}
	if err := unmarshalCsv(filepath.Join(directory, TeachersFile), &teachers, false); err != nil {
		return Input{}, err
	}
	availability := []*csvAvailability{}
	if err := unmarshalCsv(filepath.Join(directory, AvailabilityFile), &availability, true); err != nil {
		return Input{}, err
	}
	intervals := lo.GroupBy(availability, func(row *csvAvailability) string { return row.TeacherId })
	rawInput.Teachers = lo.Map(teachers, func(teacher *csvTeacher, _ int) RawTeacher {
		return RawTeacher{
			Id:                     teacher.Id,
			Name:                   teacher.Name,
			WeeklyContractMinutes:  teacher.WeeklyContractMinutes,
			MaxDailyMinutes:        teacher.MaxDailyMinutes,
			MaxConsecutiveSessions: teacher.MaxConsecutiveSessions,
			TimePreference:         teacher.TimePreference,
			Availability: lo.Map(intervals[teacher.Id], func(row *csvAvailability, _ int) RawInterval {
				return RawInterval{Day: row.Day, Start: row.Start, End: row.End, Available: row.Available}
			}),
		}
	})

	rooms := []*csvRoom{}
	if err := unmarshalCsv(filepath.Join(directory, RoomsFile), &rooms, false); err != nil {
		return Input{}, err
	}
	rawInput.Rooms = lo.Map(rooms, func(room *csvRoom, _ int) RawRoom {
		return RawRoom{
			Id:        room.Id,
			Capacity:  room.Capacity,
			RoomType:  room.RoomType,
			Building:  room.Building,
			Equipment: splitList(room.Equipment, ";"),
		}
	})

	constraints := []*csvConstraint{}
	if err := unmarshalCsv(filepath.Join(directory, ConstraintsFile), &constraints, true); err != nil {
		return Input{}, err
	}
	for _, constraint := range constraints {
		active := true
		if constraint.Active != "" {
			parsed, err := strconv.ParseBool(constraint.Active)
			if err != nil {
				return Input{}, ConstraintDefinitionError{ConstraintId: constraint.Id, Name: constraint.Name, Err: err}
			}
			active = parsed
		}
		rawInput.Constraints = append(rawInput.Constraints, RawConstraint{
			Id:            constraint.Id,
			Name:          constraint.Name,
			Severity:      constraint.Severity,
			Category:      constraint.Category,
			Weight:        constraint.Weight,
			SeverityLevel: constraint.SeverityLevel,
			Parameters:    parseParameters(constraint.Parameters),
			Active:        &active,
		})
	}

	return ProcessRawInput(rawInput)
}

func unmarshalCsv[T any](path string, out *[]*T, optional bool) error {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && optional {
		return nil
	} else if err != nil {
		return InputError{Field: filepath.Base(path), Err: err}
	}
	defer file.Close()

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return InputError{Field: filepath.Base(path), Err: fmt.Errorf("cannot parse csv: %w", err)}
	}
	return nil
}

// Parameter values are kept as strings (or string lists); rule loading decodes them weakly
func parseParameters(raw string) map[string]any {
	parameters := make(map[string]any)
	for _, pair := range splitList(raw, ";") {
		key, value, _ := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if strings.Contains(value, "|") {
			parameters[key] = splitList(value, "|")
		} else {
			parameters[key] = strings.TrimSpace(value)
		}
	}
	return parameters
}

func splitList(raw, separator string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, separator), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
