package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

var validate = validator.New()

type RawCourse struct {
	Id                     string `mapstructure:"id" validate:"required"`
	ClassId                string `mapstructure:"classId" validate:"required"`
	SubjectId              string `mapstructure:"subjectId"`
	TeacherId              string `mapstructure:"teacherId" validate:"required"`
	WeeklyVolumeMinutes    int    `mapstructure:"weeklyVolumeMinutes" validate:"gte=0"`
	StandardSessionMinutes int    `mapstructure:"standardSessionMinutes" validate:"gt=0"`
	CourseType             string `mapstructure:"courseType" validate:"required"`
	MaxHeadcount           int    `mapstructure:"maxHeadcount" validate:"gte=0"`
}

type RawInterval struct {
	Day       string `mapstructure:"day" validate:"required"`
	Start     string `mapstructure:"start" validate:"required"`
	End       string `mapstructure:"end" validate:"required"`
	Available bool   `mapstructure:"available"`
}

type RawTeacher struct {
	Id                     string        `mapstructure:"id" validate:"required"`
	Name                   string        `mapstructure:"name"`
	WeeklyContractMinutes  int           `mapstructure:"weeklyContractMinutes" validate:"gte=0"`
	MaxDailyMinutes        int           `mapstructure:"maxDailyMinutes" validate:"gte=0"`
	MaxConsecutiveSessions int           `mapstructure:"maxConsecutiveSessions" validate:"gte=0"`
	TimePreference         string        `mapstructure:"timePreference" validate:"omitempty,oneof=morning afternoon indifferent"`
	Availability           []RawInterval `mapstructure:"availabilityIntervals" validate:"dive"`
}

type RawRoom struct {
	Id        string   `mapstructure:"id" validate:"required"`
	Capacity  int      `mapstructure:"capacity" validate:"gt=0"`
	RoomType  string   `mapstructure:"roomType" validate:"required"`
	Building  string   `mapstructure:"building"`
	Equipment []string `mapstructure:"equipment"`
}

type RawConstraint struct {
	Id            string         `mapstructure:"id" validate:"required"`
	Name          string         `mapstructure:"name" validate:"required"`
	Severity      string         `mapstructure:"severity" validate:"oneof=HARD SOFT"`
	Category      string         `mapstructure:"category" validate:"oneof=temporal resource pedagogical regulatory"`
	Weight        float64        `mapstructure:"weight" validate:"gte=0.1,lte=10"`
	SeverityLevel int            `mapstructure:"severityLevel" validate:"omitempty,gte=1,lte=10"`
	Parameters    map[string]any `mapstructure:"parameters"`
	Active        *bool          `mapstructure:"active"` // Missing means active
}

type RawInput struct {
	Courses     []RawCourse     `mapstructure:"courses"`
	Teachers    []RawTeacher    `mapstructure:"teachers"`
	Rooms       []RawRoom       `mapstructure:"rooms"`
	Constraints []RawConstraint `mapstructure:"constraints"`
}

func InputFromJson(file string) (Input, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Input{}, err
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Input{}, err
	}

	var rawInput RawInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rawInput,
		WeaklyTypedInput: true, // Days may come as numbers or names
	})
	if err != nil {
		return Input{}, err
	}
	if err := decoder.Decode(inputJson); err != nil {
		return Input{}, InputError{Field: file, Err: err}
	}
	return ProcessRawInput(rawInput)
}

// ProcessRawInput validates raw records and converts them into the immutable input snapshot
func ProcessRawInput(rawInput RawInput) (Input, error) {
	input := Input{
		Courses:     make([]Course, 0, len(rawInput.Courses)),
		Teachers:    make([]Teacher, 0, len(rawInput.Teachers)),
		Rooms:       make([]Room, 0, len(rawInput.Rooms)),
		Constraints: make([]Constraint, 0, len(rawInput.Constraints)),
	}

	for i, raw := range rawInput.Courses {
		if err := validate.Struct(raw); err != nil {
			return Input{}, InputError{Field: fmt.Sprintf("courses[%d]", i), Err: err}
		}
		input.Courses = append(input.Courses, Course{
			Id:                     raw.Id,
			ClassId:                raw.ClassId,
			SubjectId:              raw.SubjectId,
			TeacherId:              raw.TeacherId,
			WeeklyVolumeMinutes:    raw.WeeklyVolumeMinutes,
			StandardSessionMinutes: raw.StandardSessionMinutes,
			CourseType:             CourseType(raw.CourseType),
			MaxHeadcount:           raw.MaxHeadcount,
		})
	}

	for i, raw := range rawInput.Teachers {
		field := fmt.Sprintf("teachers[%d]", i)
		if err := validate.Struct(raw); err != nil {
			return Input{}, InputError{Field: field, Err: err}
		}
		teacher := Teacher{
			Id:                     raw.Id,
			Name:                   raw.Name,
			WeeklyContractMinutes:  raw.WeeklyContractMinutes,
			MaxDailyMinutes:        raw.MaxDailyMinutes,
			MaxConsecutiveSessions: raw.MaxConsecutiveSessions,
			TimePreference:         TimePreference(lo.Ternary(raw.TimePreference == "", string(Indifferent), raw.TimePreference)),
		}
		for j, rawInterval := range raw.Availability {
			interval, err := parseInterval(rawInterval)
			if err != nil {
				return Input{}, InputError{Field: fmt.Sprintf("%v.availabilityIntervals[%d]", field, j), Err: err}
			}
			teacher.Availability = append(teacher.Availability, interval)
		}
		input.Teachers = append(input.Teachers, teacher)
	}

	for i, raw := range rawInput.Rooms {
		if err := validate.Struct(raw); err != nil {
			return Input{}, InputError{Field: fmt.Sprintf("rooms[%d]", i), Err: err}
		}
		input.Rooms = append(input.Rooms, Room(raw))
	}

	for _, raw := range rawInput.Constraints {
		if err := validate.Struct(raw); err != nil {
			return Input{}, ConstraintDefinitionError{ConstraintId: raw.Id, Name: raw.Name, Err: err}
		}
		input.Constraints = append(input.Constraints, Constraint{
			Id:            raw.Id,
			Name:          raw.Name,
			Severity:      Severity(raw.Severity),
			Category:      Category(raw.Category),
			Weight:        raw.Weight,
			SeverityLevel: raw.SeverityLevel,
			Parameters:    raw.Parameters,
			Active:        raw.Active == nil || *raw.Active,
		})
	}

	if err := ensureUnique(input); err != nil {
		return Input{}, err
	}
	return input, nil
}

func parseInterval(raw RawInterval) (AvailabilityInterval, error) {
	day, err := ParseDay(raw.Day)
	if err != nil {
		return AvailabilityInterval{}, err
	}
	start, err := ParseClock(raw.Start)
	if err != nil {
		return AvailabilityInterval{}, err
	}
	end, err := ParseClock(raw.End)
	if err != nil {
		return AvailabilityInterval{}, err
	}
	if end <= start {
		return AvailabilityInterval{}, fmt.Errorf("interval end %v must be after start %v", end, start)
	}
	return AvailabilityInterval{Day: day, Start: start, End: end, Available: raw.Available}, nil
}

func ensureUnique(input Input) error {
	checks := []struct {
		field string
		ids   []string
	}{
		{"courses", lo.Map(input.Courses, func(course Course, _ int) string { return course.Id })},
		{"teachers", lo.Map(input.Teachers, func(teacher Teacher, _ int) string { return teacher.Id })},
		{"rooms", lo.Map(input.Rooms, func(room Room, _ int) string { return room.Id })},
		{"constraints", lo.Map(input.Constraints, func(constraint Constraint, _ int) string { return constraint.Id })},
	}
	for _, check := range checks {
		if duplicates := lo.FindDuplicates(check.ids); len(duplicates) > 0 {
			return InputError{Field: check.field, Err: fmt.Errorf("duplicate ids %v", duplicates)}
		}
	}
	return nil
}
