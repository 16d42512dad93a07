package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inputJson = `{
	"courses": [
		{"id": "math", "classId": "k1", "subjectId": "s1", "teacherId": "t1", "weeklyVolumeMinutes": 180, "standardSessionMinutes": 60, "courseType": "lecture", "maxHeadcount": 30}
	],
	"teachers": [
		{"id": "t1", "name": "Ada", "weeklyContractMinutes": "600", "timePreference": "morning",
		 "availabilityIntervals": [{"day": 0, "start": "08:00", "end": "12:00", "available": true}]},
		{"id": "t2"}
	],
	"rooms": [
		{"id": "r1", "capacity": 40, "roomType": "classroom", "equipment": ["projector"]}
	],
	"constraints": [
		{"id": "c1", "name": "min_gap", "severity": "HARD", "category": "temporal", "weight": 5, "parameters": {"minutes": 30}},
		{"id": "c2", "name": "same_day", "severity": "SOFT", "category": "pedagogical", "weight": 1, "active": false}
	]
}`

func writeFile(t *testing.T, directory, name, content string) string {
	path := filepath.Join(directory, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	return path
}

func TestInputFromJson(t *testing.T) {
	// Arrange
	path := writeFile(t, t.TempDir(), "input.json", inputJson)

	// Act
	input, err := InputFromJson(path)

	// Assert
	require.NoError(t, err)
	require.Len(t, input.Courses, 1)
	assert.Equal(t, Course{
		Id:                     "math",
		ClassId:                "k1",
		SubjectId:              "s1",
		TeacherId:              "t1",
		WeeklyVolumeMinutes:    180,
		StandardSessionMinutes: 60,
		CourseType:             Lecture,
		MaxHeadcount:           30,
	}, input.Courses[0])

	require.Len(t, input.Teachers, 2)
	assert.Equal(t, 600, input.Teachers[0].WeeklyContractMinutes)
	assert.Equal(t, Morning, input.Teachers[0].TimePreference)
	assert.Equal(t, []AvailabilityInterval{{Day: 0, Start: 480, End: 720, Available: true}}, input.Teachers[0].Availability)
	assert.Equal(t, Indifferent, input.Teachers[1].TimePreference)

	assert.Equal(t, []Room{{Id: "r1", Capacity: 40, RoomType: "classroom", Equipment: []string{"projector"}}}, input.Rooms)

	require.Len(t, input.Constraints, 2)
	assert.True(t, input.Constraints[0].Active)
	assert.Equal(t, Hard, input.Constraints[0].Severity)
	assert.False(t, input.Constraints[1].Active)
}

func TestProcessRawInputErrors(t *testing.T) {
	course := RawCourse{Id: "math", ClassId: "k1", TeacherId: "t1", WeeklyVolumeMinutes: 60, StandardSessionMinutes: 60, CourseType: "lecture"}
	room := RawRoom{Id: "r1", Capacity: 10, RoomType: "classroom"}

	scenarios := []struct {
		name       string
		raw        RawInput
		constraint bool
	}{
		{"zero duration", RawInput{Courses: []RawCourse{{Id: "x", ClassId: "k", TeacherId: "t", CourseType: "lecture"}}}, false},
		{"zero capacity", RawInput{Rooms: []RawRoom{{Id: "r", RoomType: "classroom"}}}, false},
		{"duplicate course", RawInput{Courses: []RawCourse{course, course}}, false},
		{"duplicate room", RawInput{Rooms: []RawRoom{room, room}}, false},
		{"bad preference", RawInput{Teachers: []RawTeacher{{Id: "t1", TimePreference: "evening"}}}, false},
		{"inverted interval", RawInput{Teachers: []RawTeacher{{Id: "t1", Availability: []RawInterval{{Day: "Mon", Start: "10:00", End: "09:00"}}}}}, false},
		{"bad interval day", RawInput{Teachers: []RawTeacher{{Id: "t1", Availability: []RawInterval{{Day: "Funday", Start: "09:00", End: "10:00"}}}}}, false},
		{"weight out of range", RawInput{Constraints: []RawConstraint{{Id: "c", Name: "min_gap", Severity: "HARD", Category: "temporal", Weight: 11}}}, true},
		{"bad severity", RawInput{Constraints: []RawConstraint{{Id: "c", Name: "min_gap", Severity: "MEDIUM", Category: "temporal", Weight: 1}}}, true},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			// Act
			_, err := ProcessRawInput(scenario.raw)

			// Assert
			require.Error(t, err)
			var constraintErr ConstraintDefinitionError
			var inputErr InputError
			if scenario.constraint {
				assert.True(t, errors.As(err, &constraintErr))
			} else {
				assert.True(t, errors.As(err, &inputErr))
			}
		})
	}
}

func TestInputFromCsv(t *testing.T) {
	// Arrange
	directory := t.TempDir()
	writeFile(t, directory, CoursesFile, `id,class_id,subject_id,teacher_id,weekly_volume_minutes,standard_session_minutes,course_type,max_headcount
math,k1,s1,t1,180,60,lecture,30
chem,k1,s2,t2,120,120,lab,20
`)
	writeFile(t, directory, TeachersFile, `id,name,weekly_contract_minutes,max_daily_minutes,max_consecutive_sessions,time_preference
t1,Ada,600,240,2,morning
t2,Alan,0,0,0,
`)
	writeFile(t, directory, AvailabilityFile, `teacher_id,day,start,end,available
t1,Mon,08:00,12:00,true
t1,Tue,09:00,10:00,false
`)
	writeFile(t, directory, RoomsFile, `id,capacity,room_type,building,equipment
r1,40,classroom,A,projector; whiteboard
lab,25,laboratory,B,
`)
	writeFile(t, directory, ConstraintsFile, `id,name,severity,category,weight,severity_level,parameters,active
gap,min_gap,HARD,temporal,5,8,minutes=30;scope=teacher,
pair,same_day,SOFT,pedagogical,1,,courseIds=math|chem,false
`)

	// Act
	input, err := InputFromCsv(directory)

	// Assert
	require.NoError(t, err)
	assert.Len(t, input.Courses, 2)
	assert.Equal(t, Lab, input.Courses[1].CourseType)

	require.Len(t, input.Teachers, 2)
	assert.Len(t, input.Teachers[0].Availability, 2)
	assert.Equal(t, 2, input.Teachers[0].MaxConsecutiveSessions)
	assert.Empty(t, input.Teachers[1].Availability)
	assert.Equal(t, Indifferent, input.Teachers[1].TimePreference)

	assert.Equal(t, []string{"projector", "whiteboard"}, input.Rooms[0].Equipment)
	assert.Empty(t, input.Rooms[1].Equipment)

	require.Len(t, input.Constraints, 2)
	assert.Equal(t, map[string]any{"minutes": "30", "scope": "teacher"}, input.Constraints[0].Parameters)
	assert.True(t, input.Constraints[0].Active)
	assert.Equal(t, []string{"math", "chem"}, input.Constraints[1].Parameters["courseIds"])
	assert.False(t, input.Constraints[1].Active)
}

func TestInputFromCsvOptionalFiles(t *testing.T) {
	// Arrange
	directory := t.TempDir()
	writeFile(t, directory, CoursesFile, "id,class_id,subject_id,teacher_id,weekly_volume_minutes,standard_session_minutes,course_type,max_headcount\n")
	writeFile(t, directory, TeachersFile, "id,name,weekly_contract_minutes,max_daily_minutes,max_consecutive_sessions,time_preference\n")
	writeFile(t, directory, RoomsFile, "id,capacity,room_type,building,equipment\nr1,10,classroom,,\n")

	// Act
	input, err := InputFromCsv(directory)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, input.Courses)
	assert.Empty(t, input.Constraints)
	assert.Len(t, input.Rooms, 1)
}

func TestInputFromCsvMissingRequiredFile(t *testing.T) {
	// Act
	_, err := InputFromCsv(t.TempDir())

	// Assert
	var inputErr InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, CoursesFile, inputErr.Field)
}
