package domain

import (
	"fmt"
	"math"

	"github.com/limaJavier/termtable/pkg/model"
	"github.com/samber/lo"
)

type Config struct {
	Window        Window
	Compatibility Compatibility
}

func DefaultConfig() Config {
	return Config{
		Window:        DefaultWindow(),
		Compatibility: DefaultCompatibility(),
	}
}

// BuildDomains expands every course into its weekly sessions and enumerates the candidate placements of each
// session. It fails with model.InvalidDomainError as soon as one session cannot be placed anywhere.
func BuildDomains(courses []model.Course, teachers []model.Teacher, rooms []model.Room, config Config) ([]model.Session, *Domains, error) {
	if err := config.Window.Validate(); err != nil {
		return nil, nil, err
	}
	if config.Compatibility == nil {
		config.Compatibility = DefaultCompatibility()
	}

	directory := lo.KeyBy(teachers, func(teacher model.Teacher) string { return teacher.Id })
	catalog := lo.KeyBy(courses, func(course model.Course) string { return course.Id })
	sessions := ExpandSessions(courses)
	values := make([][]model.Placement, len(sessions))

	for i, session := range sessions {
		course := catalog[session.CourseId]
		teacher, ok := directory[session.TeacherId]
		if !ok {
			teacher = model.Teacher{Id: session.TeacherId}
		}

		placements, err := enumerate(session, course, teacher, rooms, config)
		if err != nil {
			return nil, nil, err
		}
		values[i] = placements
	}

	return sessions, NewDomains(values), nil
}

// ExpandSessions generates ceil(weeklyVolume / standardDuration) sessions per course, in course order
func ExpandSessions(courses []model.Course) []model.Session {
	sessions := make([]model.Session, 0)
	for _, course := range courses {
		for i := range course.Sessions() {
			sessions = append(sessions, model.Session{
				Id:              fmt.Sprintf("%v#%d", course.Id, i+1),
				CourseId:        course.Id,
				TeacherId:       course.TeacherId,
				ClassId:         course.ClassId,
				DurationMinutes: course.StandardSessionMinutes,
				CourseType:      course.CourseType,
				SequenceIndex:   i,
			})
		}
	}
	return sessions
}

func enumerate(session model.Session, course model.Course, teacher model.Teacher, rooms []model.Room, config Config) ([]model.Placement, error) {
	window := config.Window
	starts := window.Starts(session.DurationMinutes)
	if len(starts) == 0 {
		return nil, model.InvalidDomainError{
			SessionId: session.Id,
			CourseId:  session.CourseId,
			Reason:    fmt.Sprintf("a %d minute session does not fit in the operating window %v-%v", session.DurationMinutes, window.Start, window.End),
		}
	}

	slotAt := func(day, start uint64) model.Slot {
		begin := starts[start]
		return model.Slot{Day: window.Days[day], Start: begin, End: begin + model.Clock(session.DurationMinutes)}
	}

	permutations := constrainedPermutations(
		[]uint64{uint64(len(window.Days)), uint64(len(starts)), uint64(len(rooms))},
		[]func(permutation []uint64) bool{
			// Teacher is available for the whole slot
			func(permutation []uint64) bool {
				day, start := permutation[dayAttribute], permutation[startAttribute]
				if day == math.MaxUint64 || start == math.MaxUint64 {
					return true
				}
				slot := slotAt(day, start)
				return teacher.AvailableFor(slot.Day, slot.Start, slot.End)
			},
			// Room fits the expected headcount
			func(permutation []uint64) bool {
				room := permutation[roomAttribute]
				return room == math.MaxUint64 || rooms[room].Capacity >= course.MaxHeadcount
			},
			// Room type is compatible with the course type
			func(permutation []uint64) bool {
				room := permutation[roomAttribute]
				return room == math.MaxUint64 || config.Compatibility.Allows(course.CourseType, rooms[room].RoomType)
			},
		},
	)

	if len(permutations) == 0 {
		return nil, model.InvalidDomainError{
			SessionId: session.Id,
			CourseId:  session.CourseId,
			Reason:    emptyDomainReason(session, course, teacher, rooms, starts, config),
		}
	}

	return lo.Map(permutations, func(permutation []uint64, _ int) model.Placement {
		return model.Placement{
			Slot:   slotAt(permutation[dayAttribute], permutation[startAttribute]),
			RoomId: rooms[permutation[roomAttribute]].Id,
		}
	}), nil
}

func emptyDomainReason(session model.Session, course model.Course, teacher model.Teacher, rooms []model.Room, starts []model.Clock, config Config) string {
	fitting := lo.Filter(rooms, func(room model.Room, _ int) bool {
		return room.Capacity >= course.MaxHeadcount && config.Compatibility.Allows(course.CourseType, room.RoomType)
	})
	if len(fitting) == 0 {
		return fmt.Sprintf("no room holds %d students with a type compatible with %q", course.MaxHeadcount, course.CourseType)
	}
	return fmt.Sprintf("teacher %q has no availability covering a %d minute session", teacher.Id, session.DurationMinutes)
}
