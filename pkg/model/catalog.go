package model

import "github.com/samber/lo"

// Catalog indexes the records of a single run by id. It is built once and only read afterwards.
type Catalog struct {
	Sessions []Session
	Rooms    []Room

	sessions map[string]Session
	courses  map[string]Course
	teachers map[string]Teacher
	rooms    map[string]Room
}

func NewCatalog(input Input, sessions []Session) *Catalog {
	return &Catalog{
		Sessions: sessions,
		Rooms:    input.Rooms,
		sessions: lo.KeyBy(sessions, func(session Session) string { return session.Id }),
		courses:  lo.KeyBy(input.Courses, func(course Course) string { return course.Id }),
		teachers: lo.KeyBy(input.Teachers, func(teacher Teacher) string { return teacher.Id }),
		rooms:    lo.KeyBy(input.Rooms, func(room Room) string { return room.Id }),
	}
}

func (catalog *Catalog) Session(id string) (Session, bool) {
	session, ok := catalog.sessions[id]
	return session, ok
}

func (catalog *Catalog) Course(id string) (Course, bool) {
	course, ok := catalog.courses[id]
	return course, ok
}

// Teacher returns the directory record, or a default unrestricted teacher when the directory has none
func (catalog *Catalog) Teacher(id string) (Teacher, bool) {
	teacher, ok := catalog.teachers[id]
	if !ok {
		return Teacher{Id: id, TimePreference: Indifferent}, false
	}
	return teacher, true
}

func (catalog *Catalog) Room(id string) (Room, bool) {
	room, ok := catalog.rooms[id]
	return room, ok
}
