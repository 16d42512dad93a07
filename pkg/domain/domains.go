package domain

import (
	"slices"

	"github.com/limaJavier/termtable/pkg/model"
)

// Domains holds the candidate placements of every session, indexed by the session's position in the
// session list. Values keep their enumeration order (day, start time, room directory order) and are never
// mutated once built; search state lives in Live.
type Domains struct {
	values [][]model.Placement
}

func NewDomains(values [][]model.Placement) *Domains {
	return &Domains{values: values}
}

// Len is the number of sessions
func (domains *Domains) Len() int {
	return len(domains.values)
}

func (domains *Domains) Size(session int) int {
	return len(domains.values[session])
}

func (domains *Domains) Value(session, value int) model.Placement {
	return domains.values[session][value]
}

func (domains *Domains) Values(session int) []model.Placement {
	return domains.values[session]
}

func (domains *Domains) Contains(session int, placement model.Placement) bool {
	return slices.Contains(domains.values[session], placement)
}

// Rooms lists, in directory order, the rooms a session may use at the given slot
func (domains *Domains) Rooms(session int, slot model.Slot) []string {
	rooms := make([]string, 0)
	for _, placement := range domains.values[session] {
		if placement.Slot == slot {
			rooms = append(rooms, placement.RoomId)
		}
	}
	return rooms
}
