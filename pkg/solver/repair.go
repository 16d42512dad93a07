package solver

import (
	"cmp"
	"slices"

	"github.com/limaJavier/termtable/pkg/model"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// RepairRooms reassigns rooms inside every group of overlapping assignments of a day through a maximum
// matching between sessions and the rooms their domains allow at their slot. Groups without a perfect
// matching keep their rooms. Days and times are never changed.
func RepairRooms(problem Problem, solution model.Solution) model.Solution {
	positions := make(map[string]int, len(problem.Sessions))
	for i, session := range problem.Sessions {
		positions[session.Id] = i
	}

	repaired := slices.Clone(solution)
	for _, cluster := range overlapClusters(repaired) {
		if len(cluster) < 2 {
			continue
		}
		rooms, err := assignRooms(problem, positions, repaired, cluster)
		if err != nil {
			continue
		}
		for i, assignment := range cluster {
			repaired[assignment].RoomId = rooms[i]
		}
	}
	return repaired
}

// overlapClusters groups assignment positions whose slots overlap, directly or through other assignments
func overlapClusters(solution model.Solution) [][]int {
	order := lo.Range(len(solution))
	slices.SortStableFunc(order, func(a, b int) int {
		if solution[a].Day != solution[b].Day {
			return cmp.Compare(solution[a].Day, solution[b].Day)
		}
		return cmp.Compare(solution[a].Start, solution[b].Start)
	})

	clusters := make([][]int, 0)
	var end model.Clock
	for _, position := range order {
		assignment := solution[position]
		last := len(clusters) - 1
		if last >= 0 && solution[clusters[last][0]].Day == assignment.Day && assignment.Start < end {
			clusters[last] = append(clusters[last], position)
			end = max(end, assignment.End)
			continue
		}
		clusters = append(clusters, []int{position})
		end = assignment.End
	}
	return clusters
}

type unassignableError struct{}

func (err unassignableError) Error() string {
	return "not all sessions can be assigned a room"
}

func assignRooms(problem Problem, positions map[string]int, solution model.Solution, cluster []int) ([]string, error) {
	// Candidate rooms per assignment: the ones its domain allows at its slot, plus its current room
	candidates := make([][]string, len(cluster))
	for i, assignment := range cluster {
		current := solution[assignment]
		rooms := []string{}
		if session, ok := positions[current.SessionId]; ok {
			rooms = problem.Domains.Rooms(session, current.Slot)
		}
		candidates[i] = lo.Uniq(append(rooms, current.RoomId))
	}
	rooms := lo.Uniq(lo.Flatten(candidates))

	// Build neighbors predicate based on candidates
	neighbors := func(assignmentAny any, roomAny any) (bool, error) {
		assignment := assignmentAny.(int)
		room := roomAny.(string)

		return lo.Contains(candidates[assignment], room), nil
	}

	// Transform assignments and rooms to slices of any
	assignmentsAny := lo.Map(lo.Range(len(cluster)), func(assignment int, _ int) any { return assignment })
	roomsAny := lo.Map(rooms, func(room string, _ int) any { return room })

	graph, err := bipartitegraph.NewBipartiteGraph(assignmentsAny, roomsAny, neighbors)
	if err != nil {
		return nil, err
	}

	matching := graph.LargestMatching()

	// Check the matching is a maximum one
	if len(matching) < len(cluster) {
		return nil, unassignableError{}
	}

	assigned := make([]string, len(cluster))
	for _, edge := range matching {
		assignment, room := edge.Node1, edge.Node2-len(cluster)
		assigned[assignment] = rooms[room]
	}
	return assigned, nil
}
