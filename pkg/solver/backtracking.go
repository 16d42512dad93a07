package solver

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/limaJavier/termtable/pkg/constraint"
	"github.com/limaJavier/termtable/pkg/domain"
	"github.com/limaJavier/termtable/pkg/model"
	"github.com/samber/lo"
)

type BacktrackingConfig struct {
	// Values tried over the whole search before giving up. The counter is shared by every branch, so it
	// bounds the running time and does not prove that no schedule exists.
	Budget int
}

func DefaultBacktrackingConfig() BacktrackingConfig {
	return BacktrackingConfig{Budget: 10000}
}

type backtrackingSolver struct {
	config BacktrackingConfig
}

// NewBacktrackingSolver returns a depth-first solver with forward checking. Sessions are chosen by minimum
// remaining values and their values by least constraining value. Ties keep the session list order and the
// domain enumeration order, so identical problems always give identical solutions.
func NewBacktrackingSolver(config BacktrackingConfig) Solver {
	return &backtrackingSolver{config: config}
}

type searchState struct {
	problem Problem
	live    *domain.Live

	values     []int // Value position assigned to each session, -1 when unassigned
	order      []int // Sessions in assignment order
	expansions int
	budget     int
	exhausted  bool
	deadEnd    int // Last session whose domain was wiped out
}

func (solver *backtrackingSolver) Solve(problem Problem) (model.Solution, error) {
	search := &searchState{
		problem: problem,
		live:    domain.NewLive(problem.Domains),
		values:  make([]int, len(problem.Sessions)),
		order:   make([]int, 0, len(problem.Sessions)),
		budget:  solver.config.Budget,
		deadEnd: -1,
	}
	for i := range search.values {
		search.values[i] = -1
	}

	//** Node consistency: drop values breaking hard static rules, never restored
	for session := range problem.Sessions {
		for value := range problem.Domains.Size(session) {
			if !problem.Engine.Admissible(problem.Sessions[session], problem.Domains.Value(session, value)) {
				search.live.Remove(session, value)
			}
		}
		if search.live.Size(session) == 0 {
			return nil, model.InvalidDomainError{
				SessionId: problem.Sessions[session].Id,
				CourseId:  problem.Sessions[session].CourseId,
				Reason:    fmt.Sprintf("no candidate placement satisfies the hard rules %v", hardStaticIds(problem.Engine)),
			}
		}
	}

	//** Search
	if !search.backtrack() {
		err := model.InfeasibleScheduleError{
			Expansions:      search.expansions,
			Budget:          search.budget,
			BudgetExhausted: search.exhausted,
		}
		if search.deadEnd >= 0 {
			err.SessionId = problem.Sessions[search.deadEnd].Id
		}
		return nil, err
	}

	solution := make(model.Solution, 0, len(search.order))
	for _, session := range search.order {
		solution = append(solution, model.Assignment{
			SessionId: problem.Sessions[session].Id,
			Placement: problem.Domains.Value(session, search.values[session]),
		})
	}
	return solution, nil
}

func (search *searchState) backtrack() bool {
	session := search.selectSession()
	if session < 0 {
		return true
	}

	for _, value := range search.orderValues(session) {
		if search.expansions >= search.budget {
			search.exhausted = true
			return false
		}
		search.expansions++

		if !search.consistent(session, value) {
			continue
		}

		search.values[session] = value
		search.order = append(search.order, session)
		mark := search.live.Mark()

		if search.forwardCheck(session, value) && search.backtrack() {
			return true
		}

		search.live.Restore(mark)
		search.order = search.order[:len(search.order)-1]
		search.values[session] = -1

		if search.exhausted {
			return false
		}
	}
	return false
}

// selectSession picks the unassigned session with the fewest remaining values, or -1 when all are assigned
func (search *searchState) selectSession() int {
	selected := -1
	for session := range search.problem.Sessions {
		if search.values[session] >= 0 {
			continue
		}
		if selected < 0 || search.live.Size(session) < search.live.Size(selected) {
			selected = session
		}
	}
	return selected
}

// orderValues sorts the remaining values of a session by how many values they would remove from the other
// unassigned sessions, ascending
func (search *searchState) orderValues(session int) []int {
	values := search.live.Values(session)
	removals := make(map[int]int, len(values))
	for _, value := range values {
		removals[value] = search.removals(session, value)
	}
	slices.SortStableFunc(values, func(a, b int) int {
		return cmp.Compare(removals[a], removals[b])
	})
	return values
}

func (search *searchState) removals(session, value int) int {
	problem := search.problem
	placement := problem.Domains.Value(session, value)
	removed := 0
	for other := range problem.Sessions {
		if other == session || search.values[other] >= 0 {
			continue
		}
		for _, otherValue := range search.live.Values(other) {
			if !problem.Engine.Consistent(problem.Sessions[session], placement, problem.Sessions[other], problem.Domains.Value(other, otherValue)) {
				removed++
			}
		}
	}
	return removed
}

// consistent checks a value against every assignment made so far
func (search *searchState) consistent(session, value int) bool {
	problem := search.problem
	placement := problem.Domains.Value(session, value)
	for _, other := range search.order {
		if !problem.Engine.Consistent(problem.Sessions[session], placement, problem.Sessions[other], problem.Domains.Value(other, search.values[other])) {
			return false
		}
	}
	return true
}

// forwardCheck removes the values of unassigned sessions that conflict with the new assignment.
// It reports false as soon as a domain becomes empty.
func (search *searchState) forwardCheck(session, value int) bool {
	problem := search.problem
	placement := problem.Domains.Value(session, value)
	for other := range problem.Sessions {
		if other == session || search.values[other] >= 0 {
			continue
		}
		for _, otherValue := range search.live.Values(other) {
			if !problem.Engine.Consistent(problem.Sessions[session], placement, problem.Sessions[other], problem.Domains.Value(other, otherValue)) {
				search.live.Remove(other, otherValue)
			}
		}
		if search.live.Size(other) == 0 {
			search.deadEnd = other
			return false
		}
	}
	return true
}

func hardStaticIds(engine *constraint.Engine) []string {
	return lo.FilterMap(engine.Rules(), func(rule constraint.Rule, _ int) (string, bool) {
		return rule.Id, rule.Hard() && rule.Kind.Static()
	})
}
