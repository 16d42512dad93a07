package constraint

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/limaJavier/termtable/pkg/model"
	"github.com/samber/lo"
)

type Dimension string

const (
	RoomDimension    Dimension = "room"
	TeacherDimension Dimension = "teacher"
	ClassDimension   Dimension = "class"
)

// Conflict is a room, teacher or class booked twice at overlapping times
type Conflict struct {
	SessionA  string    `json:"sessionA"`
	SessionB  string    `json:"sessionB"`
	Dimension Dimension `json:"dimension"`
	Resource  string    `json:"resource"`
	Day       int       `json:"day"`
}

func (conflict Conflict) String() string {
	return fmt.Sprintf("%v %q is booked by %v and %v at the same time on %v",
		conflict.Dimension, conflict.Resource, conflict.SessionA, conflict.SessionB, model.Days[conflict.Day])
}

type RuleResult struct {
	Rule        Rule
	Violations  int
	Diagnostics []string
}

type Evaluation struct {
	Score           float64 // 1000 minus the weighted violations, never below 0
	ComplianceRatio float64 // Fraction of rules without violations
	Results         []RuleResult
}

const (
	BaseScore     = 1000.0
	weightPenalty = 10.0
)

// entry is an assignment resolved against the catalog
type entry struct {
	session   model.Session
	teacher   model.Teacher
	placement model.Placement
}

func (engine *Engine) resolve(solution model.Solution) []entry {
	entries := make([]entry, 0, len(solution))
	for _, assignment := range solution {
		session, ok := engine.catalog.Session(assignment.SessionId)
		if !ok {
			continue
		}
		teacher, _ := engine.catalog.Teacher(session.TeacherId)
		entries = append(entries, entry{session: session, teacher: teacher, placement: assignment.Placement})
	}
	return entries
}

// Score evaluates every rule on the solution
func (engine *Engine) Score(solution model.Solution) Evaluation {
	entries := engine.resolve(solution)
	evaluation := Evaluation{
		Score:           BaseScore,
		ComplianceRatio: 1,
		Results:         make([]RuleResult, 0, len(engine.rules)),
	}

	compliant := 0
	for _, rule := range engine.rules {
		violations, diagnostics := engine.evaluate(rule, entries)
		evaluation.Results = append(evaluation.Results, RuleResult{Rule: rule, Violations: violations, Diagnostics: diagnostics})
		evaluation.Score -= float64(violations) * rule.Weight * weightPenalty
		if violations == 0 {
			compliant++
		}
	}

	evaluation.Score = math.Max(evaluation.Score, 0)
	if len(engine.rules) > 0 {
		evaluation.ComplianceRatio = float64(compliant) / float64(len(engine.rules))
	}
	return evaluation
}

// Evaluate counts the violations of a single rule, with one diagnostic per violation
func (engine *Engine) Evaluate(rule Rule, solution model.Solution) (int, []string) {
	return engine.evaluate(rule, engine.resolve(solution))
}

func (engine *Engine) evaluate(rule Rule, entries []entry) (int, []string) {
	var diagnostics []string
	switch parameters := rule.parameters.(type) {
	case *minGapParameters:
		diagnostics = engine.evaluateMinGap(parameters, entries)
	case *sameDayParameters:
		diagnostics = engine.evaluateSameDay(parameters, entries)
	case *daySpreadParameters:
		diagnostics = engine.evaluateDaySpread(parameters, entries)
	case *fixedRoomParameters, *teacherAvailabilityParameters, *requiredEquipmentParameters, *timePreferenceParameters:
		for _, entry := range entries {
			if engine.violatesStatic(rule, entry.session, entry.placement) {
				diagnostics = append(diagnostics, staticDiagnostic(rule.Kind, entry))
			}
		}
	case *maxConsecutiveParameters:
		limit, threshold := engine.consecutiveLimits(parameters)
		diagnostics = engine.consecutiveExcess(entries, limit, threshold)
	case *loadParameters:
		if rule.Kind == TeacherWeeklyLoad {
			diagnostics = engine.evaluateWeeklyLoad(parameters, entries)
		} else {
			diagnostics = engine.evaluateDailyLoad(parameters, entries)
		}
	case *noOverlapParameters:
		diagnostics = lo.Map(conflicts(entries), func(conflict Conflict, _ int) string { return conflict.String() })
	default:
		panic(fmt.Sprintf("rule %q has no evaluator for %T", rule.Id, parameters))
	}
	return len(diagnostics), diagnostics
}

//** Residual conflicts

// Conflicts lists every pair of assignments double-booking a room, a teacher or a class
func (engine *Engine) Conflicts(solution model.Solution) []Conflict {
	return conflicts(engine.resolve(solution))
}

func conflicts(entries []entry) []Conflict {
	found := make([]Conflict, 0)
	byDay := lo.GroupBy(entries, func(entry entry) int { return entry.placement.Day })
	for _, day := range slices.Sorted(maps.Keys(byDay)) {
		group := byDay[day]
		for i := range group {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if !a.placement.Overlaps(b.placement.Slot) {
					continue
				}
				add := func(dimension Dimension, resourceA, resourceB string) {
					if shared(resourceA, resourceB) {
						found = append(found, Conflict{
							SessionA:  a.session.Id,
							SessionB:  b.session.Id,
							Dimension: dimension,
							Resource:  resourceA,
							Day:       day,
						})
					}
				}
				add(RoomDimension, a.placement.RoomId, b.placement.RoomId)
				add(TeacherDimension, a.session.TeacherId, b.session.TeacherId)
				add(ClassDimension, a.session.ClassId, b.session.ClassId)
			}
		}
	}
	return found
}

//** Shared soft measures

// ExcessConsecutive counts, over every teacher and day, the sessions beyond the consecutive limit. The limit
// and threshold of a loaded max_consecutive rule take precedence over the teacher's own limit.
func (engine *Engine) ExcessConsecutive(solution model.Solution) int {
	limit, threshold := engine.consecutiveLimits(engine.consecutive)
	return len(engine.consecutiveExcess(engine.resolve(solution), limit, threshold))
}

// UnmetPreferences counts the assignments starting outside their teacher's preferred half of the day, split
// at the noon of the loaded time_preference rule
func (engine *Engine) UnmetPreferences(solution model.Solution) int {
	noon := engine.noon(engine.preference)
	unmet := 0
	for _, entry := range engine.resolve(solution) {
		if !engine.preferenceMet(entry.teacher, entry.placement.Slot, noon) {
			unmet++
		}
	}
	return unmet
}

func (engine *Engine) consecutiveLimits(parameters *maxConsecutiveParameters) (*int, int) {
	if parameters == nil {
		return nil, engine.options.ConsecutiveThreshold
	}
	threshold := engine.options.ConsecutiveThreshold
	if parameters.ThresholdMinutes != nil {
		threshold = *parameters.ThresholdMinutes
	}
	return parameters.Max, threshold
}

// consecutiveExcess returns one diagnostic per session exceeding the limit of a run. Two sessions of a teacher
// belong to the same run when the gap between them is at most threshold minutes.
func (engine *Engine) consecutiveExcess(entries []entry, limit *int, threshold int) []string {
	diagnostics := make([]string, 0)
	byTeacher := lo.GroupBy(entries, func(entry entry) string { return entry.session.TeacherId })
	for _, teacherId := range slices.Sorted(maps.Keys(byTeacher)) {
		group := byTeacher[teacherId]
		allowed := engine.options.DefaultMaxConsecutive
		if limit != nil {
			allowed = *limit
		} else if group[0].teacher.MaxConsecutiveSessions > 0 {
			allowed = group[0].teacher.MaxConsecutiveSessions
		}

		byDay := lo.GroupBy(group, func(entry entry) int { return entry.placement.Day })
		for _, day := range slices.Sorted(maps.Keys(byDay)) {
			daily := slices.SortedStableFunc(slices.Values(byDay[day]), func(a, b entry) int {
				return cmp.Compare(a.placement.Start, b.placement.Start)
			})
			run := 1
			for i := 1; i < len(daily); i++ {
				if int(daily[i].placement.Start-daily[i-1].placement.End) <= threshold {
					run++
				} else {
					run = 1
				}
				if run > allowed {
					diagnostics = append(diagnostics, fmt.Sprintf("teacher %q teaches %d sessions in a row on %v (limit %d), ending with %v",
						teacherId, run, model.Days[day], allowed, daily[i].session.Id))
				}
			}
		}
	}
	return diagnostics
}

//** Solution level rules

func (engine *Engine) evaluateMinGap(parameters *minGapParameters, entries []entry) []string {
	diagnostics := make([]string, 0)
	groups := lo.GroupBy(entries, func(entry entry) string { return scopeKey(entry.session, parameters.Scope) })
	for _, key := range slices.Sorted(maps.Keys(groups)) {
		group := groups[key]
		for i := range group {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i].placement, group[j].placement
				if a.Day != b.Day {
					continue
				}
				if minutes := gap(a.Slot, b.Slot); minutes < parameters.Minutes {
					diagnostics = append(diagnostics, fmt.Sprintf("sessions %v and %v are %d minutes apart on %v, %d required",
						group[i].session.Id, group[j].session.Id, max(minutes, 0), model.Days[a.Day], parameters.Minutes))
				}
			}
		}
	}
	return diagnostics
}

func (engine *Engine) evaluateSameDay(parameters *sameDayParameters, entries []entry) []string {
	diagnostics := make([]string, 0)
	courses := lo.GroupBy(
		lo.Filter(entries, func(entry entry, _ int) bool { return sameDayApplies(parameters, entry.session.CourseId) }),
		func(entry entry) string { return entry.session.CourseId },
	)
	for _, courseId := range slices.Sorted(maps.Keys(courses)) {
		days := distinctDays(courses[courseId])
		for _, day := range days[1:] {
			diagnostics = append(diagnostics, fmt.Sprintf("course %q also meets on %v instead of only %v", courseId, model.Days[day], model.Days[days[0]]))
		}
	}
	return diagnostics
}

func (engine *Engine) evaluateDaySpread(parameters *daySpreadParameters, entries []entry) []string {
	diagnostics := make([]string, 0)
	scope := lo.Ternary(parameters.Scope == "", CourseScope, parameters.Scope)
	groups := lo.GroupBy(entries, func(entry entry) string { return scopeKey(entry.session, scope) })
	for _, key := range slices.Sorted(maps.Keys(groups)) {
		days := len(distinctDays(groups[key]))
		if parameters.MinDays != nil {
			// A group cannot spread over more days than it has sessions
			required := min(*parameters.MinDays, len(groups[key]))
			for missing := days; missing < required; missing++ {
				diagnostics = append(diagnostics, fmt.Sprintf("%v %q meets on %d days, at least %d required", scope, key, days, required))
			}
		}
		if parameters.MaxDays != nil {
			for extra := *parameters.MaxDays; extra < days; extra++ {
				diagnostics = append(diagnostics, fmt.Sprintf("%v %q meets on %d days, at most %d allowed", scope, key, days, *parameters.MaxDays))
			}
		}
	}
	return diagnostics
}

func (engine *Engine) evaluateWeeklyLoad(parameters *loadParameters, entries []entry) []string {
	diagnostics := make([]string, 0)
	teachers := engine.teacherGroups(parameters, entries)
	for _, teacherId := range slices.Sorted(maps.Keys(teachers)) {
		group := teachers[teacherId]
		ceiling := group[0].teacher.WeeklyContractMinutes
		if parameters.MaxMinutes != nil {
			ceiling = *parameters.MaxMinutes
		}
		if total := minutes(group); ceiling > 0 && total > ceiling {
			diagnostics = append(diagnostics, fmt.Sprintf("teacher %q teaches %d minutes a week, ceiling %d", teacherId, total, ceiling))
		}
	}
	return diagnostics
}

func (engine *Engine) evaluateDailyLoad(parameters *loadParameters, entries []entry) []string {
	diagnostics := make([]string, 0)
	teachers := engine.teacherGroups(parameters, entries)
	for _, teacherId := range slices.Sorted(maps.Keys(teachers)) {
		group := teachers[teacherId]
		ceiling := group[0].teacher.MaxDailyMinutes
		if parameters.MaxMinutes != nil {
			ceiling = *parameters.MaxMinutes
		}
		if ceiling <= 0 {
			continue
		}
		byDay := lo.GroupBy(group, func(entry entry) int { return entry.placement.Day })
		for _, day := range slices.Sorted(maps.Keys(byDay)) {
			if total := minutes(byDay[day]); total > ceiling {
				diagnostics = append(diagnostics, fmt.Sprintf("teacher %q teaches %d minutes on %v, ceiling %d", teacherId, total, model.Days[day], ceiling))
			}
		}
	}
	return diagnostics
}

func (engine *Engine) teacherGroups(parameters *loadParameters, entries []entry) map[string][]entry {
	return lo.GroupBy(
		lo.Filter(entries, func(entry entry, _ int) bool {
			return parameters.TeacherId == "" || entry.session.TeacherId == parameters.TeacherId
		}),
		func(entry entry) string { return entry.session.TeacherId },
	)
}

func staticDiagnostic(kind Kind, entry entry) string {
	switch kind {
	case FixedRoom:
		return fmt.Sprintf("session %v is held in room %q instead of its fixed room", entry.session.Id, entry.placement.RoomId)
	case TeacherAvailability:
		return fmt.Sprintf("teacher %q is not available for session %v on %v", entry.teacher.Id, entry.session.Id, entry.placement.Slot)
	case RequiredEquipment:
		return fmt.Sprintf("room %q lacks equipment required by session %v", entry.placement.RoomId, entry.session.Id)
	default:
		return fmt.Sprintf("session %v at %v does not match the %v preference of teacher %q",
			entry.session.Id, entry.placement.Slot, entry.teacher.TimePreference, entry.teacher.Id)
	}
}

func distinctDays(entries []entry) []int {
	days := lo.Uniq(lo.Map(entries, func(entry entry, _ int) int { return entry.placement.Day }))
	slices.Sort(days)
	return days
}

func minutes(entries []entry) int {
	return lo.SumBy(entries, func(entry entry) int { return entry.session.DurationMinutes })
}
