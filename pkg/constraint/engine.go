package constraint

import (
	"fmt"

	"github.com/limaJavier/termtable/pkg/model"
	"github.com/samber/lo"
)

type Options struct {
	ConsecutiveThreshold  int         // Largest gap in minutes between two sessions of the same run
	DefaultMaxConsecutive int         // Run length allowed to teachers without their own limit
	Noon                  model.Clock // Sessions starting before noon are morning sessions
}

func DefaultOptions() Options {
	return Options{
		ConsecutiveThreshold:  15,
		DefaultMaxConsecutive: 3,
		Noon:                  12 * 60,
	}
}

// Engine evaluates placements and solutions against the loaded rules of a run
type Engine struct {
	rules   []Rule
	catalog *model.Catalog
	options Options

	hardStatic   []Rule
	hardPairwise []Rule

	// First loaded rule of each kind, shared with the genetic fitness
	consecutive *maxConsecutiveParameters
	preference  *timePreferenceParameters
}

// NewEngine checks that the rules only reference known courses, teachers and rooms
func NewEngine(rules []Rule, catalog *model.Catalog, options Options) (*Engine, error) {
	for _, rule := range rules {
		if err := checkReferences(rule, catalog); err != nil {
			return nil, model.ConstraintDefinitionError{ConstraintId: rule.Id, Name: rule.Name, Err: err}
		}
	}

	engine := &Engine{
		rules:   rules,
		catalog: catalog,
		options: options,
		hardStatic: lo.Filter(rules, func(rule Rule, _ int) bool {
			return rule.Hard() && rule.Kind.Static()
		}),
		hardPairwise: lo.Filter(rules, func(rule Rule, _ int) bool {
			return rule.Hard() && rule.Kind.Pairwise() && rule.Kind != NoOverlap
		}),
	}
	for _, rule := range rules {
		switch parameters := rule.parameters.(type) {
		case *maxConsecutiveParameters:
			if engine.consecutive == nil {
				engine.consecutive = parameters
			}
		case *timePreferenceParameters:
			if engine.preference == nil {
				engine.preference = parameters
			}
		}
	}
	return engine, nil
}

func checkReferences(rule Rule, catalog *model.Catalog) error {
	course := func(id string) error {
		if _, ok := catalog.Course(id); !ok {
			return fmt.Errorf("unknown course %q", id)
		}
		return nil
	}

	switch parameters := rule.parameters.(type) {
	case *fixedRoomParameters:
		if _, ok := catalog.Room(parameters.RoomId); !ok {
			return fmt.Errorf("unknown room %q", parameters.RoomId)
		}
		return course(parameters.CourseId)
	case *requiredEquipmentParameters:
		return course(parameters.CourseId)
	case *sameDayParameters:
		for _, id := range parameters.CourseIds {
			if err := course(id); err != nil {
				return err
			}
		}
	case *loadParameters:
		if parameters.TeacherId != "" {
			if _, ok := catalog.Teacher(parameters.TeacherId); !ok {
				return fmt.Errorf("unknown teacher %q", parameters.TeacherId)
			}
		}
	}
	return nil
}

func (engine *Engine) Rules() []Rule {
	return engine.rules
}

func (engine *Engine) Catalog() *model.Catalog {
	return engine.catalog
}

func (engine *Engine) Options() Options {
	return engine.options
}

// Consistent reports whether two sessions may hold the given placements at the same time. It fails on any
// double-booked room, teacher or class, on any hard static rule broken by either placement and on the hard
// pairwise rules (min_gap, same_day). Soft static rules such as a soft time_preference are only scored.
// Empty resource ids never collide.
func (engine *Engine) Consistent(a model.Session, placementA model.Placement, b model.Session, placementB model.Placement) bool {
	if placementA.Overlaps(placementB.Slot) &&
		(shared(placementA.RoomId, placementB.RoomId) || shared(a.TeacherId, b.TeacherId) || shared(a.ClassId, b.ClassId)) {
		return false
	}
	if !engine.Admissible(a, placementA) || !engine.Admissible(b, placementB) {
		return false
	}

	for _, rule := range engine.hardPairwise {
		switch parameters := rule.parameters.(type) {
		case *minGapParameters:
			if scopeKey(a, parameters.Scope) == scopeKey(b, parameters.Scope) &&
				placementA.Day == placementB.Day &&
				gap(placementA.Slot, placementB.Slot) < parameters.Minutes {
				return false
			}
		case *sameDayParameters:
			if a.CourseId == b.CourseId && placementA.Day != placementB.Day && sameDayApplies(parameters, a.CourseId) {
				return false
			}
		}
	}
	return true
}

// Admissible reports whether a single placement respects every hard static rule
func (engine *Engine) Admissible(session model.Session, placement model.Placement) bool {
	for _, rule := range engine.hardStatic {
		if engine.violatesStatic(rule, session, placement) {
			return false
		}
	}
	return true
}

func (engine *Engine) violatesStatic(rule Rule, session model.Session, placement model.Placement) bool {
	switch parameters := rule.parameters.(type) {
	case *fixedRoomParameters:
		return session.CourseId == parameters.CourseId && placement.RoomId != parameters.RoomId
	case *teacherAvailabilityParameters:
		teacher, _ := engine.catalog.Teacher(session.TeacherId)
		return !teacher.AvailableFor(placement.Day, placement.Start, placement.End)
	case *requiredEquipmentParameters:
		if session.CourseId != parameters.CourseId {
			return false
		}
		room, ok := engine.catalog.Room(placement.RoomId)
		return !ok || len(lo.Without(parameters.Equipment, room.Equipment...)) > 0
	case *timePreferenceParameters:
		teacher, _ := engine.catalog.Teacher(session.TeacherId)
		return !engine.preferenceMet(teacher, placement.Slot, engine.noon(parameters))
	}
	return false
}

func shared(a, b string) bool {
	return a != "" && a == b
}

func (engine *Engine) noon(parameters *timePreferenceParameters) model.Clock {
	if parameters != nil && parameters.Noon > 0 {
		return parameters.Noon
	}
	return engine.options.Noon
}

func (engine *Engine) preferenceMet(teacher model.Teacher, slot model.Slot, noon model.Clock) bool {
	switch teacher.TimePreference {
	case model.Morning:
		return slot.Start < noon
	case model.Afternoon:
		return slot.Start >= noon
	default:
		return true
	}
}

func scopeKey(session model.Session, scope string) string {
	switch scope {
	case TeacherScope:
		return session.TeacherId
	case ClassScope:
		return session.ClassId
	default:
		return session.CourseId
	}
}

// gap is the number of minutes between two slots of the same day, negative when they overlap
func gap(a, b model.Slot) int {
	return int(max(b.Start-a.End, a.Start-b.End))
}

func sameDayApplies(parameters *sameDayParameters, courseId string) bool {
	return len(parameters.CourseIds) == 0 || lo.Contains(parameters.CourseIds, courseId)
}
