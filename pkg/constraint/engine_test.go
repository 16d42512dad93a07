package constraint

import (
	"errors"
	"testing"

	"github.com/limaJavier/termtable/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture holds two classes taught by a morning teacher (t1) and an afternoon teacher (t2)
func fixture(t *testing.T, constraints ...model.Constraint) (*Engine, map[string]model.Session) {
	t.Helper()
	input := model.Input{
		Courses: []model.Course{
			{Id: "math", ClassId: "c1", TeacherId: "t1", WeeklyVolumeMinutes: 240, StandardSessionMinutes: 60, CourseType: model.Lecture},
			{Id: "chem", ClassId: "c2", TeacherId: "t2", WeeklyVolumeMinutes: 120, StandardSessionMinutes: 60, CourseType: model.Lab},
		},
		Teachers: []model.Teacher{
			{Id: "t1", WeeklyContractMinutes: 180, MaxDailyMinutes: 120, TimePreference: model.Morning},
			{Id: "t2", TimePreference: model.Afternoon, Availability: []model.AvailabilityInterval{
				{Day: 0, Start: 8 * 60, End: 10 * 60, Available: false},
			}},
		},
		Rooms: []model.Room{
			{Id: "r1", Capacity: 30, RoomType: "classroom", Equipment: []string{"projector"}},
			{Id: "r2", Capacity: 30, RoomType: "laboratory"},
		},
		Constraints: constraints,
	}
	sessions := []model.Session{
		{Id: "math#1", CourseId: "math", TeacherId: "t1", ClassId: "c1", DurationMinutes: 60, CourseType: model.Lecture, SequenceIndex: 0},
		{Id: "math#2", CourseId: "math", TeacherId: "t1", ClassId: "c1", DurationMinutes: 60, CourseType: model.Lecture, SequenceIndex: 1},
		{Id: "math#3", CourseId: "math", TeacherId: "t1", ClassId: "c1", DurationMinutes: 60, CourseType: model.Lecture, SequenceIndex: 2},
		{Id: "math#4", CourseId: "math", TeacherId: "t1", ClassId: "c1", DurationMinutes: 60, CourseType: model.Lecture, SequenceIndex: 3},
		{Id: "chem#1", CourseId: "chem", TeacherId: "t2", ClassId: "c2", DurationMinutes: 60, CourseType: model.Lab, SequenceIndex: 0},
		{Id: "chem#2", CourseId: "chem", TeacherId: "t2", ClassId: "c2", DurationMinutes: 60, CourseType: model.Lab, SequenceIndex: 1},
	}

	rules, err := Load(constraints)
	require.NoError(t, err)
	engine, err := NewEngine(rules, model.NewCatalog(input, sessions), DefaultOptions())
	require.NoError(t, err)

	byId := make(map[string]model.Session)
	for _, session := range sessions {
		byId[session.Id] = session
	}
	return engine, byId
}

func at(day int, hour int, room string) model.Placement {
	return model.Placement{Slot: model.Slot{Day: day, Start: model.Clock(hour * 60), End: model.Clock(hour*60 + 60)}, RoomId: room}
}

func assign(session string, placement model.Placement) model.Assignment {
	return model.Assignment{SessionId: session, Placement: placement}
}

func TestConsistentMutualExclusion(t *testing.T) {
	// Arrange
	engine, sessions := fixture(t)
	math1, math2, chem1 := sessions["math#1"], sessions["math#2"], sessions["chem#1"]

	// Act & Assert
	assert.False(t, engine.Consistent(math1, at(1, 9, "r1"), chem1, at(1, 9, "r1")), "same room")
	assert.False(t, engine.Consistent(math1, at(1, 9, "r1"), math2, at(1, 9, "r2")), "same teacher and class")
	assert.True(t, engine.Consistent(math1, at(1, 9, "r1"), chem1, at(1, 9, "r2")), "disjoint resources")
	assert.True(t, engine.Consistent(math1, at(1, 9, "r1"), math2, at(1, 10, "r1")), "back to back")
	assert.True(t, engine.Consistent(math1, at(1, 9, "r1"), math2, at(2, 9, "r1")), "different days")
}

func TestConsistentHardPairwiseRules(t *testing.T) {
	// Arrange
	engine, sessions := fixture(t,
		constraintOf("min_gap", model.Hard, map[string]any{"minutes": 60}),
		constraintOf("same_day", model.Hard, map[string]any{"courseIds": []string{"chem"}}),
	)

	// Act & Assert
	assert.False(t, engine.Consistent(sessions["math#1"], at(1, 9, "r1"), sessions["math#2"], at(1, 10, "r1")))
	assert.True(t, engine.Consistent(sessions["math#1"], at(1, 9, "r1"), sessions["math#2"], at(1, 11, "r1")))
	assert.True(t, engine.Consistent(sessions["math#1"], at(1, 9, "r1"), sessions["math#2"], at(3, 10, "r1")))
	assert.False(t, engine.Consistent(sessions["chem#1"], at(1, 13, "r2"), sessions["chem#2"], at(2, 13, "r2")))
	assert.True(t, engine.Consistent(sessions["chem#1"], at(1, 13, "r2"), sessions["chem#2"], at(1, 15, "r2")))
}

func TestAdmissibleHardStaticRules(t *testing.T) {
	// Arrange
	engine, sessions := fixture(t,
		constraintOf("fixed_room", model.Hard, map[string]any{"courseId": "chem", "roomId": "r2"}),
		constraintOf("teacher_availability", model.Hard, nil),
		constraintOf("required_equipment", model.Hard, map[string]any{"courseId": "math", "equipment": "projector"}),
		constraintOf("time_preference", model.Soft, nil),
	)

	// Act & Assert
	assert.True(t, engine.Admissible(sessions["chem#1"], at(1, 13, "r2")))
	assert.False(t, engine.Admissible(sessions["chem#1"], at(1, 13, "r1")), "fixed room")
	assert.False(t, engine.Admissible(sessions["chem#1"], at(0, 9, "r2")), "teacher unavailable")
	assert.False(t, engine.Admissible(sessions["math#1"], at(0, 9, "r2")), "missing projector")
	assert.True(t, engine.Admissible(sessions["math#1"], at(0, 15, "r1")), "soft preference is not enforced")
	assert.False(t, engine.Consistent(sessions["chem#1"], at(1, 13, "r1"), sessions["math#1"], at(2, 9, "r1")))
}

func TestNewEngineRejectsUnknownReferences(t *testing.T) {
	// Arrange
	rules, err := Load([]model.Constraint{constraintOf("fixed_room", model.Hard, map[string]any{"courseId": "math", "roomId": "r9"})})
	require.NoError(t, err)

	// Act
	_, err = NewEngine(rules, model.NewCatalog(model.Input{Courses: []model.Course{{Id: "math"}}}, nil), DefaultOptions())

	// Assert
	var definitionErr model.ConstraintDefinitionError
	require.True(t, errors.As(err, &definitionErr))
	assert.Equal(t, "fixed_room-rule", definitionErr.ConstraintId)
}

func TestScoreEmptySolution(t *testing.T) {
	// Arrange
	engine, _ := fixture(t, constraintOf("time_preference", model.Soft, nil))

	// Act
	evaluation := engine.Score(model.Solution{})

	// Assert
	assert.Equal(t, BaseScore, evaluation.Score)
	assert.Equal(t, 1.0, evaluation.ComplianceRatio)
	assert.Len(t, evaluation.Results, 2)
}

func TestScoreMorningPreferenceAfternoonAssignment(t *testing.T) {
	// Arrange
	preference := constraintOf("time_preference", model.Soft, nil)
	preference.Weight = 2
	engine, _ := fixture(t, preference)
	solution := model.Solution{
		assign("math#1", at(1, 15, "r1")),
		assign("math#2", at(2, 9, "r1")),
		assign("chem#1", at(1, 14, "r2")),
	}

	// Act
	evaluation := engine.Score(solution)

	// Assert
	require.Len(t, evaluation.Results, 2)
	assert.Equal(t, 1, evaluation.Results[0].Violations)
	assert.Contains(t, evaluation.Results[0].Diagnostics[0], "math#1")
	assert.Equal(t, 0, evaluation.Results[1].Violations)
	assert.Equal(t, 980.0, evaluation.Score)
	assert.Equal(t, 0.5, evaluation.ComplianceRatio)
	assert.Equal(t, 1, engine.UnmetPreferences(solution))
}

func TestScoreConflictsAndFloor(t *testing.T) {
	// Arrange
	engine, _ := fixture(t)
	overlapping := model.Solution{
		assign("math#1", at(1, 9, "r1")),
		assign("chem#1", at(1, 9, "r1")),
	}
	crowded := model.Solution{}
	for _, session := range []string{"math#1", "math#2", "math#3", "math#4"} {
		crowded = append(crowded, assign(session, at(1, 9, "r1")))
	}

	// Act
	conflicts := engine.Conflicts(overlapping)
	evaluation := engine.Score(overlapping)
	floored := engine.Score(crowded)

	// Assert
	require.Len(t, conflicts, 1)
	assert.Equal(t, Conflict{SessionA: "math#1", SessionB: "chem#1", Dimension: RoomDimension, Resource: "r1", Day: 1}, conflicts[0])
	assert.Equal(t, 900.0, evaluation.Score)
	assert.Equal(t, 0.0, evaluation.ComplianceRatio)
	// 6 pairs, each sharing room, teacher and class
	assert.Len(t, engine.Conflicts(crowded), 18)
	assert.Equal(t, 0.0, floored.Score)
}

func TestScoreIsIdempotent(t *testing.T) {
	// Arrange
	engine, _ := fixture(t,
		constraintOf("time_preference", model.Soft, nil),
		constraintOf("min_gap", model.Soft, map[string]any{"minutes": 30}),
		constraintOf("day_spread", model.Soft, map[string]any{"minDays": 3}),
	)
	solution := model.Solution{
		assign("math#1", at(1, 15, "r1")),
		assign("math#2", at(1, 16, "r1")),
		assign("chem#1", at(1, 15, "r1")),
		assign("chem#2", at(3, 9, "r2")),
	}

	// Act
	first := engine.Score(solution)
	second := engine.Score(solution)

	// Assert
	assert.Equal(t, first, second)
}

func TestMaxConsecutive(t *testing.T) {
	// Arrange
	engine, _ := fixture(t, constraintOf("max_consecutive", model.Soft, map[string]any{"max": 2}))
	rule := engine.Rules()[0]
	backToBack := model.Solution{
		assign("math#1", at(2, 8, "r1")),
		assign("math#2", at(2, 9, "r1")),
		assign("math#3", at(2, 10, "r1")),
		assign("math#4", at(2, 11, "r1")),
	}
	withBreak := model.Solution{
		assign("math#1", at(2, 8, "r1")),
		assign("math#2", at(2, 9, "r1")),
		assign("math#3", at(2, 11, "r1")),
		assign("math#4", at(2, 12, "r1")),
	}

	// Act
	violations, diagnostics := engine.Evaluate(rule, backToBack)
	brokenViolations, _ := engine.Evaluate(rule, withBreak)

	// Assert
	assert.Equal(t, 2, violations)
	assert.Len(t, diagnostics, 2)
	assert.Equal(t, 0, brokenViolations)
	// The fitness measure follows the loaded limit of 2
	assert.Equal(t, 2, engine.ExcessConsecutive(backToBack))
	assert.Equal(t, 0, engine.ExcessConsecutive(withBreak))
}

func TestMaxConsecutiveThreshold(t *testing.T) {
	// Arrange
	engine, _ := fixture(t, constraintOf("max_consecutive", model.Soft, map[string]any{"max": 1, "thresholdMinutes": 60}))
	solution := model.Solution{
		assign("math#1", at(2, 8, "r1")),
		assign("math#2", at(2, 10, "r1")),
	}

	// Act
	violations, _ := engine.Evaluate(engine.Rules()[0], solution)

	// Assert
	assert.Equal(t, 1, violations)
}

func TestSharedMeasuresFollowLoadedRules(t *testing.T) {
	// Arrange
	defaults, _ := fixture(t)
	configured, _ := fixture(t,
		constraintOf("max_consecutive", model.Soft, map[string]any{"max": 1}),
		constraintOf("time_preference", model.Soft, map[string]any{"noon": "10:00"}),
	)
	// Morning teacher t1, back to back from 10:00
	solution := model.Solution{
		assign("math#1", at(2, 10, "r1")),
		assign("math#2", at(2, 11, "r1")),
	}

	// Act
	consecutiveViolations, _ := configured.Evaluate(configured.Rules()[0], solution)
	preferenceViolations, _ := configured.Evaluate(configured.Rules()[1], solution)

	// Assert
	assert.Equal(t, 0, defaults.ExcessConsecutive(solution))
	assert.Equal(t, 0, defaults.UnmetPreferences(solution))
	assert.Equal(t, consecutiveViolations, configured.ExcessConsecutive(solution))
	assert.Equal(t, 1, configured.ExcessConsecutive(solution))
	assert.Equal(t, preferenceViolations, configured.UnmetPreferences(solution))
	assert.Equal(t, 2, configured.UnmetPreferences(solution))
}

func TestEmptyResourceIdsNeverCollide(t *testing.T) {
	// Arrange
	engine, _ := fixture(t)
	a := model.Session{Id: "a#1", CourseId: "a", DurationMinutes: 60}
	b := model.Session{Id: "b#1", CourseId: "b", DurationMinutes: 60}

	// Act
	consistent := engine.Consistent(a, at(1, 9, "r1"), b, at(1, 9, "r2"))
	sameRoom := engine.Consistent(a, at(1, 9, "r1"), b, at(1, 9, "r1"))

	// Assert
	assert.True(t, consistent)
	assert.False(t, sameRoom)
}

func TestLoadRules(t *testing.T) {
	// Arrange
	engine, _ := fixture(t,
		constraintOf("teacher_weekly_load", model.Soft, nil),
		constraintOf("teacher_daily_load", model.Soft, nil),
		constraintOf("teacher_weekly_load", model.Soft, map[string]any{"teacherId": "t2", "maxMinutes": 60}),
	)
	rules := engine.Rules()
	solution := model.Solution{
		assign("math#1", at(0, 8, "r1")),
		assign("math#2", at(0, 9, "r1")),
		assign("math#3", at(0, 10, "r1")),
		assign("math#4", at(1, 8, "r1")),
		assign("chem#1", at(1, 13, "r2")),
	}

	// Act
	weekly, _ := engine.Evaluate(rules[0], solution)
	daily, dailyDiagnostics := engine.Evaluate(rules[1], solution)
	chemWeekly, _ := engine.Evaluate(rules[2], solution)

	// Assert
	assert.Equal(t, 1, weekly, "240 minutes over a 180 minute contract")
	assert.Equal(t, 1, daily, "180 minutes on Monday over 120")
	assert.Contains(t, dailyDiagnostics[0], "Monday")
	assert.Equal(t, 0, chemWeekly)
}

func TestDayRules(t *testing.T) {
	// Arrange
	engine, _ := fixture(t,
		constraintOf("same_day", model.Soft, nil),
		constraintOf("day_spread", model.Soft, map[string]any{"minDays": 3}),
		constraintOf("day_spread", model.Soft, map[string]any{"maxDays": 1, "scope": "class"}),
		constraintOf("min_gap", model.Soft, map[string]any{"minutes": 90, "scope": "class"}),
	)
	rules := engine.Rules()
	solution := model.Solution{
		assign("math#1", at(0, 8, "r1")),
		assign("math#2", at(0, 9, "r1")),
		assign("math#3", at(2, 8, "r1")),
		assign("chem#1", at(1, 13, "r2")),
		assign("chem#2", at(1, 16, "r2")),
	}

	// Act
	sameDay, _ := engine.Evaluate(rules[0], solution)
	minSpread, _ := engine.Evaluate(rules[1], solution)
	maxSpread, _ := engine.Evaluate(rules[2], solution)
	minGap, _ := engine.Evaluate(rules[3], solution)

	// Assert
	assert.Equal(t, 1, sameDay, "math meets on Monday and Wednesday")
	assert.Equal(t, 2, minSpread, "math spreads over 2 of 3 days and chem over 1 of 2")
	assert.Equal(t, 1, maxSpread, "class c1 meets on 2 days")
	assert.Equal(t, 1, minGap, "math#1 and math#2 are back to back")
}
