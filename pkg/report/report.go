package report

import (
	"cmp"
	"slices"

	"github.com/limaJavier/termtable/pkg/constraint"
	"github.com/limaJavier/termtable/pkg/domain"
	"github.com/limaJavier/termtable/pkg/model"
	"github.com/samber/lo"
)

type RuleReport struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Severity    model.Severity `json:"severity"`
	Weight      float64        `json:"weight"`
	Violations  int            `json:"violations"`
	Diagnostics []string       `json:"diagnostics"`
}

type ScoreReport struct {
	Score           float64               `json:"score"`      // 0 to 1000
	Normalized      float64               `json:"normalized"` // 0 to 100
	FillRate        float64               `json:"fillRate"`   // Percentage of window cells holding at least one session
	ComplianceRatio float64               `json:"complianceRatio"`
	Conflicts       []constraint.Conflict `json:"conflicts"`
	Rules           []RuleReport          `json:"rules"`
	Suggestions     []string              `json:"suggestions"`
}

var remediations = map[constraint.Kind]string{
	constraint.MinGap:              "Spread the affected sessions further apart or lower the minimum gap",
	constraint.SameDay:             "Group the sessions of the affected courses on a single day or relax the same-day rule",
	constraint.DaySpread:           "Adjust the number of teaching days or the day-spread bounds of the affected courses and classes",
	constraint.FixedRoom:           "Free the fixed room at the required times or remove the fixed-room requirement",
	constraint.TeacherAvailability: "Extend the availability of the affected teachers or reassign their courses",
	constraint.RequiredEquipment:   "Equip more rooms or move the affected courses to equipped rooms",
	constraint.MaxConsecutive:      "Insert breaks between sessions or raise the consecutive-session limit of the affected teachers",
	constraint.TeacherWeeklyLoad:   "Reduce the weekly volume of the affected teachers or raise their contract ceiling",
	constraint.TeacherDailyLoad:    "Spread the sessions of the affected teachers over more days or raise their daily ceiling",
	constraint.TimePreference:      "Move sessions to the preferred half of the day of their teachers or mark them indifferent",
	constraint.NoOverlap:           "Add rooms, extend the operating window or relax hard rules to remove double bookings",
}

// Build scores a solution from any solver. Conflicts are always recomputed, never assumed absent.
func Build(engine *constraint.Engine, window domain.Window, solution model.Solution) ScoreReport {
	evaluation := engine.Score(solution)

	report := ScoreReport{
		Score:           evaluation.Score,
		Normalized:      evaluation.Score / 10,
		FillRate:        FillRate(window, solution),
		ComplianceRatio: evaluation.ComplianceRatio,
		Conflicts:       engine.Conflicts(solution),
		Rules: lo.Map(evaluation.Results, func(result constraint.RuleResult, _ int) RuleReport {
			return RuleReport{
				Id:          result.Rule.Id,
				Name:        result.Rule.Name,
				Severity:    result.Rule.Severity,
				Weight:      result.Rule.Weight,
				Violations:  result.Violations,
				Diagnostics: lo.Ternary(result.Diagnostics == nil, []string{}, result.Diagnostics),
			}
		}),
	}
	report.Suggestions = suggestions(evaluation.Results)
	return report
}

// FillRate is the percentage of the window's cells covered by at least one assignment
func FillRate(window domain.Window, solution model.Solution) float64 {
	total := window.TotalSlots()
	if total == 0 {
		return 0
	}
	occupied := make(map[[2]int]bool)
	for _, assignment := range solution {
		for _, cell := range window.Cells(assignment.Slot) {
			occupied[cell] = true
		}
	}
	return 100 * float64(len(occupied)) / float64(total)
}

// suggestions ranks one remediation per violated rule by descending weight
func suggestions(results []constraint.RuleResult) []string {
	violated := lo.Filter(results, func(result constraint.RuleResult, _ int) bool { return result.Violations > 0 })
	slices.SortStableFunc(violated, func(a, b constraint.RuleResult) int {
		return cmp.Compare(b.Rule.Weight, a.Rule.Weight)
	})
	return lo.Uniq(lo.Map(violated, func(result constraint.RuleResult, _ int) string {
		return remediations[result.Rule.Kind]
	}))
}
