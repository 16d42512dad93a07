package constraint

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/limaJavier/termtable/pkg/model"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

var validate = validator.New()

// Scopes grouping sessions together
const (
	CourseScope  = "course"
	TeacherScope = "teacher"
	ClassScope   = "class"
)

// ImplicitNoOverlapId identifies the double-booking rule added when the repository does not define one
const ImplicitNoOverlapId = "implicit-no-overlap"

// Rule is a loaded constraint with its parameters decoded for its kind
type Rule struct {
	Id            string
	Name          string
	Kind          Kind
	Severity      model.Severity
	Category      model.Category
	Weight        float64
	SeverityLevel int

	parameters any
}

func (rule Rule) Hard() bool {
	return rule.Severity == model.Hard
}

//** Parameters

type minGapParameters struct {
	Minutes int    `mapstructure:"minutes" validate:"gt=0"`
	Scope   string `mapstructure:"scope" validate:"omitempty,oneof=course teacher class"`
}

type sameDayParameters struct {
	CourseIds []string `mapstructure:"courseIds"`
}

type daySpreadParameters struct {
	MinDays *int   `mapstructure:"minDays" validate:"omitempty,gte=1,lte=7"`
	MaxDays *int   `mapstructure:"maxDays" validate:"omitempty,gte=1,lte=7"`
	Scope   string `mapstructure:"scope" validate:"omitempty,oneof=course class"`
}

type fixedRoomParameters struct {
	CourseId string `mapstructure:"courseId" validate:"required"`
	RoomId   string `mapstructure:"roomId" validate:"required"`
}

type teacherAvailabilityParameters struct{}

type requiredEquipmentParameters struct {
	CourseId  string   `mapstructure:"courseId" validate:"required"`
	Equipment []string `mapstructure:"equipment" validate:"required,min=1,dive,required"`
}

type maxConsecutiveParameters struct {
	Max              *int `mapstructure:"max" validate:"omitempty,gte=1"`
	ThresholdMinutes *int `mapstructure:"thresholdMinutes" validate:"omitempty,gte=0"`
}

type loadParameters struct {
	TeacherId  string `mapstructure:"teacherId"`
	MaxMinutes *int   `mapstructure:"maxMinutes" validate:"omitempty,gt=0"`
}

type timePreferenceParameters struct {
	Noon model.Clock `mapstructure:"noon" validate:"gte=0,lte=1440"`
}

type noOverlapParameters struct{}

func newParameters(kind Kind) any {
	switch kind {
	case MinGap:
		return &minGapParameters{}
	case SameDay:
		return &sameDayParameters{}
	case DaySpread:
		return &daySpreadParameters{}
	case FixedRoom:
		return &fixedRoomParameters{}
	case TeacherAvailability:
		return &teacherAvailabilityParameters{}
	case RequiredEquipment:
		return &requiredEquipmentParameters{}
	case MaxConsecutive:
		return &maxConsecutiveParameters{}
	case TeacherWeeklyLoad, TeacherDailyLoad:
		return &loadParameters{}
	case TimePreference:
		return &timePreferenceParameters{}
	case NoOverlap:
		return &noOverlapParameters{}
	}
	panic(fmt.Sprintf("unexpected rule kind %v", kind))
}

//** Loading

// Load turns the active constraints of the repository into rules, decoding and validating their parameters.
// Inactive constraints are skipped. A no_overlap rule is appended when none is active.
func Load(constraints []model.Constraint) ([]Rule, error) {
	rules := make([]Rule, 0, len(constraints)+1)
	for _, constraint := range constraints {
		if !constraint.Active {
			continue
		}
		rule, err := loadRule(constraint)
		if err != nil {
			return nil, model.ConstraintDefinitionError{ConstraintId: constraint.Id, Name: constraint.Name, Err: err}
		}
		rules = append(rules, rule)
	}

	if !lo.ContainsBy(rules, func(rule Rule) bool { return rule.Kind == NoOverlap }) {
		rules = append(rules, Rule{
			Id:            ImplicitNoOverlapId,
			Name:          NoOverlap.String(),
			Kind:          NoOverlap,
			Severity:      model.Hard,
			Category:      model.Resource,
			Weight:        10,
			SeverityLevel: 10,
			parameters:    &noOverlapParameters{},
		})
	}
	return rules, nil
}

func loadRule(constraint model.Constraint) (Rule, error) {
	kind, err := ParseKind(constraint.Name)
	if err != nil {
		return Rule{}, err
	}
	if constraint.Weight < 0.1 || constraint.Weight > 10 {
		return Rule{}, fmt.Errorf("weight %v outside [0.1, 10]", constraint.Weight)
	}
	if constraint.Severity != model.Hard && constraint.Severity != model.Soft {
		return Rule{}, fmt.Errorf("unknown severity %q", constraint.Severity)
	}

	parameters := newParameters(kind)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           parameters,
		ErrorUnused:      true,
		WeaklyTypedInput: true, // CSV parameters arrive as strings
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		return Rule{}, err
	}
	if err := decoder.Decode(constraint.Parameters); err != nil {
		return Rule{}, fmt.Errorf("cannot decode parameters: %w", err)
	}
	if err := validate.Struct(parameters); err != nil {
		return Rule{}, fmt.Errorf("invalid parameters: %w", err)
	}

	if spread, ok := parameters.(*daySpreadParameters); ok {
		if spread.MinDays == nil && spread.MaxDays == nil {
			return Rule{}, fmt.Errorf("day_spread needs minDays or maxDays")
		} else if spread.MinDays != nil && spread.MaxDays != nil && *spread.MinDays > *spread.MaxDays {
			return Rule{}, fmt.Errorf("minDays %d is greater than maxDays %d", *spread.MinDays, *spread.MaxDays)
		}
	}

	return Rule{
		Id:            constraint.Id,
		Name:          constraint.Name,
		Kind:          kind,
		Severity:      constraint.Severity,
		Category:      constraint.Category,
		Weight:        constraint.Weight,
		SeverityLevel: constraint.SeverityLevel,
		parameters:    parameters,
	}, nil
}
