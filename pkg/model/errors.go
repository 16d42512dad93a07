package model

import "fmt"

// InvalidDomainError is returned before any search when a session has no candidate placement
type InvalidDomainError struct {
	SessionId string
	CourseId  string
	Reason    string
}

func (err InvalidDomainError) Error() string {
	return fmt.Sprintf("session %q of course %q has an empty domain: %v", err.SessionId, err.CourseId, err.Reason)
}

// InfeasibleScheduleError is returned by the exact solver when it could not complete the timetable.
// BudgetExhausted distinguishes a search cut by the expansion budget from a fully explored search space.
type InfeasibleScheduleError struct {
	Expansions      int
	Budget          int
	BudgetExhausted bool
	SessionId       string
}

func (err InfeasibleScheduleError) Error() string {
	if err.BudgetExhausted {
		return fmt.Sprintf("no schedule found within the expansion budget (%d/%d expansions)", err.Expansions, err.Budget)
	}
	if err.SessionId != "" {
		return fmt.Sprintf("no schedule exists: session %q cannot be placed (%d expansions)", err.SessionId, err.Expansions)
	}
	return fmt.Sprintf("no schedule exists (%d expansions)", err.Expansions)
}

// ConstraintDefinitionError reports a rule that cannot be loaded
type ConstraintDefinitionError struct {
	ConstraintId string
	Name         string
	Err          error
}

func (err ConstraintDefinitionError) Error() string {
	return fmt.Sprintf("invalid constraint %q (%v): %v", err.ConstraintId, err.Name, err.Err)
}

func (err ConstraintDefinitionError) Unwrap() error {
	return err.Err
}

// InputError reports a malformed input record
type InputError struct {
	Field string
	Err   error
}

func (err InputError) Error() string {
	return fmt.Sprintf("invalid input %v: %v", err.Field, err.Err)
}

func (err InputError) Unwrap() error {
	return err.Err
}
