package solver

import (
	"github.com/limaJavier/termtable/pkg/constraint"
	"github.com/limaJavier/termtable/pkg/domain"
	"github.com/limaJavier/termtable/pkg/model"
)

// Problem is everything a solver needs for one run. Domains are indexed like Sessions.
type Problem struct {
	Sessions []model.Session
	Domains  *domain.Domains
	Window   domain.Window
	Engine   *constraint.Engine
}

type Solver interface {
	Solve(problem Problem) (model.Solution, error)
}
