// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package domains

import (
	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/lattice"
	"github.com/argus-static/argus/analysis/symbolic"
)

// ReachDefs tracks, for every identifier, the set of program locations whose assignment
// may reach the current point. Unlike the evaluation-based domains, an assignment ignores
// the assigned expression and records the location of the assigning statement; joins take
// the union of the definition sets.
type ReachDefs struct {
	env lattice.Environment[lattice.Powerset[symbolic.Location]]
}

// NewReachDefs returns the empty reaching-definitions domain.
func NewReachDefs() ReachDefs {
	return ReachDefs{env: lattice.NewEnvironment(lattice.Powerset[symbolic.Location]{})}
}

// Definitions returns the locations whose assignment of id may reach this state.
func (d ReachDefs) Definitions(id symbolic.Identifier) []symbolic.Location {
	return d.env.GetState(id).Elements()
}

// Assign implements abstract.Domain: id was last defined at pp.
func (d ReachDefs) Assign(id symbolic.Identifier, _ symbolic.Expression, pp symbolic.ProgramPoint) (ReachDefs, error) {
	return ReachDefs{env: d.env.Assign(id, lattice.NewPowerset(pp.Location()))}, nil
}

// SmallStepSemantics implements abstract.Domain: evaluation defines nothing.
func (d ReachDefs) SmallStepSemantics(symbolic.Expression, symbolic.ProgramPoint) (ReachDefs, error) {
	return d, nil
}

// Assume implements abstract.Domain: conditions define nothing.
func (d ReachDefs) Assume(symbolic.Expression, symbolic.ProgramPoint, symbolic.ProgramPoint) (ReachDefs, error) {
	return d, nil
}

// Satisfies implements abstract.Domain.
func (d ReachDefs) Satisfies(symbolic.Expression, symbolic.ProgramPoint) abstract.Satisfiability {
	return abstract.Unknown
}

// ApplyReplacement implements abstract.ValueDomain.
func (d ReachDefs) ApplyReplacement(r abstract.Replacement) (ReachDefs, error) {
	joined := lattice.Powerset[symbolic.Location]{}.Bottom()
	for _, s := range r.Sources {
		joined = joined.Lub(d.env.GetState(s))
	}
	out := d.env
	targets := map[string]bool{}
	for _, t := range r.Targets {
		targets[t.Name()] = true
		out = out.Assign(t, joined)
	}
	for _, s := range r.Sources {
		if !targets[s.Name()] {
			out = out.Forget(s)
		}
	}
	return ReachDefs{env: out}, nil
}

// PushScope implements abstract.Domain.
func (d ReachDefs) PushScope(t symbolic.ScopeToken) (ReachDefs, error) {
	env, err := d.env.PushScope(t)
	if err != nil {
		return d, err
	}
	return ReachDefs{env: env}, nil
}

// PopScope implements abstract.Domain.
func (d ReachDefs) PopScope(t symbolic.ScopeToken) (ReachDefs, error) {
	env, err := d.env.PopScope(t)
	if err != nil {
		return d, err
	}
	return ReachDefs{env: env}, nil
}

// Forget implements abstract.Domain.
func (d ReachDefs) Forget(id symbolic.Identifier) (ReachDefs, error) {
	return ReachDefs{env: d.env.Forget(id)}, nil
}

// ForgetIf implements abstract.Domain.
func (d ReachDefs) ForgetIf(pred func(symbolic.Identifier) bool) (ReachDefs, error) {
	return ReachDefs{env: d.env.ForgetIf(pred)}, nil
}

// Top implements Element.
func (d ReachDefs) Top() ReachDefs { return ReachDefs{env: d.env.Top()} }

// Bottom implements Element.
func (d ReachDefs) Bottom() ReachDefs { return ReachDefs{env: d.env.Bottom()} }

// IsTop implements Element.
func (d ReachDefs) IsTop() bool { return d.env.IsTop() }

// IsBottom implements Element.
func (d ReachDefs) IsBottom() bool { return d.env.IsBottom() }

// LessOrEqual implements Element.
func (d ReachDefs) LessOrEqual(other ReachDefs) bool { return d.env.LessOrEqual(other.env) }

// Equal implements Element.
func (d ReachDefs) Equal(other ReachDefs) bool { return d.env.Equal(other.env) }

// Lub implements Element.
func (d ReachDefs) Lub(other ReachDefs) ReachDefs { return ReachDefs{env: d.env.Lub(other.env)} }

// Glb implements Element.
func (d ReachDefs) Glb(other ReachDefs) ReachDefs { return ReachDefs{env: d.env.Glb(other.env)} }

// Widening implements Element: definition points are finite per program.
func (d ReachDefs) Widening(other ReachDefs) ReachDefs { return d.Lub(other) }

// Narrowing implements Element.
func (d ReachDefs) Narrowing(other ReachDefs) ReachDefs {
	return ReachDefs{env: d.env.Narrowing(other.env)}
}

func (d ReachDefs) String() string { return d.env.String() }
