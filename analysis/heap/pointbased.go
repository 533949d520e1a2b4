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

package heap

import (
	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/lattice"
	"github.com/argus-static/argus/analysis/symbolic"
)

// PointBased is the point-based heap abstraction: an environment from identifiers to
// allocation-site sets, plus the replacement list produced by the last transition.
// Replacements are transient: they do not participate in the order, and joins concatenate
// them so the composite state can thread every pending substitution into the value domain.
type PointBased struct {
	env  lattice.Environment[SiteSet]
	subs []abstract.Replacement
}

// New returns the empty point-based heap.
func New() PointBased {
	return PointBased{env: lattice.NewEnvironment(SiteSet{})}
}

// Environment returns the heap environment.
func (h PointBased) Environment() lattice.Environment[SiteSet] { return h.env }

// SitesOf implements symbolic.HeapContext.
func (h PointBased) SitesOf(id symbolic.Identifier) ([]*symbolic.AllocationSite, bool) {
	if !h.env.Has(id) {
		return nil, false
	}
	return h.env.GetState(id).Sites(), true
}

// IsAllocated implements symbolic.HeapContext: a location is allocated when some binding
// references a site at it.
func (h PointBased) IsAllocated(loc symbolic.Location) bool {
	for _, id := range h.env.Identifiers() {
		if _, ok := h.env.GetState(id).ContainsLoc(loc); ok {
			return true
		}
	}
	return false
}

// Rewrite implements abstract.HeapDomain.
func (h PointBased) Rewrite(expr symbolic.Expression, pp symbolic.ProgramPoint) (symbolic.ExpressionSet, error) {
	return symbolic.Rewriter{Heap: h}.Rewrite(expr, pp)
}

// Replacements implements abstract.HeapDomain.
func (h PointBased) Replacements() []abstract.Replacement { return h.subs }

// strongSiteAt returns the strong site stored at loc in some binding, if any.
func (h PointBased) strongSiteAt(loc symbolic.Location) (*symbolic.AllocationSite, bool) {
	for _, id := range h.env.Identifiers() {
		if site, ok := h.env.GetState(id).ContainsLoc(loc); ok && !site.IsWeak() {
			return site, true
		}
	}
	return nil, false
}

// weaken collapses the strong site at loc into its weak version across the whole
// environment, recording the replacement.
func (h PointBased) weaken(loc symbolic.Location) PointBased {
	strong, ok := h.strongSiteAt(loc)
	if !ok {
		return h
	}
	h.env = h.env.MapValues(func(s SiteSet) SiteSet { return s.Weaken(loc) })
	h.subs = append(h.subs, abstract.Replacement{
		Sources: []symbolic.Identifier{strong},
		Targets: []symbolic.Identifier{strong.ToWeak()},
	})
	return h
}

// weakenReallocated weakens the sites that the rewriting re-allocated: a weak site in the
// rewritten set with a strong counterpart in the environment means the allocation happened
// again along this path.
func (h PointBased) weakenReallocated(rewritten symbolic.ExpressionSet) PointBased {
	for _, e := range rewritten.Elements() {
		var site *symbolic.AllocationSite
		switch v := e.(type) {
		case *symbolic.AllocationSite:
			site = v
		case *symbolic.PointerIdentifier:
			site = v.Site
		default:
			continue
		}
		if site.IsWeak() {
			h = h.weaken(site.Loc())
		}
	}
	return h
}

// Assign implements abstract.Domain following the point-based rules: pointer results
// update the points-to set of id (strongly unless id is weak), assignments into an
// allocation site weaken the site, and pure value assignments leave the heap unchanged.
func (h PointBased) Assign(id symbolic.Identifier, expr symbolic.Expression, pp symbolic.ProgramPoint) (PointBased, error) {
	if h.env.IsBottom() {
		return h, nil
	}
	out := PointBased{env: h.env}
	rewritten, err := out.Rewrite(expr, pp)
	if err != nil {
		return h, err
	}
	out = out.weakenReallocated(rewritten)

	if site, ok := id.(*symbolic.AllocationSite); ok {
		// Assignment into a heap region: the region summarizes every write, so the site
		// degrades to weak and the value domain hears about it.
		if !site.IsWeak() {
			out.env = out.env.MapValues(func(s SiteSet) SiteSet { return s.Weaken(site.Loc()) })
			out.subs = append(out.subs, abstract.Replacement{
				Sources: []symbolic.Identifier{site},
				Targets: []symbolic.Identifier{site.ToWeak()},
			})
		}
		return out, nil
	}

	var sites []*symbolic.AllocationSite
	for _, e := range rewritten.Elements() {
		switch v := e.(type) {
		case *symbolic.AllocationSite:
			sites = append(sites, v)
		case *symbolic.PointerIdentifier:
			sites = append(sites, v.Site)
		}
	}
	switch {
	case len(sites) > 0:
		out.env = out.env.Assign(id, NewSiteSet(sites...))
	case out.env.Has(id):
		// id no longer points into the heap
		out.env = out.env.Forget(id)
	}
	return out, nil
}

// SmallStepSemantics implements abstract.Domain: no environment change except for the
// rewriting effects of the visited expression (re-allocations weaken their site).
func (h PointBased) SmallStepSemantics(expr symbolic.Expression, pp symbolic.ProgramPoint) (PointBased, error) {
	if h.env.IsBottom() {
		return h, nil
	}
	out := PointBased{env: h.env}
	rewritten, err := out.Rewrite(expr, pp)
	if err != nil {
		return h, err
	}
	return out.weakenReallocated(rewritten), nil
}

// Assume implements abstract.Domain: the heap cannot refine on conditions.
func (h PointBased) Assume(expr symbolic.Expression, src, dst symbolic.ProgramPoint) (PointBased, error) {
	return h.SmallStepSemantics(expr, src)
}

// Satisfies implements abstract.Domain.
func (h PointBased) Satisfies(symbolic.Expression, symbolic.ProgramPoint) abstract.Satisfiability {
	return abstract.Unknown
}

// PushScope implements abstract.Domain.
func (h PointBased) PushScope(t symbolic.ScopeToken) (PointBased, error) {
	env, err := h.env.PushScope(t)
	if err != nil {
		return h, err
	}
	return PointBased{env: env}, nil
}

// PopScope implements abstract.Domain.
func (h PointBased) PopScope(t symbolic.ScopeToken) (PointBased, error) {
	env, err := h.env.PopScope(t)
	if err != nil {
		return h, err
	}
	return PointBased{env: env}, nil
}

// Forget implements abstract.Domain.
func (h PointBased) Forget(id symbolic.Identifier) (PointBased, error) {
	return PointBased{env: h.env.Forget(id)}, nil
}

// ForgetIf implements abstract.Domain.
func (h PointBased) ForgetIf(pred func(symbolic.Identifier) bool) (PointBased, error) {
	return PointBased{env: h.env.ForgetIf(pred)}, nil
}

// Top implements Element.
func (h PointBased) Top() PointBased { return PointBased{env: h.env.Top()} }

// Bottom implements Element.
func (h PointBased) Bottom() PointBased { return PointBased{env: h.env.Bottom()} }

// IsTop implements Element.
func (h PointBased) IsTop() bool { return h.env.IsTop() }

// IsBottom implements Element.
func (h PointBased) IsBottom() bool { return h.env.IsBottom() }

// LessOrEqual implements Element: environments only, substitutions are transient.
func (h PointBased) LessOrEqual(other PointBased) bool {
	return h.env.LessOrEqual(other.env)
}

// Equal implements Element.
func (h PointBased) Equal(other PointBased) bool {
	return h.env.Equal(other.env)
}

// Lub implements Element: environment-wise join; substitutions concatenate so none of the
// pending renamings are lost before the composite applies them.
func (h PointBased) Lub(other PointBased) PointBased {
	return PointBased{
		env:  h.env.Lub(other.env),
		subs: append(append([]abstract.Replacement{}, h.subs...), other.subs...),
	}
}

// Glb implements Element.
func (h PointBased) Glb(other PointBased) PointBased {
	return PointBased{env: h.env.Glb(other.env)}
}

// Widening implements Element: the allocation-site set of a program is finite, so the
// join already terminates ascending chains.
func (h PointBased) Widening(other PointBased) PointBased {
	return h.Lub(other)
}

// Narrowing implements Element.
func (h PointBased) Narrowing(other PointBased) PointBased {
	return PointBased{env: h.env.Narrowing(other.env)}
}

func (h PointBased) String() string { return h.env.String() }
