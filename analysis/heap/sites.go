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

// Package heap implements the point-based heap abstraction: identifiers map to sets of
// allocation sites, and heap mutations travel to the value domain as identifier
// replacements.
package heap

import (
	"sort"
	"strings"

	"github.com/argus-static/argus/analysis/symbolic"
)

// SiteSet is the set of allocation sites an identifier may point to, keyed by allocation
// location. Sites at the same location collapse: the union of a strong and a weak site at
// one location is the weak site.
type SiteSet struct {
	isTop bool
	m     map[string]*symbolic.AllocationSite
}

// NewSiteSet builds a site set from the given sites.
func NewSiteSet(sites ...*symbolic.AllocationSite) SiteSet {
	m := make(map[string]*symbolic.AllocationSite, len(sites))
	for _, s := range sites {
		m[s.Name()] = mergeSite(m[s.Name()], s)
	}
	return SiteSet{m: m}
}

// mergeSite collapses two sites at the same location: weakness wins.
func mergeSite(a, b *symbolic.AllocationSite) *symbolic.AllocationSite {
	if a == nil {
		return b
	}
	if a.IsWeak() {
		return a
	}
	if b.IsWeak() {
		return b
	}
	return a
}

// Sites returns the sites sorted by name.
func (s SiteSet) Sites() []*symbolic.AllocationSite {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*symbolic.AllocationSite, len(keys))
	for i, k := range keys {
		out[i] = s.m[k]
	}
	return out
}

// ContainsLoc returns the site allocated at loc, if any.
func (s SiteSet) ContainsLoc(loc symbolic.Location) (*symbolic.AllocationSite, bool) {
	for _, site := range s.m {
		if site.Loc() == loc {
			return site, true
		}
	}
	return nil, false
}

// Weaken returns the set with the site at loc weakened, if present.
func (s SiteSet) Weaken(loc symbolic.Location) SiteSet {
	if s.isTop {
		return s
	}
	m := make(map[string]*symbolic.AllocationSite, len(s.m))
	for k, site := range s.m {
		if site.Loc() == loc {
			m[k] = site.ToWeak()
		} else {
			m[k] = site
		}
	}
	return SiteSet{m: m}
}

// Top implements Element.
func (s SiteSet) Top() SiteSet { return SiteSet{isTop: true} }

// Bottom implements Element: the empty set.
func (s SiteSet) Bottom() SiteSet { return SiteSet{m: map[string]*symbolic.AllocationSite{}} }

// IsTop implements Element.
func (s SiteSet) IsTop() bool { return s.isTop }

// IsBottom implements Element.
func (s SiteSet) IsBottom() bool { return !s.isTop && len(s.m) == 0 }

// LessOrEqual implements Element: inclusion, where a strong site precedes the weak site
// at the same location.
func (s SiteSet) LessOrEqual(other SiteSet) bool {
	if other.isTop {
		return true
	}
	if s.isTop {
		return false
	}
	for k, site := range s.m {
		o, ok := other.m[k]
		if !ok {
			return false
		}
		if site.IsWeak() && !o.IsWeak() {
			return false
		}
	}
	return true
}

// Equal implements Element.
func (s SiteSet) Equal(other SiteSet) bool {
	return s.LessOrEqual(other) && other.LessOrEqual(s)
}

// Lub implements Element: union with same-location collapse.
func (s SiteSet) Lub(other SiteSet) SiteSet {
	if s.isTop || other.isTop {
		return s.Top()
	}
	m := make(map[string]*symbolic.AllocationSite, len(s.m)+len(other.m))
	for k, site := range s.m {
		m[k] = site
	}
	for k, site := range other.m {
		m[k] = mergeSite(m[k], site)
	}
	return SiteSet{m: m}
}

// Glb implements Element: intersection.
func (s SiteSet) Glb(other SiteSet) SiteSet {
	if s.isTop {
		return other
	}
	if other.isTop {
		return s
	}
	m := map[string]*symbolic.AllocationSite{}
	for k, site := range s.m {
		if o, ok := other.m[k]; ok {
			if site.IsWeak() {
				m[k] = o
			} else {
				m[k] = site
			}
		}
	}
	return SiteSet{m: m}
}

// Widening implements Element: allocation sites are finite per program, so the join
// stabilizes ascending chains.
func (s SiteSet) Widening(other SiteSet) SiteSet { return s.Lub(other) }

// Narrowing implements Element.
func (s SiteSet) Narrowing(other SiteSet) SiteSet {
	if s.isTop {
		return other
	}
	return s
}

func (s SiteSet) String() string {
	if s.isTop {
		return "⊤"
	}
	var parts []string
	for _, site := range s.Sites() {
		parts = append(parts, site.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
