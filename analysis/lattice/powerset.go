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

package lattice

import (
	"fmt"
	"sort"
	"strings"
)

// Powerset is the finite powerset lattice over elements of T, ordered by inclusion. The
// join is set union; widening equals the join, which terminates because the carrier of a
// powerset used by the analysis (allocation sites, definition points) is finite per
// program. Top is the distinguished full set.
type Powerset[T comparable] struct {
	isTop bool
	elems map[T]bool
}

// NewPowerset builds a set containing the given elements.
func NewPowerset[T comparable](elems ...T) Powerset[T] {
	m := make(map[T]bool, len(elems))
	for _, e := range elems {
		m[e] = true
	}
	return Powerset[T]{elems: m}
}

// Contains returns true when x is in the set.
func (p Powerset[T]) Contains(x T) bool {
	return p.isTop || p.elems[x]
}

// Len returns the number of elements; it is meaningless on top.
func (p Powerset[T]) Len() int { return len(p.elems) }

// Elements returns the elements sorted by their printed form.
func (p Powerset[T]) Elements() []T {
	out := make([]T, 0, len(p.elems))
	for e := range p.elems {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return fmt.Sprint(out[i]) < fmt.Sprint(out[j])
	})
	return out
}

// Add returns the set extended with x.
func (p Powerset[T]) Add(x T) Powerset[T] {
	if p.isTop {
		return p
	}
	m := make(map[T]bool, len(p.elems)+1)
	for e := range p.elems {
		m[e] = true
	}
	m[x] = true
	return Powerset[T]{elems: m}
}

// Top implements Element.
func (p Powerset[T]) Top() Powerset[T] { return Powerset[T]{isTop: true} }

// Bottom implements Element: the empty set.
func (p Powerset[T]) Bottom() Powerset[T] { return Powerset[T]{elems: map[T]bool{}} }

// IsTop implements Element.
func (p Powerset[T]) IsTop() bool { return p.isTop }

// IsBottom implements Element.
func (p Powerset[T]) IsBottom() bool { return !p.isTop && len(p.elems) == 0 }

// LessOrEqual implements Element: set inclusion.
func (p Powerset[T]) LessOrEqual(other Powerset[T]) bool {
	if other.isTop {
		return true
	}
	if p.isTop {
		return false
	}
	for e := range p.elems {
		if !other.elems[e] {
			return false
		}
	}
	return true
}

// Equal implements Element.
func (p Powerset[T]) Equal(other Powerset[T]) bool {
	return p.LessOrEqual(other) && other.LessOrEqual(p)
}

// Lub implements Element: set union.
func (p Powerset[T]) Lub(other Powerset[T]) Powerset[T] {
	if p.isTop || other.isTop {
		return p.Top()
	}
	m := make(map[T]bool, len(p.elems)+len(other.elems))
	for e := range p.elems {
		m[e] = true
	}
	for e := range other.elems {
		m[e] = true
	}
	return Powerset[T]{elems: m}
}

// Glb implements Element: set intersection.
func (p Powerset[T]) Glb(other Powerset[T]) Powerset[T] {
	if p.isTop {
		return other
	}
	if other.isTop {
		return p
	}
	m := map[T]bool{}
	for e := range p.elems {
		if other.elems[e] {
			m[e] = true
		}
	}
	return Powerset[T]{elems: m}
}

// Widening implements Element: the carrier is finite, so the join already stabilizes
// ascending chains.
func (p Powerset[T]) Widening(other Powerset[T]) Powerset[T] {
	return p.Lub(other)
}

// Narrowing implements Element.
func (p Powerset[T]) Narrowing(other Powerset[T]) Powerset[T] {
	if p.isTop {
		return other
	}
	return p
}

func (p Powerset[T]) String() string {
	if p.isTop {
		return "⊤"
	}
	var parts []string
	for _, e := range p.Elements() {
		parts = append(parts, fmt.Sprint(e))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ---------------------------------------------------------------------------
// Non-redundant powerset
// ---------------------------------------------------------------------------

// NonRedundant is the non-redundant powerset of an inner lattice: a finite set of inner
// elements none of which precedes another. The order is the Hoare order (every member is
// below some member of the other set); joins take the union and drop redundant members.
type NonRedundant[V Element[V]] struct {
	isTop bool
	elems []V
}

// NewNonRedundant builds a non-redundant set from the given elements, dropping bottoms
// and redundant members.
func NewNonRedundant[V Element[V]](elems ...V) NonRedundant[V] {
	return NonRedundant[V]{elems: removeRedundant(elems)}
}

func removeRedundant[V Element[V]](elems []V) []V {
	var keep []V
	for i, e := range elems {
		if e.IsBottom() {
			continue
		}
		redundant := false
		for j, o := range elems {
			if i == j {
				continue
			}
			// e is redundant when it is strictly below o, or equal to an earlier member
			if e.LessOrEqual(o) && (!o.LessOrEqual(e) || j < i) {
				redundant = true
				break
			}
		}
		if !redundant {
			keep = append(keep, e)
		}
	}
	sort.Slice(keep, func(i, j int) bool { return keep[i].String() < keep[j].String() })
	return keep
}

// Elements returns the members sorted by their printed form.
func (n NonRedundant[V]) Elements() []V { return n.elems }

// Top implements Element.
func (n NonRedundant[V]) Top() NonRedundant[V] { return NonRedundant[V]{isTop: true} }

// Bottom implements Element: the empty set.
func (n NonRedundant[V]) Bottom() NonRedundant[V] { return NonRedundant[V]{} }

// IsTop implements Element.
func (n NonRedundant[V]) IsTop() bool { return n.isTop }

// IsBottom implements Element.
func (n NonRedundant[V]) IsBottom() bool { return !n.isTop && len(n.elems) == 0 }

// LessOrEqual implements Element: the Hoare order.
func (n NonRedundant[V]) LessOrEqual(other NonRedundant[V]) bool {
	if other.isTop {
		return true
	}
	if n.isTop {
		return false
	}
	for _, e := range n.elems {
		below := false
		for _, o := range other.elems {
			if e.LessOrEqual(o) {
				below = true
				break
			}
		}
		if !below {
			return false
		}
	}
	return true
}

// Equal implements Element.
func (n NonRedundant[V]) Equal(other NonRedundant[V]) bool {
	return n.LessOrEqual(other) && other.LessOrEqual(n)
}

// Lub implements Element.
func (n NonRedundant[V]) Lub(other NonRedundant[V]) NonRedundant[V] {
	if n.isTop || other.isTop {
		return n.Top()
	}
	return NewNonRedundant(append(append([]V{}, n.elems...), other.elems...)...)
}

// Glb implements Element: pairwise glbs of the members.
func (n NonRedundant[V]) Glb(other NonRedundant[V]) NonRedundant[V] {
	if n.isTop {
		return other
	}
	if other.isTop {
		return n
	}
	var meets []V
	for _, e := range n.elems {
		for _, o := range other.elems {
			meets = append(meets, e.Glb(o))
		}
	}
	return NewNonRedundant(meets...)
}

// Widening implements Element: members below a member of the other set widen pairwise,
// so chains of growing members stabilize with the inner widening.
func (n NonRedundant[V]) Widening(other NonRedundant[V]) NonRedundant[V] {
	if n.isTop || other.isTop {
		return n.Top()
	}
	joined := n.Lub(other)
	var widened []V
	for _, j := range joined.elems {
		w := j
		for _, e := range n.elems {
			if e.LessOrEqual(j) && !j.LessOrEqual(e) {
				w = e.Widening(j)
				break
			}
		}
		widened = append(widened, w)
	}
	return NewNonRedundant(widened...)
}

// Narrowing implements Element.
func (n NonRedundant[V]) Narrowing(other NonRedundant[V]) NonRedundant[V] {
	if n.isTop {
		return other
	}
	return n
}

func (n NonRedundant[V]) String() string {
	if n.isTop {
		return "⊤"
	}
	var parts []string
	for _, e := range n.elems {
		parts = append(parts, e.String())
	}
	return "{" + strings.Join(parts, " | ") + "}"
}
