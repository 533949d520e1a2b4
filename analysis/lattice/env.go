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
	"sort"
	"strings"

	"github.com/argus-static/argus/analysis/symbolic"
)

// Environment is the pointwise map-lattice from identifiers to elements of V. The top
// environment maps every identifier to top and the bottom environment is the unreachable
// state; in every other environment, identifiers without a binding map to the default
// (bottom, or top for environments derived from the top one). All operations are
// functional: they return fresh environments.
type Environment[V Element[V]] struct {
	w       V // witness used to mint top/bottom values
	isTop   bool
	isBot   bool
	defTop  bool // missing keys default to top instead of bottom
	entries map[string]binding[V]
}

type binding[V any] struct {
	id  symbolic.Identifier
	val V
}

// NewEnvironment returns the empty environment over the value lattice of the witness.
// Every identifier maps to bottom; the environment itself is not the bottom (unreachable)
// environment.
func NewEnvironment[V Element[V]](witness V) Environment[V] {
	return Environment[V]{w: witness, entries: map[string]binding[V]{}}
}

func (e Environment[V]) copyEntries() map[string]binding[V] {
	m := make(map[string]binding[V], len(e.entries))
	for k, b := range e.entries {
		m[k] = b
	}
	return m
}

// deflt is the value of identifiers without a binding.
func (e Environment[V]) deflt() V {
	if e.defTop {
		return e.w.Top()
	}
	return e.w.Bottom()
}

// Top implements Element.
func (e Environment[V]) Top() Environment[V] {
	return Environment[V]{w: e.w, isTop: true, defTop: true}
}

// Bottom implements Element.
func (e Environment[V]) Bottom() Environment[V] {
	return Environment[V]{w: e.w, isBot: true}
}

// IsTop implements Element.
func (e Environment[V]) IsTop() bool { return e.isTop }

// IsBottom implements Element.
func (e Environment[V]) IsBottom() bool { return e.isBot }

// GetState returns the element bound to id: top on the top environment, bottom on the
// bottom environment, and otherwise the stored element or the environment default.
func (e Environment[V]) GetState(id symbolic.Identifier) V {
	switch {
	case e.isTop:
		return e.w.Top()
	case e.isBot:
		return e.w.Bottom()
	}
	if b, ok := e.entries[id.Name()]; ok {
		return b.val
	}
	return e.deflt()
}

// Has returns true when id has an explicit binding.
func (e Environment[V]) Has(id symbolic.Identifier) bool {
	_, ok := e.entries[id.Name()]
	return ok
}

// Assign binds id to v. The update is strong for strong identifiers and joining for weak
// ones. Assigning on the bottom environment keeps it bottom: unreachable states stay
// unreachable.
func (e Environment[V]) Assign(id symbolic.Identifier, v V) Environment[V] {
	if e.isBot {
		return e
	}
	out := Environment[V]{w: e.w, defTop: e.defTop, entries: e.copyEntries()}
	if id.IsWeak() {
		v = e.GetState(id).Lub(v)
	}
	out.entries[id.Name()] = binding[V]{id: id, val: v}
	return out
}

// Forget removes the binding of id.
func (e Environment[V]) Forget(id symbolic.Identifier) Environment[V] {
	if e.isTop || e.isBot {
		return e
	}
	out := Environment[V]{w: e.w, defTop: e.defTop, entries: e.copyEntries()}
	delete(out.entries, id.Name())
	return out
}

// ForgetIf removes every binding whose identifier satisfies pred.
func (e Environment[V]) ForgetIf(pred func(symbolic.Identifier) bool) Environment[V] {
	if e.isTop || e.isBot {
		return e
	}
	out := Environment[V]{w: e.w, defTop: e.defTop, entries: map[string]binding[V]{}}
	for k, b := range e.entries {
		if !pred(b.id) {
			out.entries[k] = b
		}
	}
	return out
}

// MapValues applies f to every bound value, keeping the keys.
func (e Environment[V]) MapValues(f func(V) V) Environment[V] {
	if e.isTop || e.isBot {
		return e
	}
	out := Environment[V]{w: e.w, defTop: e.defTop, entries: map[string]binding[V]{}}
	for k, b := range e.entries {
		out.entries[k] = binding[V]{id: b.id, val: f(b.val)}
	}
	return out
}

// Identifiers returns the bound identifiers sorted by name.
func (e Environment[V]) Identifiers() []symbolic.Identifier {
	keys := make([]string, 0, len(e.entries))
	for k := range e.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]symbolic.Identifier, len(keys))
	for i, k := range keys {
		out[i] = e.entries[k].id
	}
	return out
}

// PushScope rescopes every key with the token. Values are scope-invariant; only the
// identifiers change.
func (e Environment[V]) PushScope(t symbolic.ScopeToken) (Environment[V], error) {
	if e.isTop || e.isBot {
		return e, nil
	}
	out := Environment[V]{w: e.w, defTop: e.defTop, entries: map[string]binding[V]{}}
	for _, b := range e.entries {
		pushed, err := b.id.PushScope(t)
		if err != nil {
			return Environment[V]{}, err
		}
		id, ok := pushed.(symbolic.Identifier)
		if !ok {
			Invariantf("pushing a scope on identifier %s produced non-identifier %s", b.id, pushed)
		}
		val := b.val
		if prev, clash := out.entries[id.Name()]; clash {
			// recursive scopes collapse onto one name
			val = val.Lub(prev.val)
		}
		out.entries[id.Name()] = binding[V]{id: id, val: val}
	}
	return out, nil
}

// PopScope unscopes every key carrying the token and drops the identifiers local to the
// popped scope.
func (e Environment[V]) PopScope(t symbolic.ScopeToken) (Environment[V], error) {
	if e.isTop || e.isBot {
		return e, nil
	}
	out := Environment[V]{w: e.w, defTop: e.defTop, entries: map[string]binding[V]{}}
	for _, b := range e.entries {
		popped, err := b.id.PopScope(t)
		if err != nil {
			continue // local to the popped scope
		}
		id, ok := popped.(symbolic.Identifier)
		if !ok {
			Invariantf("popping a scope on identifier %s produced non-identifier %s", b.id, popped)
		}
		val := b.val
		if prev, clash := out.entries[id.Name()]; clash {
			val = val.Lub(prev.val)
		}
		out.entries[id.Name()] = binding[V]{id: id, val: val}
	}
	return out, nil
}

// LessOrEqual implements Element: pointwise comparison over the union of the keysets,
// with missing keys at the environment default.
func (e Environment[V]) LessOrEqual(other Environment[V]) bool {
	switch {
	case e.isBot || other.isTop:
		return true
	case other.isBot:
		return e.isBot
	case e.isTop:
		return other.isTop
	}
	for k, b := range e.entries {
		var ov V
		if ob, ok := other.entries[k]; ok {
			ov = ob.val
		} else {
			ov = other.deflt()
		}
		if !b.val.LessOrEqual(ov) {
			return false
		}
	}
	if e.defTop && !other.defTop {
		// keys absent on both sides are top here and bottom there
		return false
	}
	return true
}

// Equal implements Element.
func (e Environment[V]) Equal(other Environment[V]) bool {
	return e.LessOrEqual(other) && other.LessOrEqual(e)
}

// merge applies op pointwise over the union of the keysets.
func (e Environment[V]) merge(other Environment[V], op func(a, b V) V, defTop bool) Environment[V] {
	out := Environment[V]{w: e.w, defTop: defTop, entries: map[string]binding[V]{}}
	for k, b := range e.entries {
		var ov V
		if ob, ok := other.entries[k]; ok {
			ov = ob.val
		} else {
			ov = other.deflt()
		}
		out.entries[k] = binding[V]{id: b.id, val: op(b.val, ov)}
	}
	for k, ob := range other.entries {
		if _, done := out.entries[k]; done {
			continue
		}
		out.entries[k] = binding[V]{id: ob.id, val: op(e.deflt(), ob.val)}
	}
	return out
}

// Lub implements Element.
func (e Environment[V]) Lub(other Environment[V]) Environment[V] {
	switch {
	case e.isBot:
		return other
	case other.isBot:
		return e
	case e.isTop || other.isTop:
		return e.Top()
	}
	return e.merge(other, func(a, b V) V { return a.Lub(b) }, e.defTop || other.defTop)
}

// Glb implements Element.
func (e Environment[V]) Glb(other Environment[V]) Environment[V] {
	switch {
	case e.isBot || other.isBot:
		return e.Bottom()
	case e.isTop:
		return other
	case other.isTop:
		return e
	}
	return e.merge(other, func(a, b V) V { return a.Glb(b) }, e.defTop && other.defTop)
}

// Widening implements Element: pointwise widening.
func (e Environment[V]) Widening(other Environment[V]) Environment[V] {
	switch {
	case e.isBot:
		return other
	case other.isBot:
		return e
	case e.isTop || other.isTop:
		return e.Top()
	}
	return e.merge(other, func(a, b V) V { return a.Widening(b) }, e.defTop || other.defTop)
}

// Narrowing implements Element: pointwise narrowing.
func (e Environment[V]) Narrowing(other Environment[V]) Environment[V] {
	switch {
	case e.isBot || other.isBot:
		return e.Bottom()
	case e.isTop:
		return other
	case other.isTop:
		return e
	}
	return e.merge(other, func(a, b V) V { return a.Narrowing(b) }, e.defTop && other.defTop)
}

// String implements Element: bindings sorted by identifier name.
func (e Environment[V]) String() string {
	switch {
	case e.isTop:
		return "⊤"
	case e.isBot:
		return "⊥"
	}
	keys := make([]string, 0, len(e.entries))
	for k := range e.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, k+" -> "+e.entries[k].val.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
