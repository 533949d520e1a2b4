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

package abstract

import (
	"strings"

	"github.com/argus-static/argus/analysis/lattice"
	"github.com/argus-static/argus/internal/funcutil"
)

// InfoValue is the minimal lattice capability the auxiliary fixpoint-info map requires of
// its values. Different keys may store values of different concrete types; combining
// values of mismatched types is an internal invariant violation.
type InfoValue interface {
	// JoinInfo returns the join of the receiver and other
	JoinInfo(other InfoValue) InfoValue

	// LeqInfo returns true when the receiver precedes other
	LeqInfo(other InfoValue) bool

	String() string
}

// InfoMap is the string-keyed map-lattice of auxiliary per-point analysis information.
// Keys bound to bottom values are preserved: bottom is data, not absence. The zero value
// is the empty (bottom) map.
type InfoMap struct {
	m map[string]InfoValue
}

// NewInfoMap returns the empty info map.
func NewInfoMap() InfoMap {
	return InfoMap{}
}

// Get returns the value stored at key.
func (im InfoMap) Get(key string) (InfoValue, bool) {
	v, ok := im.m[key]
	return v, ok
}

// Len returns the number of stored keys.
func (im InfoMap) Len() int { return len(im.m) }

// Keys returns the stored keys in increasing order.
func (im InfoMap) Keys() []string {
	return funcutil.SortedKeys(im.m)
}

func (im InfoMap) copy() map[string]InfoValue {
	m := make(map[string]InfoValue, len(im.m))
	for k, v := range im.m {
		m[k] = v
	}
	return m
}

// Put strongly stores v at key, replacing any previous value.
func (im InfoMap) Put(key string, v InfoValue) InfoMap {
	m := im.copy()
	m[key] = v
	return InfoMap{m: m}
}

// WeakPut stores the join of v and the previous value at key.
func (im InfoMap) WeakPut(key string, v InfoValue) InfoMap {
	m := im.copy()
	if old, ok := m[key]; ok {
		m[key] = old.JoinInfo(v)
	} else {
		m[key] = v
	}
	return InfoMap{m: m}
}

// Join joins the two maps pointwise over the union of their keysets.
func (im InfoMap) Join(other InfoMap) InfoMap {
	m := im.copy()
	funcutil.Merge(m, other.m, func(a, b InfoValue) InfoValue { return a.JoinInfo(b) })
	return InfoMap{m: m}
}

// LessOrEqual compares the maps pointwise: every key stored here must be stored in other
// with a greater or equal value.
func (im InfoMap) LessOrEqual(other InfoMap) bool {
	for k, v := range im.m {
		ov, ok := other.m[k]
		if !ok || !v.LeqInfo(ov) {
			return false
		}
	}
	return true
}

// Equal returns true when the maps store the same keys with equal values.
func (im InfoMap) Equal(other InfoMap) bool {
	return im.LessOrEqual(other) && other.LessOrEqual(im)
}

func (im InfoMap) String() string {
	var parts []string
	for _, k := range im.Keys() {
		parts = append(parts, k+": "+im.m[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// InfoLattice adapts any lattice element into an InfoValue. Mixing adapted values of
// different inner types panics with a lattice invariant violation.
type InfoLattice[L lattice.Element[L]] struct {
	Value L
}

// WrapInfo adapts v for storage in an InfoMap.
func WrapInfo[L lattice.Element[L]](v L) InfoLattice[L] {
	return InfoLattice[L]{Value: v}
}

// JoinInfo implements InfoValue.
func (i InfoLattice[L]) JoinInfo(other InfoValue) InfoValue {
	o, ok := other.(InfoLattice[L])
	if !ok {
		lattice.Invariantf("joining info values of mismatched types %T and %T", i, other)
	}
	return InfoLattice[L]{Value: i.Value.Lub(o.Value)}
}

// LeqInfo implements InfoValue.
func (i InfoLattice[L]) LeqInfo(other InfoValue) bool {
	o, ok := other.(InfoLattice[L])
	if !ok {
		lattice.Invariantf("comparing info values of mismatched types %T and %T", i, other)
	}
	return i.Value.LessOrEqual(o.Value)
}

func (i InfoLattice[L]) String() string { return i.Value.String() }
