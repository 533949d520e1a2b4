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

package symbolic

import (
	"sort"
	"strings"
)

// TypeSet is the set of static types an expression may have. Types are identified by name;
// the engine never interprets them beyond equality. The empty set contains no type;
// AnyType is the distinguished set of all types.
type TypeSet struct {
	names []string // sorted, deduplicated
	any   bool
}

// AnyType is the type set containing all types.
var AnyType = TypeSet{any: true}

// Types builds a type set from the given type names.
func Types(names ...string) TypeSet {
	m := map[string]bool{}
	for _, n := range names {
		m[n] = true
	}
	s := make([]string, 0, len(m))
	for n := range m {
		s = append(s, n)
	}
	sort.Strings(s)
	return TypeSet{names: s}
}

// IsAny returns true when the set stands for all types.
func (t TypeSet) IsAny() bool {
	return t.any
}

// IsEmpty returns true when the set contains no type and is not the any-type set.
func (t TypeSet) IsEmpty() bool {
	return !t.any && len(t.names) == 0
}

// Has returns true when name is in the set.
func (t TypeSet) Has(name string) bool {
	if t.any {
		return true
	}
	i := sort.SearchStrings(t.names, name)
	return i < len(t.names) && t.names[i] == name
}

// Names returns the sorted type names. The result must not be mutated.
func (t TypeSet) Names() []string {
	return t.names
}

// Union returns the union of the two sets.
func (t TypeSet) Union(other TypeSet) TypeSet {
	if t.any || other.any {
		return AnyType
	}
	return Types(append(append([]string{}, t.names...), other.names...)...)
}

// Intersect returns the intersection of the two sets.
func (t TypeSet) Intersect(other TypeSet) TypeSet {
	if t.any {
		return other
	}
	if other.any {
		return t
	}
	var keep []string
	for _, n := range t.names {
		if other.Has(n) {
			keep = append(keep, n)
		}
	}
	return Types(keep...)
}

// Subset returns true when every type in t is in other.
func (t TypeSet) Subset(other TypeSet) bool {
	if other.any {
		return true
	}
	if t.any {
		return false
	}
	for _, n := range t.names {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// Equal returns true when the two sets contain the same types.
func (t TypeSet) Equal(other TypeSet) bool {
	return t.Subset(other) && other.Subset(t)
}

func (t TypeSet) String() string {
	if t.any {
		return "*"
	}
	return "{" + strings.Join(t.names, ",") + "}"
}
