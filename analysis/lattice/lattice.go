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

// Package lattice defines the order-theoretic capability every abstract element exposes,
// and generic lattice constructions (environments, powersets) the domains build on.
package lattice

import "fmt"

// Element is the capability of a lattice element. L is the concrete element type:
// implementations satisfy Element[themselves]. All operations are total on ordinary
// values and return fresh elements; an implementation only fails by panicking with a
// *LatticeError when one of its internal invariants is broken, and the fixpoint engine
// converts that panic into a fixpoint error.
//
// Required laws: Bottom ≤ x ≤ Top for every x; Lub is the least upper bound and Glb the
// greatest lower bound; x.Widening(y) is an upper bound of x and y and stabilizes every
// ascending chain; Equal is consistent with LessOrEqual in both directions.
type Element[L any] interface {
	// Top returns the greatest element of the lattice
	Top() L

	// Bottom returns the least element of the lattice
	Bottom() L

	// IsTop returns true when the receiver is the greatest element
	IsTop() bool

	// IsBottom returns true when the receiver is the least element
	IsBottom() bool

	// LessOrEqual returns true when the receiver precedes other in the partial order
	LessOrEqual(other L) bool

	// Equal returns true when the receiver and other denote the same element
	Equal(other L) bool

	// Lub returns the least upper bound of the receiver and other
	Lub(other L) L

	// Glb returns the greatest lower bound of the receiver and other
	Glb(other L) L

	// Widening returns an upper bound of the receiver and other that stabilizes
	// ascending chains
	Widening(other L) L

	// Narrowing returns an element between the receiver's glb with other and the
	// receiver, used to refine results after the ascending phase
	Narrowing(other L) L

	String() string
}

// LatticeError reports a broken internal invariant of a lattice implementation. It is
// raised by panicking; the fixpoint engine recovers it at the iteration boundary. Ordinary
// values never produce a LatticeError.
type LatticeError struct {
	Msg string
}

func (e *LatticeError) Error() string {
	return "lattice invariant violated: " + e.Msg
}

// Invariantf panics with a *LatticeError carrying the formatted message.
func Invariantf(format string, args ...any) {
	panic(&LatticeError{Msg: fmt.Sprintf(format, args...)})
}
