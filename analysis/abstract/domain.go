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

// Package abstract defines the semantic-domain capabilities of the engine (what heap,
// value and type abstractions must provide) and the composite abstract state combining
// one of each into the state the fixpoint iterates.
package abstract

import (
	"fmt"
	"strings"

	"github.com/argus-static/argus/analysis/lattice"
	"github.com/argus-static/argus/analysis/symbolic"
)

// Satisfiability is the three-valued result of asking whether an abstract state satisfies
// a boolean expression.
type Satisfiability int

const (
	// Unknown means the state neither proves nor refutes the expression
	Unknown Satisfiability = iota
	// Satisfied means every concrete state abstracted satisfies the expression
	Satisfied
	// NotSatisfied means no concrete state abstracted satisfies the expression
	NotSatisfied
)

func (s Satisfiability) String() string {
	switch s {
	case Satisfied:
		return "TRUE"
	case NotSatisfied:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// Negate returns the satisfiability of the negated expression.
func (s Satisfiability) Negate() Satisfiability {
	switch s {
	case Satisfied:
		return NotSatisfied
	case NotSatisfied:
		return Satisfied
	default:
		return Unknown
	}
}

// And combines the satisfiability of a conjunction.
func (s Satisfiability) And(other Satisfiability) Satisfiability {
	if s == NotSatisfied || other == NotSatisfied {
		return NotSatisfied
	}
	if s == Satisfied && other == Satisfied {
		return Satisfied
	}
	return Unknown
}

// Or combines the satisfiability of a disjunction.
func (s Satisfiability) Or(other Satisfiability) Satisfiability {
	if s == Satisfied || other == Satisfied {
		return Satisfied
	}
	if s == NotSatisfied && other == NotSatisfied {
		return NotSatisfied
	}
	return Unknown
}

// Join merges results obtained along alternative rewritings: agreement is kept, any
// disagreement degrades to Unknown.
func (s Satisfiability) Join(other Satisfiability) Satisfiability {
	if s == other {
		return s
	}
	return Unknown
}

// SemanticError reports that a domain operation refused a step, e.g. when rewriting an
// assignment target did not yield an identifier. The fixpoint wraps it with the failing
// node.
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string { return e.Msg }

// Semanticf builds a SemanticError with a formatted message.
func Semanticf(format string, args ...any) error {
	return &SemanticError{Msg: fmt.Sprintf(format, args...)}
}

// Replacement denotes that every occurrence of a source identifier in downstream abstract
// values must be substituted by the targets, binding them to the join of the sources'
// images. Heap mutations such as strong-to-weak site collapses travel across domains as
// replacements.
type Replacement struct {
	Sources []symbolic.Identifier
	Targets []symbolic.Identifier
}

// IsIdentity returns true when sources and targets name the same identifiers, in which
// case applying the replacement is a no-op.
func (r Replacement) IsIdentity() bool {
	if len(r.Sources) != len(r.Targets) {
		return false
	}
	names := map[string]bool{}
	for _, s := range r.Sources {
		names[s.Name()] = true
	}
	for _, t := range r.Targets {
		if !names[t.Name()] {
			return false
		}
	}
	return true
}

func (r Replacement) String() string {
	var src, dst []string
	for _, s := range r.Sources {
		src = append(src, s.Name())
	}
	for _, t := range r.Targets {
		dst = append(dst, t.Name())
	}
	return "{" + strings.Join(src, ",") + "} -> {" + strings.Join(dst, ",") + "}"
}

// Domain is the semantic capability every abstract domain exposes on top of its lattice
// structure. D is the concrete domain type. Every transition is functional: it returns a
// fresh value and never mutates the receiver.
type Domain[D any] interface {
	lattice.Element[D]

	// Assign models id := expr at program point pp
	Assign(id symbolic.Identifier, expr symbolic.Expression, pp symbolic.ProgramPoint) (D, error)

	// SmallStepSemantics models the evaluation of expr without committing an assignment
	SmallStepSemantics(expr symbolic.Expression, pp symbolic.ProgramPoint) (D, error)

	// Assume refines the state with the knowledge that expr holds on the edge from src
	// to dst. The bottom result means the edge is unreachable.
	Assume(expr symbolic.Expression, src, dst symbolic.ProgramPoint) (D, error)

	// Satisfies reports whether the state satisfies the boolean expression
	Satisfies(expr symbolic.Expression, pp symbolic.ProgramPoint) Satisfiability

	// PushScope moves the state into the scope identified by the token
	PushScope(t symbolic.ScopeToken) (D, error)

	// PopScope undoes a PushScope with the same token, dropping scope-local identifiers
	PopScope(t symbolic.ScopeToken) (D, error)

	// Forget removes all knowledge about id
	Forget(id symbolic.Identifier) (D, error)

	// ForgetIf removes all knowledge about the identifiers satisfying pred
	ForgetIf(pred func(symbolic.Identifier) bool) (D, error)
}

// HeapDomain is the capability of heap abstractions: a Domain that additionally rewrites
// heap expressions into value-level ones and emits the identifier replacements its
// transitions caused. Heap domains also serve as the rewriter's heap context.
type HeapDomain[H any] interface {
	Domain[H]
	symbolic.HeapContext

	// Rewrite lowers expr into the set of value-level expressions it may stand for
	Rewrite(expr symbolic.Expression, pp symbolic.ProgramPoint) (symbolic.ExpressionSet, error)

	// Replacements returns the substitutions produced by the last transition, in
	// application order
	Replacements() []Replacement
}

// ValueDomain is the capability of value (and type) abstractions: a Domain that can apply
// the heap's identifier replacements to its own bindings.
type ValueDomain[V any] interface {
	Domain[V]

	// ApplyReplacement rebinds the targets of r to the join of the sources' images and
	// forgets sources that are not targets
	ApplyReplacement(r Replacement) (V, error)
}

// AbstractState is the capability of a complete abstract state: a Domain that exposes the
// heap rewriting so clients can resolve assignment targets.
type AbstractState[A any] interface {
	Domain[A]

	// Rewrite lowers expr into value-level expressions under the state's heap
	Rewrite(expr symbolic.Expression, pp symbolic.ProgramPoint) (symbolic.ExpressionSet, error)
}
