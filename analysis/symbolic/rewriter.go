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

import "fmt"

// HeapContext is the view of a heap abstraction the Rewriter needs: which allocation sites
// an identifier may point to, and whether a location has already been allocated along the
// current path.
type HeapContext interface {
	// SitesOf returns the allocation sites the identifier points to, and whether the
	// identifier is tracked at all
	SitesOf(id Identifier) ([]*AllocationSite, bool)

	// IsAllocated returns true when some region has already been allocated at loc along
	// the current path
	IsAllocated(loc Location) bool
}

// Rewriter lowers expressions with heap forms into sets of value-level expressions under a
// heap context. Heap allocations become allocation sites, references become pointer
// identifiers, and dereferences and field accesses resolve through the heap environment.
type Rewriter struct {
	Heap HeapContext
}

// Rewrite returns the value-level expressions e may stand for at program point pp. The
// result never contains heap forms; it may contain more than one expression when the heap
// environment maps an identifier to several sites.
func (r Rewriter) Rewrite(e Expression, pp ProgramPoint) (ExpressionSet, error) {
	switch ex := e.(type) {
	case Skip:
		return NewExpressionSet(ex), nil
	case *Constant:
		return NewExpressionSet(ex), nil
	case *Nondet:
		return NewExpressionSet(ex), nil
	case *AllocationSite:
		return NewExpressionSet(ex), nil
	case *PointerIdentifier:
		return NewExpressionSet(ex), nil
	case *Variable:
		if sites, ok := r.Heap.SitesOf(ex); ok {
			ptrs := make([]Expression, len(sites))
			for i, s := range sites {
				ptrs[i] = NewPointerIdentifier(s, ex.StaticTypes())
			}
			return NewExpressionSet(ptrs...), nil
		}
		return NewExpressionSet(ex), nil
	case *UnaryExpr:
		args, err := r.Rewrite(ex.Arg, pp)
		if err != nil {
			return ExpressionSet{}, err
		}
		return recombine1(args, func(a Expression) Expression {
			return NewUnary(ex.Op, a, ex.StaticTypes())
		}), nil
	case *BinaryExpr:
		ls, err := r.Rewrite(ex.Left, pp)
		if err != nil {
			return ExpressionSet{}, err
		}
		rs, err := r.Rewrite(ex.Right, pp)
		if err != nil {
			return ExpressionSet{}, err
		}
		return recombine2(ls, rs, func(l, rr Expression) Expression {
			return NewBinary(ex.Op, l, rr, ex.StaticTypes())
		}), nil
	case *TernaryExpr:
		as, err := r.Rewrite(ex.A, pp)
		if err != nil {
			return ExpressionSet{}, err
		}
		bs, err := r.Rewrite(ex.B, pp)
		if err != nil {
			return ExpressionSet{}, err
		}
		cs, err := r.Rewrite(ex.C, pp)
		if err != nil {
			return ExpressionSet{}, err
		}
		var out []Expression
		for _, a := range as.Elements() {
			for _, b := range bs.Elements() {
				for _, c := range cs.Elements() {
					out = append(out, NewTernary(ex.Op, a, b, c, ex.StaticTypes()))
				}
			}
		}
		return NewExpressionSet(out...), nil
	case *HeapAllocation:
		loc := pp.Location()
		site := NewAllocationSite(ex.StaticTypes(), loc, r.Heap.IsAllocated(loc))
		return NewExpressionSet(site), nil
	case *HeapReference:
		inner, err := r.Rewrite(ex.Inner, pp)
		if err != nil {
			return ExpressionSet{}, err
		}
		var out []Expression
		for _, ie := range inner.Elements() {
			switch iv := ie.(type) {
			case *AllocationSite:
				out = append(out, NewPointerIdentifier(iv, ex.StaticTypes()))
			case *PointerIdentifier:
				out = append(out, iv)
			default:
				out = append(out, ie)
			}
		}
		return NewExpressionSet(out...), nil
	case *HeapDereference:
		if v, ok := ex.Inner.(*Variable); ok {
			if sites, tracked := r.Heap.SitesOf(v); tracked {
				ptrs := make([]Expression, len(sites))
				for i, s := range sites {
					ptrs[i] = NewPointerIdentifier(s, ex.StaticTypes())
				}
				return NewExpressionSet(ptrs...), nil
			}
		}
		inner, err := r.Rewrite(ex.Inner, pp)
		if err != nil {
			return ExpressionSet{}, err
		}
		var out []Expression
		for _, ie := range inner.Elements() {
			switch iv := ie.(type) {
			case *PointerIdentifier:
				out = append(out, iv.Site)
			default:
				out = append(out, ie)
			}
		}
		return NewExpressionSet(out...), nil
	case *AccessChild:
		recv, err := r.Rewrite(ex.Receiver, pp)
		if err != nil {
			return ExpressionSet{}, err
		}
		var out []Expression
		for _, re := range recv.Elements() {
			switch rv := re.(type) {
			case *PointerIdentifier:
				out = append(out, rv.Site.ToWeak())
			case *AllocationSite:
				out = append(out, rv.ToWeak())
			default:
				// Field-insensitive fallback: the access collapses onto its receiver.
				out = append(out, re)
			}
		}
		return NewExpressionSet(out...), nil
	default:
		return ExpressionSet{}, fmt.Errorf("rewriter: unhandled expression %T", e)
	}
}

func recombine1(args ExpressionSet, mk func(Expression) Expression) ExpressionSet {
	var out []Expression
	for _, a := range args.Elements() {
		out = append(out, mk(a))
	}
	return NewExpressionSet(out...)
}

func recombine2(ls, rs ExpressionSet, mk func(Expression, Expression) Expression) ExpressionSet {
	var out []Expression
	for _, l := range ls.Elements() {
		for _, r := range rs.Elements() {
			out = append(out, mk(l, r))
		}
	}
	return NewExpressionSet(out...)
}
