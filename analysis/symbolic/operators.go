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

// UnaryOperator identifies a unary operation on expressions.
type UnaryOperator string

const (
	// Neg is arithmetic negation
	Neg UnaryOperator = "-"
	// Not is boolean negation
	Not UnaryOperator = "!"
)

// BinaryOperator identifies a binary operation on expressions.
type BinaryOperator string

const (
	Add BinaryOperator = "+"
	Sub BinaryOperator = "-"
	Mul BinaryOperator = "*"
	Div BinaryOperator = "/"
	Mod BinaryOperator = "%"

	Eq BinaryOperator = "=="
	Ne BinaryOperator = "!="
	Lt BinaryOperator = "<"
	Le BinaryOperator = "<="
	Gt BinaryOperator = ">"
	Ge BinaryOperator = ">="

	And BinaryOperator = "&&"
	Or  BinaryOperator = "||"
)

// IsComparison returns true for the six relational operators.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return true
	}
	return false
}

// Negate returns the comparison holding exactly when op does not, and true. For
// non-comparison operators it returns op and false.
func (op BinaryOperator) Negate() (BinaryOperator, bool) {
	switch op {
	case Eq:
		return Ne, true
	case Ne:
		return Eq, true
	case Lt:
		return Ge, true
	case Le:
		return Gt, true
	case Gt:
		return Le, true
	case Ge:
		return Lt, true
	}
	return op, false
}

// Flip returns the comparison with its operands swapped (x op y iff y flip(op) x). For
// non-comparison operators it returns op unchanged.
func (op BinaryOperator) Flip() BinaryOperator {
	switch op {
	case Lt:
		return Gt
	case Le:
		return Ge
	case Gt:
		return Lt
	case Ge:
		return Le
	}
	return op
}

// TernaryOperator identifies a ternary operation on expressions.
type TernaryOperator string

const (
	// Select is the conditional choice operator: Select(c, a, b) is a when c holds and b
	// otherwise. Abstract evaluations that cannot decide c join both branches.
	Select TernaryOperator = "select"
)
