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

// Package symbolic defines the language-independent expression trees the analysis engine
// evaluates: constants, variables, operators and heap forms. Expressions are immutable;
// scope tokens produce rescoped copies.
package symbolic

import "fmt"

// Location is a position in the analyzed source. The zero value is the unknown location.
type Location struct {
	File string
	Line int
	Col  int
}

// Unknown returns true when the location carries no position information.
func (l Location) Unknown() bool {
	return l.File == "" && l.Line == 0 && l.Col == 0
}

func (l Location) String() string {
	if l.Unknown() {
		return "?"
	}
	if l.Col == 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Compare orders locations by file, then line, then column. It returns a negative number,
// zero, or a positive number when l is before, at, or after other.
func (l Location) Compare(other Location) int {
	if l.File != other.File {
		if l.File < other.File {
			return -1
		}
		return 1
	}
	if l.Line != other.Line {
		return l.Line - other.Line
	}
	return l.Col - other.Col
}

// ProgramPoint is a point of the analyzed program providing a location. CFG statements are
// the program points of the engine; domains only depend on this interface.
type ProgramPoint interface {
	Location() Location
	String() string
}
